// Package sync periodically exports templates and recent aliases as JSONL
// to backup destinations.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/metrics"
)

// Destination receives each JSONL export.
type Destination interface {
	// Name identifies the destination in logs and metrics.
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Report summarises one export.
type Report struct {
	Bytes  int
	Failed map[string]error // keyed by destination name
}

// Err joins the destination failures, or returns nil when every
// destination accepted the export.
func (r Report) Err() error {
	var errs []error
	for name, err := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}

// Scheduler exports from a Source to its destinations on a fixed interval.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Recorder

	stop context.CancelFunc
	done sync.WaitGroup
}

func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger.With("component", "sync"),
	}
}

// WithMetrics records every destination write on rec.
func (s *Scheduler) WithMetrics(rec *metrics.Recorder) *Scheduler {
	s.metrics = rec
	return s
}

// Start exports once right away and then on every tick until ctx is done
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.SyncOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop and waits for an export in flight to finish.
func (s *Scheduler) Stop() {
	if s.stop != nil {
		s.stop()
	}
	s.done.Wait()
}

// SyncOnce exports once and writes the result to every destination. A
// failing destination does not stop the others. The returned error is set
// only when the export itself failed.
func (s *Scheduler) SyncOnce(ctx context.Context) (Report, error) {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, &buf); err != nil {
		s.logger.Error("export failed", "error", err)
		return Report{}, err
	}

	report := Report{Bytes: buf.Len()}
	for _, dest := range s.destinations {
		err := dest.Write(ctx, buf.Bytes())
		s.metrics.IncSyncRun(dest.Name(), err)
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]error)
			}
			report.Failed[dest.Name()] = err
			s.logger.Error("destination write failed", "destination", dest.Name(), "error", err)
		}
	}

	s.logger.Info("export written",
		"destinations", len(s.destinations),
		"failed", len(report.Failed),
		"bytes", report.Bytes)
	return report, nil
}
