// Package server exposes the template and alias components over HTTP and
// gRPC, publishing a change event after every successful write.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/health"

	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/metrics"
	"github.com/alfredjeanlab/skyrecords/internal/networkalias"
	"github.com/alfredjeanlab/skyrecords/internal/store"
	"github.com/alfredjeanlab/skyrecords/internal/uitemplate"
)

// Server holds the record components and the transports' shared state.
type Server struct {
	backend   store.Backend
	templates *uitemplate.DAO
	aliases   *networkalias.DAO
	publisher events.Publisher
	metrics   *metrics.Recorder
	registry  *prom.Registry
	health    *health.Server
	hub       *streamHub
	logger    *slog.Logger
}

// Options configures a Server. The zero value is usable.
type Options struct {
	// Publisher receives change events. Nil publishes nothing.
	Publisher events.Publisher
	// Registry enables metrics and GET /metrics when set.
	Registry *prom.Registry
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New returns a Server over b. The caller keeps ownership of b and of the
// publisher and closes them after the transports have stopped.
func New(b store.Backend, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}

	var rec *metrics.Recorder
	if opts.Registry != nil {
		rec = metrics.NewRecorder(opts.Registry)
		b = metrics.InstrumentBackend(b, rec)
	}

	return &Server{
		backend:   b,
		templates: uitemplate.NewDAO(b, logger),
		aliases:   networkalias.NewDAO(b, logger),
		publisher: publisher,
		metrics:   rec,
		registry:  opts.Registry,
		health:    health.NewServer(),
		hub:       newStreamHub(streamReplaySize),
		logger:    logger,
	}
}

// publish sends the event built by build on topic to SSE clients and the
// publisher. Publishing is best-effort; failures are logged and never fail
// the write that caused it.
func (s *Server) publish(ctx context.Context, topic string, build func(events.Header) any) {
	h, err := events.NewHeader(topic)
	if err != nil {
		s.logger.Warn("failed to create event header", "topic", topic, "error", err)
		return
	}
	event := build(h)
	if data, err := json.Marshal(event); err != nil {
		s.logger.Warn("failed to encode event for stream", "topic", topic, "error", err)
	} else {
		s.hub.broadcast(topic, data)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "event_id", h.EventID, "error", err)
		return
	}
	s.metrics.IncEvent(topic)
}

// Templates returns the template component the server writes through.
func (s *Server) Templates() *uitemplate.DAO { return s.templates }

// Aliases returns the alias component the server writes through.
func (s *Server) Aliases() *networkalias.DAO { return s.aliases }

// Metrics returns the server's recorder, nil when metrics are disabled.
func (s *Server) Metrics() *metrics.Recorder { return s.metrics }
