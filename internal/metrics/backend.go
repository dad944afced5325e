package metrics

import (
	"context"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// Backend wraps a store.Backend and records the duration and outcome of
// every call on a Recorder.
type Backend struct {
	next store.Backend
	rec  *Recorder
}

var _ store.Backend = (*Backend)(nil)

// InstrumentBackend returns b wrapped with metrics. A nil rec returns b as is.
func InstrumentBackend(b store.Backend, rec *Recorder) store.Backend {
	if rec == nil {
		return b
	}
	return &Backend{next: b, rec: rec}
}

func (b *Backend) observe(op string, start time.Time, err error) {
	b.rec.ObserveBackend(op, time.Since(start), err)
}

func (b *Backend) StorageGroup() string { return b.next.StorageGroup() }

func (b *Backend) Query(ctx context.Context, q store.Query) (rows []store.Row, err error) {
	start := time.Now()
	defer func() { b.observe("query", start, err) }()
	return b.next.Query(ctx, q)
}

func (b *Backend) Write(ctx context.Context, req *store.WriteRequest) (err error) {
	start := time.Now()
	defer func() { b.observe("write", start, err) }()
	return b.next.Write(ctx, req)
}

// RunInTransaction instruments the transaction as a whole and every call
// made through the transaction-bound backend.
func (b *Backend) RunInTransaction(ctx context.Context, fn func(tx store.Backend) error) (err error) {
	start := time.Now()
	defer func() { b.observe("transaction", start, err) }()
	return b.next.RunInTransaction(ctx, func(tx store.Backend) error {
		return fn(&Backend{next: tx, rec: b.rec})
	})
}

func (b *Backend) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { b.observe("ping", start, err) }()
	return b.next.Ping(ctx)
}

func (b *Backend) Close() error { return b.next.Close() }
