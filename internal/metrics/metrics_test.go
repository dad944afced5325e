package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// counterValue returns the value of the sample in family name whose labels
// include every pair in labels, or -1 if there is none.
func counterValue(t *testing.T, reg *prom.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return -1
}

func TestRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveBackend("query", 10*time.Millisecond, nil)
	r.ObserveBackend("query", 10*time.Millisecond, errors.New("boom"))
	r.IncHTTPRequest("GET", "/v1/templates", 200)
	r.IncHTTPRequest("GET", "/v1/templates", 503)
	r.IncEvent("skyrecords.template.created")
	r.SetBackendUp(true)
	r.IncSyncRun("s3", nil)

	if v := counterValue(t, reg, "skyrecords_backend_operations_total", map[string]string{"operation": "query", "result": "error"}); v != 1 {
		t.Errorf("backend errors = %v, want 1", v)
	}
	if v := counterValue(t, reg, "skyrecords_backend_operation_duration_seconds", map[string]string{"operation": "query"}); v != 2 {
		t.Errorf("backend observations = %v, want 2", v)
	}
	if v := counterValue(t, reg, "skyrecords_http_requests_total", map[string]string{"code": "5xx"}); v != 1 {
		t.Errorf("5xx requests = %v, want 1", v)
	}
	if v := counterValue(t, reg, "skyrecords_backend_up", nil); v != 1 {
		t.Errorf("backend_up = %v, want 1", v)
	}
	if v := counterValue(t, reg, "skyrecords_sync_runs_total", map[string]string{"destination": "s3", "result": "success"}); v != 1 {
		t.Errorf("sync runs = %v, want 1", v)
	}
}

func TestNewRecorder_Registration(t *testing.T) {
	reg := prom.NewRegistry()
	NewRecorder(reg)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, mf := range mfs {
		found = found || mf.GetName() == "skyrecords_backend_up"
	}
	if !found {
		t.Error("backend_up gauge not registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("a second recorder on the same registry registered without conflict")
		}
	}()
	NewRecorder(reg)
}

func TestNewRecorder_SeparateRegistries(t *testing.T) {
	a, b := prom.NewRegistry(), prom.NewRegistry()
	NewRecorder(a).IncEvent("t")
	NewRecorder(b)

	if v := counterValue(t, a, "skyrecords_events_published_total", map[string]string{"topic": "t"}); v != 1 {
		t.Errorf("registry a events = %v, want 1", v)
	}
	if v := counterValue(t, b, "skyrecords_events_published_total", map[string]string{"topic": "t"}); v != -1 {
		t.Errorf("registry b has an events sample %v, want none", v)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.ObserveBackend("query", time.Second, nil)
	r.IncHTTPRequest("GET", "/", 200)
	r.IncEvent("x")
	r.SetBackendUp(false)
	r.IncSyncRun("git", nil)
}

func TestStatusLabel(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 201: "2xx", 304: "3xx", 404: "4xx", 500: "5xx", 503: "5xx"} {
		if got := statusLabel(code); got != want {
			t.Errorf("statusLabel(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewRecorder(reg).IncEvent("skyrecords.alias.saved")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "skyrecords_events_published_total") {
		t.Errorf("metrics output missing events counter:\n%s", body)
	}
}

type fakeBackend struct {
	queryErr error
	inTx     bool
}

func (f *fakeBackend) StorageGroup() string { return "root" }

func (f *fakeBackend) Query(context.Context, store.Query) ([]store.Row, error) {
	return nil, f.queryErr
}

func (f *fakeBackend) Write(context.Context, *store.WriteRequest) error { return nil }

func (f *fakeBackend) RunInTransaction(ctx context.Context, fn func(tx store.Backend) error) error {
	f.inTx = true
	defer func() { f.inTx = false }()
	return fn(f)
}

func (f *fakeBackend) Ping(context.Context) error { return nil }
func (f *fakeBackend) Close() error               { return nil }

func TestInstrumentBackend(t *testing.T) {
	reg := prom.NewRegistry()
	fb := &fakeBackend{queryErr: errors.New("down")}
	b := InstrumentBackend(fb, NewRecorder(reg))
	ctx := context.Background()

	if _, err := b.Query(ctx, store.Query{Collection: "c"}); err == nil {
		t.Fatal("expected query error to pass through")
	}
	if err := b.Write(ctx, &store.WriteRequest{Collection: "c"}); err != nil {
		t.Fatal(err)
	}
	err := b.RunInTransaction(ctx, func(tx store.Backend) error {
		if _, ok := tx.(*Backend); !ok {
			t.Errorf("transaction backend is %T, want instrumented", tx)
		}
		return tx.Write(ctx, &store.WriteRequest{Collection: "c"})
	})
	if err != nil {
		t.Fatal(err)
	}

	if v := counterValue(t, reg, "skyrecords_backend_operations_total", map[string]string{"operation": "query", "result": "error"}); v != 1 {
		t.Errorf("query errors = %v, want 1", v)
	}
	if v := counterValue(t, reg, "skyrecords_backend_operations_total", map[string]string{"operation": "write", "result": "success"}); v != 2 {
		t.Errorf("writes = %v, want 2", v)
	}
	if v := counterValue(t, reg, "skyrecords_backend_operations_total", map[string]string{"operation": "transaction", "result": "success"}); v != 1 {
		t.Errorf("transactions = %v, want 1", v)
	}
	if b.StorageGroup() != "root" {
		t.Errorf("StorageGroup = %q", b.StorageGroup())
	}
}

func TestInstrumentBackend_NilRecorder(t *testing.T) {
	fb := &fakeBackend{}
	if got := InstrumentBackend(fb, nil); got != store.Backend(fb) {
		t.Errorf("expected backend returned unwrapped")
	}
}
