// Package metrics exposes Prometheus instrumentation for the record store
// and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder holds the skyrecords metric families. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	backendDuration *prom.HistogramVec
	backendOps      *prom.CounterVec
	httpRequests    *prom.CounterVec
	events          *prom.CounterVec
	backendUp       prom.Gauge
	syncRuns        *prom.CounterVec
}

// NewRecorder constructs the metrics and registers them on reg. A nil reg
// gets a fresh private registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{}
	r.backendDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "skyrecords",
		Name:      "backend_operation_duration_seconds",
		Help:      "Duration of record backend operations",
		Buckets:   prom.DefBuckets,
	}, []string{"operation"})
	r.backendOps = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "skyrecords",
		Name:      "backend_operations_total",
		Help:      "Record backend operations by outcome",
	}, []string{"operation", "result"})
	r.httpRequests = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "skyrecords",
		Name:      "http_requests_total",
		Help:      "HTTP API requests by route and status code",
	}, []string{"method", "route", "code"})
	r.events = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "skyrecords",
		Name:      "events_published_total",
		Help:      "Change events handed to the publisher",
	}, []string{"topic"})
	r.backendUp = prom.NewGauge(prom.GaugeOpts{
		Namespace: "skyrecords",
		Name:      "backend_up",
		Help:      "Whether the last backend health check succeeded",
	})
	r.syncRuns = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "skyrecords",
		Name:      "sync_runs_total",
		Help:      "Export runs by destination and outcome",
	}, []string{"destination", "result"})
	reg.MustRegister(r.backendDuration, r.backendOps, r.httpRequests, r.events, r.backendUp, r.syncRuns)
	return r
}

// ObserveBackend records one backend operation.
func (r *Recorder) ObserveBackend(op string, d time.Duration, err error) {
	if r == nil || r.backendDuration == nil {
		return
	}
	r.backendDuration.WithLabelValues(op).Observe(d.Seconds())
	r.backendOps.WithLabelValues(op, result(err)).Inc()
}

// IncHTTPRequest counts one served HTTP request.
func (r *Recorder) IncHTTPRequest(method, route string, code int) {
	if r == nil || r.httpRequests == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, statusLabel(code)).Inc()
}

// IncEvent counts one published change event.
func (r *Recorder) IncEvent(topic string) {
	if r == nil || r.events == nil {
		return
	}
	r.events.WithLabelValues(topic).Inc()
}

// SetBackendUp records the result of a backend health check.
func (r *Recorder) SetBackendUp(up bool) {
	if r == nil || r.backendUp == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	r.backendUp.Set(v)
}

// IncSyncRun counts one export to a destination.
func (r *Recorder) IncSyncRun(destination string, err error) {
	if r == nil || r.syncRuns == nil {
		return
	}
	r.syncRuns.WithLabelValues(destination, result(err)).Inc()
}

// Handler serves the metrics registered on reg.
func Handler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
