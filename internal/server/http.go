package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/skyrecords/internal/metrics"
	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/store"
	"github.com/alfredjeanlab/skyrecords/internal/uitemplate"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and
// GET /metrics) must include a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/templates", s.handleListTemplates)
	mux.HandleFunc("POST /v1/templates", s.handleCreateTemplate)
	mux.HandleFunc("GET /v1/templates/{name}", s.handleGetTemplate)
	mux.HandleFunc("PUT /v1/templates/{name}", s.handleChangeTemplate)
	mux.HandleFunc("POST /v1/templates/{name}/disable", s.handleDisableTemplate)
	mux.HandleFunc("GET /v1/aliases", s.handleListAliases)
	mux.HandleFunc("POST /v1/aliases", s.handleSaveAlias)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	if s.registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.registry))
	}
	return AuthMiddleware(authToken, s.countRequests(mux))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// countRequests records every request on the metrics recorder, labelled by
// the matched route pattern.
func (s *Server) countRequests(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.IncHTTPRequest(r.Method, route, sw.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// writeFailure maps a component error onto a response: invalid input is
// 400, a missing template 404, an unreachable backend 503.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, uitemplate.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrBackendIO):
		s.logger.Error("backend unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
