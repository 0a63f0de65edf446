package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/azureanc-hub/filevault/internal/logger"
	"github.com/azureanc-hub/filevault/pkg/registry"
)

// errorBody is the JSON error envelope. Code carries the registry error
// code name so clients can distinguish a non-fatal AccessDenied (render
// "no files") from a rejected Unauthorized or InvalidIdentity operation;
// the status code alone does not.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps a registry error onto an HTTP response.
func writeError(w http.ResponseWriter, err error) {
	code, ok := registry.CodeOf(err)
	if !ok {
		logger.Error("internal error: %v", err)
		body := errorBody{}
		body.Error.Code = "INTERNAL"
		body.Error.Message = "internal error"
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	status := http.StatusInternalServerError
	switch code {
	case registry.ErrNotFound:
		status = http.StatusNotFound
	case registry.ErrUnauthorized, registry.ErrAccessDenied:
		status = http.StatusForbidden
	case registry.ErrSelfGrant, registry.ErrInvalidIdentity, registry.ErrInvalidArgument:
		status = http.StatusBadRequest
	}

	body := errorBody{}
	body.Error.Code = code.String()
	body.Error.Message = err.Error()
	writeJSON(w, status, body)
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with latency and outcome collection under the
// given logical operation name.
func (s *Server) instrument(operation string, next http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		s.metrics.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		s.metrics.RequestsTotal.WithLabelValues(operation, strconv.Itoa(rec.status)).Inc()
	}
}

// rateLimit rejects requests over the per-caller budget with 429. Callers
// are keyed by identity header when present, remote address otherwise, so
// unauthenticated probing shares one bucket per source.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(identityHeader)
		if caller == "" {
			caller = r.RemoteAddr
		}
		if !s.limiter.Allow(caller) {
			body := errorBody{}
			body.Error.Code = "RATE_LIMITED"
			body.Error.Message = "request rate limit exceeded"
			writeJSON(w, http.StatusTooManyRequests, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests is the access log middleware.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
