package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shuttleclub/internal/logger"
)

// DefaultSlowRequest applies when no threshold is configured.
const DefaultSlowRequest = 200 * time.Millisecond

// RequestObserver receives the outcome of every timed request. route is the
// pattern that serves the request, or "" when none does.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Router resolves the pattern a request will be dispatched to.
// *http.ServeMux implements it.
type Router interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// routePattern resolves the pattern before any outer middleware can
// short-circuit the request.
func routePattern(routes Router, r *http.Request) string {
	if routes == nil {
		return ""
	}
	_, pattern := routes.Handler(r)
	return pattern
}

// responseRecorder remembers the status and body size written through it.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// requestLevel picks the log level for a finished request: ERROR for 5xx,
// WARN when slow, DEBUG otherwise.
func requestLevel(status int, d, threshold time.Duration) (slog.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError, "request_failed"
	case d >= threshold:
		return slog.LevelWarn, "slow_request"
	}
	return slog.LevelDebug, "request"
}

// Timing logs and observes every request except static assets.
// A zero threshold means DefaultSlowRequest; observer and routes may be nil.
func Timing(observer RequestObserver, threshold time.Duration, routes Router) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			route := routePattern(routes, r)
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			d := time.Since(start)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			level, msg := requestLevel(rec.status, d, threshold)
			logger.FromContext(r.Context()).Log(r.Context(), level, msg,
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", float64(d.Microseconds())/1000.0,
			)
			if observer != nil {
				observer.ObserveRequest(r.Method, route, rec.status, d)
			}
		})
	}
}
