package providers

import (
	"net/http"
	"strings"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := endpointLabel(r)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
	})
}

// endpointLabel keeps the per-endpoint label space bounded. After dispatch
// the mux has filled in the matched pattern, so "/readings/42" is reported
// as "/readings/{id}" instead of one series per reading id.
func endpointLabel(r *http.Request) string {
	if p := r.Pattern; p != "" {
		if _, pattern, found := strings.Cut(p, " "); found {
			return pattern
		}
		return p
	}
	return normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint collapses purely numeric path segments for requests
// that never matched a mux pattern.
func normalizeEndpoint(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s != "" && isDigits(s) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
