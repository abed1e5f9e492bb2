package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

// SlowRequest is the latency above which a request is logged as slow.
const SlowRequest = 2 * time.Second

// knownRoutes are labelled by path. Every other path shares the label
// "other" so scanners cannot inflate label cardinality.
var knownRoutes = map[string]bool{
	"/":                        true,
	"/api/v1/search":           true,
	"/api/v1/reload":           true,
	"/api/v1/cache/stats":      true,
	"/api/v1/cache/invalidate": true,
	"/api/v1/analytics":        true,
	"/api/v1/analytics/reset":  true,
	"/health/live":             true,
	"/health/ready":            true,
}

// Metrics records request count, latency and the in-flight gauge. Server
// errors and slow requests are also logged with the request's attributes.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			path := normalizePath(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())

			switch {
			case sw.status >= 500:
				logger.FromContext(r.Context()).Error("request failed",
					"status", sw.status, "duration", elapsed, "bytes", sw.bytes)
			case elapsed > SlowRequest:
				logger.FromContext(r.Context()).Warn("slow request",
					"status", sw.status, "duration", elapsed, "bytes", sw.bytes)
			}
		})
	}
}

// statusWriter records the status and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

func normalizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if knownRoutes[path] {
		return path
	}
	if path == "" {
		return "/"
	}
	return "other"
}
