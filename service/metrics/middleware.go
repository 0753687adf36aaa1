package metrics

import (
	"net/http"
	"time"
)

// statusRecorder captures the status code written by the wrapped handler.
// Handlers that never call WriteHeader implicitly respond 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments a handler with request count and latency
// metrics. handlerName must be a fixed route identifier, not the raw request
// path, so the label cardinality stays bounded. A nil Metrics disables
// recording without changing behavior.
func HTTPMetricsMiddleware(m *Metrics, handlerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if m != nil {
				m.RecordHTTPRequest(handlerName, r.Method, rec.status, time.Since(start).Seconds())
			}
		})
	}
}
