package restapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/GTD-TFS/bus/internal/metrics"
)

// MetricsHandler returns middleware that counts requests and observes
// their latency per method, route pattern, and status. A nil metrics
// bundle yields a no-op wrapper so tests can skip registration.
func MetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start).Seconds()

			// Label on the mux pattern rather than the raw URL so
			// per-stop and per-shape paths collapse into one series.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
