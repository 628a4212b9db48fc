package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Metrics records request latency and error counts per chi route pattern.
func Metrics(mm *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			mm.APILatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			if recorder.status >= http.StatusBadRequest {
				mm.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			}
		})
	}
}
