// Package telemetry exposes Prometheus counters for chat operations and
// an HTTP middleware recording request durations. Metrics are served from
// /metrics via promhttp.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpCounter counts domain operations by name and outcome.
	OpCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conversadb_ops_total",
		Help: "Chat operations by name and outcome.",
	}, []string{"op", "outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conversadb_http_request_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conversadb_ws_users",
		Help: "Distinct users with an open websocket.",
	})
)

// CountOp records one operation outcome; outcome is "ok" or "error".
func CountOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OpCounter.WithLabelValues(op, outcome).Inc()
}

// SetWSUsers updates the connected-users gauge.
func SetWSUsers(n int) {
	wsConnections.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware wraps next and records request duration per method and status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// websocket upgrades need the raw ResponseWriter for hijacking
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
