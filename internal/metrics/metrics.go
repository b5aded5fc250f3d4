// Package metrics holds the Prometheus collectors shared by the event record binaries.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_records"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ValidationFailures counts rejected candidates by the field and rule reported.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Number of event candidates rejected by validation",
		},
		[]string{"field", "rule"},
	)

	// InstancesMaterialized counts recurring instances created from base events.
	InstancesMaterialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_materialized_total",
			Help:      "Number of recurring event instances materialized",
		},
	)

	// AuditPublished counts audit records relayed to the stream.
	AuditPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_published_total",
			Help:      "Number of audit records published to the audit stream",
		},
	)

	// AuditPublishFailures counts audit records left pending after a failed publish or mark.
	AuditPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publish_failures_total",
			Help:      "Number of audit records that failed to publish",
		},
	)
)

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Serve exposes Handler on addr until ctx is done. Workers without an API port use it.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down metrics server", slog.String("error", err.Error()))
		}
	}()

	slog.Info("serving metrics", slog.String("addr", addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", slog.String("error", err.Error()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records request count and latency for next under the route label path.
// The registered pattern is used instead of the raw URL so query strings never become labels.
func Instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		status := strconv.Itoa(rec.status)
		requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(r.Method, path, status).Inc()
	}
}
