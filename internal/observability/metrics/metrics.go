// Package metrics exposes the application's Prometheus collectors.
// All methods are safe to call on a nil *Registry, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	obserrors "github.com/target/courseshop/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Registry owns a dedicated Prometheus registry and the application collectors.
type Registry struct {
	reg *prometheus.Registry

	sessionLoads    *prometheus.CounterVec
	sessionWrites   *prometheus.CounterVec
	sessionErrors   *prometheus.CounterVec
	sessionsSwept   prometheus.Counter
	csrfRejections  prometheus.Counter
	uploadRejected  *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New builds a registry with Go runtime and process collectors plus the application metrics.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		sessionLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "session_loads_total",
			Help:      "Session lookups by result.",
		}, []string{"result"}),
		sessionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "session_writes_total",
			Help:      "Session store writes by operation.",
		}, []string{"op"}),
		sessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "session_store_errors_total",
			Help:      "Session store failures by operation and error class.",
		}, []string{"op", "error_class"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "sessions_swept_total",
			Help:      "Expired sessions removed by the sweeper.",
		}),
		csrfRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "csrf_rejections_total",
			Help:      "Requests rejected for a missing or invalid verification token.",
		}),
		uploadRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "upload_rejections_total",
			Help:      "Avatar uploads rejected by HTTP status.",
		}, []string{"status"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseshop",
			Name:      "request_errors_total",
			Help:      "Errors rendered by the error boundary by class.",
		}, []string{"error_class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "courseshop",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.sessionLoads,
		r.sessionWrites,
		r.sessionErrors,
		r.sessionsSwept,
		r.csrfRejections,
		r.uploadRejected,
		r.requestErrors,
		r.requestDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// SessionLoad records a session lookup outcome.
func (r *Registry) SessionLoad(result string) {
	if r == nil {
		return
	}
	r.sessionLoads.WithLabelValues(result).Inc()
}

// SessionWrite records a successful save or delete.
func (r *Registry) SessionWrite(op string) {
	if r == nil {
		return
	}
	r.sessionWrites.WithLabelValues(op).Inc()
}

// SessionError records a failed store operation.
func (r *Registry) SessionError(op string, err error) {
	if r == nil || err == nil {
		return
	}
	r.sessionErrors.WithLabelValues(op, obserrors.Classify(err)).Inc()
}

// SessionsSwept adds to the swept-session counter.
func (r *Registry) SessionsSwept(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.sessionsSwept.Add(float64(n))
}

// CSRFRejected counts a verification failure.
func (r *Registry) CSRFRejected() {
	if r == nil {
		return
	}
	r.csrfRejections.Inc()
}

// UploadRejected counts an avatar rejection by status.
func (r *Registry) UploadRejected(status int) {
	if r == nil {
		return
	}
	r.uploadRejected.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RequestError counts an error rendered by the boundary.
func (r *Registry) RequestError(err error) {
	if r == nil || err == nil {
		return
	}
	r.requestErrors.WithLabelValues(obserrors.Classify(err)).Inc()
}

// ObserveRequest records request latency.
func (r *Registry) ObserveRequest(method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
