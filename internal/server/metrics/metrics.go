// Package metrics exposes Prometheus collectors for the auth subsystem.
//
// All methods are safe on a nil *Metrics so services can run without them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spendkeeper"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	authOps        *prometheus.CounterVec
	revocations    *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	sweepRemoved   prometheus.Counter
	activeRevoked  prometheus.Gauge
	expiredRevoked prometheus.Gauge
}

// New builds a Metrics bound to its own registry. Go runtime and process
// collectors are registered alongside.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Auth operations by name and result.",
		}, []string{"op", "result"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "revoked_total",
			Help:      "Revoke calls by outcome (stored, duplicate, expired, undecodable, error).",
		}, []string{"outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "store_errors_total",
			Help:      "Revocation store failures by operation.",
		}, []string{"op"}),
		sweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "swept_total",
			Help:      "Expired revocation records removed by sweeps.",
		}),
		activeRevoked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "active_records",
			Help:      "Revocation records not yet expired, as of the last stats read.",
		}),
		expiredRevoked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "expired_records",
			Help:      "Expired revocation records awaiting a sweep, as of the last stats read.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authOps,
		m.revocations,
		m.storeErrors,
		m.sweepRemoved,
		m.activeRevoked,
		m.expiredRevoked,
	)
	return m
}

func (m *Metrics) AuthOp(op, result string) {
	if m == nil {
		return
	}
	m.authOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Revocation(outcome string) {
	if m == nil {
		return
	}
	m.revocations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) Swept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepRemoved.Add(float64(n))
}

func (m *Metrics) RevocationStats(active, expired int64) {
	if m == nil {
		return
	}
	m.activeRevoked.Set(float64(active))
	m.expiredRevoked.Set(float64(expired))
}

// Registry is nil for a nil receiver.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewMux routes /metrics and a plain /healthz liveness probe.
func NewMux(m *Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
