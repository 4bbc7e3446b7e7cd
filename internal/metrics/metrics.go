// Package metrics exposes Prometheus instruments for the session server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "playersession"

// Request status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the server's collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	ConnectionsTotal  *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
	LoggedInPlayers   prometheus.Gauge
	PersistFailures   *prometheus.CounterVec
}

// New creates a private registry with Go and process collectors plus the server metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the server metrics on reg
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of protocol requests by type and status",
			},
			[]string{"type", "status"},
		),
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_total",
				Help:      "Total number of connection events by kind",
			},
			[]string{"event"},
		),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of open client connections",
		}),
		LoggedInPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "logged_in_players",
			Help:      "Number of usernames currently logged in",
		}),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Total number of failed document writes",
			},
			[]string{"document"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.ConnectionsTotal,
		m.ActiveConnections,
		m.LoggedInPlayers,
		m.PersistFailures,
	)
	return m
}

// Registry returns the registry to serve on /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RequestCompleted counts a handled protocol request
func (m *Metrics) RequestCompleted(requestType, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(requestType, status).Inc()
}

// ConnectionOpened counts a connect and bumps the active gauge
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues("connect").Inc()
	m.ActiveConnections.Inc()
}

// ConnectionClosed counts a disconnect and drops the active gauge
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues("disconnect").Inc()
	m.ActiveConnections.Dec()
}

// ConnectionRejected counts a connection refused at capacity
func (m *Metrics) ConnectionRejected() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues("rejected").Inc()
}

// SetLoggedIn reports the size of the logged-in set
func (m *Metrics) SetLoggedIn(n int) {
	if m == nil {
		return
	}
	m.LoggedInPlayers.Set(float64(n))
}

// PersistFailed counts a failed write of document
func (m *Metrics) PersistFailed(document string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(document).Inc()
}
