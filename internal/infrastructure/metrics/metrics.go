// Package metrics exposes Prometheus collectors for Acre Intrusion Core.
//
// All collectors live on a private registry served by Handler. Every
// method is safe on a nil *Metrics, so components can run without it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "acre"

// Command and verification outcomes used as label values.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Metrics holds the process's collectors.
type Metrics struct {
	registry *prometheus.Registry

	alarmCommands    *prometheus.CounterVec
	pinVerifications *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	areaState        *prometheus.GaugeVec
	credentials      prometheus.Gauge
	wsClients        prometheus.Gauge
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		alarmCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_commands_total",
			Help:      "Arm and disarm requests by action and result.",
		}, []string{"action", "result"}),
		pinVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_verifications_total",
			Help:      "PIN verifications by purpose and result.",
		}, []string{"purpose", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_rate_limited_total",
			Help:      "PIN attempts refused by the rate limiter, by route.",
		}, []string{"route"}),
		areaState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "area_state",
			Help:      "1 for the current alarm state of each area, 0 otherwise.",
		}, []string{"area_id", "state"}),
		credentials: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "credentials",
			Help:      "Stored user credentials, admin excluded.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.alarmCommands,
		m.pinVerifications,
		m.rateLimited,
		m.areaState,
		m.credentials,
		m.wsClients,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AlarmCommand counts one arm/disarm request.
func (m *Metrics) AlarmCommand(action, result string) {
	if m == nil {
		return
	}
	m.alarmCommands.WithLabelValues(action, result).Inc()
}

// PINVerification counts one verification. purpose is e.g. "alarm" or "unlock".
func (m *Metrics) PINVerification(purpose string, ok bool) {
	if m == nil {
		return
	}
	result := ResultAccepted
	if !ok {
		result = ResultRejected
	}
	m.pinVerifications.WithLabelValues(purpose, result).Inc()
}

// RateLimited counts one refused attempt on route.
func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// SetAreaState marks state as current for areaID among states.
func (m *Metrics) SetAreaState(areaID, state string, states []string) {
	if m == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		m.areaState.WithLabelValues(areaID, s).Set(v)
	}
}

// SetCredentials records the number of stored user credentials.
func (m *Metrics) SetCredentials(n int) {
	if m == nil {
		return
	}
	m.credentials.Set(float64(n))
}

// SetWebSocketClients records the number of connected WebSocket clients.
func (m *Metrics) SetWebSocketClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}
