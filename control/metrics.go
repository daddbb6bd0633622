// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors fed by connection events.

package control

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentics/pollws/api"
)

// Metrics holds the connection collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	FramesTotal       *prometheus.CounterVec
	BytesTotal        *prometheus.CounterVec
	HandshakeFailures prometheus.Counter
	ClosedTotal       *prometheus.CounterVec
}

var _ api.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pollws_connections_active",
			Help: "Connections that completed the handshake and are not closed yet",
		}),
		FramesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pollws_frames_total",
			Help: "Frames moved per direction and opcode",
		}, []string{"direction", "opcode"}),
		BytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pollws_bytes_total",
			Help: "Raw transport bytes per direction",
		}, []string{"direction"}),
		HandshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollws_handshake_failures_total",
			Help: "Handshakes aborted by timeout, malformed lines or I/O errors",
		}),
		ClosedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pollws_connection_closed_total",
			Help: "Connections closed, by reason",
		}, []string{"reason"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Frame(dir api.Direction, opcode string, _ int) {
	m.FramesTotal.WithLabelValues(string(dir), opcode).Inc()
}

func (m *Metrics) Bytes(dir api.Direction, n int) {
	m.BytesTotal.WithLabelValues(string(dir)).Add(float64(n))
}

func (m *Metrics) Opened() {
	m.ConnectionsActive.Inc()
}

func (m *Metrics) Closed(reason string, wasOpen bool) {
	m.ClosedTotal.WithLabelValues(reason).Inc()
	if wasOpen {
		m.ConnectionsActive.Dec()
	}
}

func (m *Metrics) HandshakeFailed() {
	m.HandshakeFailures.Inc()
}
