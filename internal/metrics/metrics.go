// Package metrics defines the Prometheus collectors exposed by the
// admin surface (A4), registered against a private registry so tests and
// multiple simulator instances never collide on prometheus's global
// DefaultRegisterer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Direction labels traffic counters by who originated the packet.
type Direction string

const (
	DirectionInbound  Direction = "in"
	DirectionOutbound Direction = "out"
)

// Metrics holds every collector this simulator exposes. Nil-safe: a
// handler built on a nil *Metrics silently does nothing, so components
// wired without an admin server don't need to guard every call site.
type Metrics struct {
	Registry *prometheus.Registry

	NCIDevicesConnected prometheus.Gauge
	RFDevicesConnected  prometheus.Gauge
	NCIPacketsTotal     *prometheus.CounterVec
	RFFramesTotal       *prometheus.CounterVec
	NCICommandTotal     *prometheus.CounterVec
}

// New constructs and registers the full collector set.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		NCIDevicesConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nci_devices_connected",
			Help: "Number of currently connected NCI devices.",
		}),
		RFDevicesConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rf_devices_connected",
			Help: "Number of currently connected RF-only devices.",
		}),
		NCIPacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nci_packets_total",
			Help: "Total NCI packets processed, by direction.",
		}, []string{"direction"}),
		RFFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rf_frames_total",
			Help: "Total RF frames routed by the fabric, by direction.",
		}, []string{"direction"}),
		NCICommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nci_command_total",
			Help: "Total NCI commands handled, by opcode and resulting status.",
		}, []string{"opcode", "status"}),
	}

	reg.MustRegister(
		m.NCIDevicesConnected,
		m.RFDevicesConnected,
		m.NCIPacketsTotal,
		m.RFFramesTotal,
		m.NCICommandTotal,
	)
	return m
}

func (m *Metrics) DeviceConnected(kind string) {
	if m == nil {
		return
	}
	switch kind {
	case "nci":
		m.NCIDevicesConnected.Inc()
	case "rf":
		m.RFDevicesConnected.Inc()
	}
}

func (m *Metrics) DeviceDisconnected(kind string) {
	if m == nil {
		return
	}
	switch kind {
	case "nci":
		m.NCIDevicesConnected.Dec()
	case "rf":
		m.RFDevicesConnected.Dec()
	}
}

func (m *Metrics) PacketObserved(dir Direction) {
	if m == nil {
		return
	}
	m.NCIPacketsTotal.WithLabelValues(string(dir)).Inc()
}

func (m *Metrics) FrameRouted(dir Direction) {
	if m == nil {
		return
	}
	m.RFFramesTotal.WithLabelValues(string(dir)).Inc()
}

func (m *Metrics) CommandHandled(opcode string, status string) {
	if m == nil {
		return
	}
	m.NCICommandTotal.WithLabelValues(opcode, status).Inc()
}
