package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDeviceConnectedAdjustsGauge(t *testing.T) {
	m := New()
	m.DeviceConnected("nci")
	m.DeviceConnected("nci")
	m.DeviceDisconnected("nci")

	if got := testutil.ToFloat64(m.NCIDevicesConnected); got != 1 {
		t.Fatalf("nci_devices_connected = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.DeviceConnected("nci")
	m.DeviceDisconnected("rf")
	m.PacketObserved(DirectionInbound)
	m.FrameRouted(DirectionOutbound)
	m.CommandHandled("core_reset", "ok")
}

func TestPacketsTotalLabelsByDirection(t *testing.T) {
	m := New()
	m.PacketObserved(DirectionInbound)
	m.PacketObserved(DirectionInbound)
	m.PacketObserved(DirectionOutbound)

	if got := testutil.ToFloat64(m.NCIPacketsTotal.WithLabelValues(string(DirectionInbound))); got != 2 {
		t.Fatalf("inbound packets = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.NCIPacketsTotal.WithLabelValues(string(DirectionOutbound))); got != 1 {
		t.Fatalf("outbound packets = %v, want 1", got)
	}
}
