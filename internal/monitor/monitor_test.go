package monitor

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dotside-studios/nci-simulator/internal/metrics"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func startServer(t *testing.T) (*Server, string, func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	s := New(addr, metrics.New(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go s.ListenAndServe(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := net.Dial("tcp", addr); err == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	return s, addr, cancel
}

func TestHealthzReportsOK(t *testing.T) {
	_, addr, cancel := startServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestMetricsExposesPrometheusText(t *testing.T) {
	_, addr, cancel := startServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "nci_devices_connected") {
		t.Fatalf("metrics body missing nci_devices_connected: %s", body)
	}
}

func TestWSBroadcastsEventsToAttachedMonitors(t *testing.T) {
	s, addr, cancel := startServer(t)
	defer cancel()

	wsURL := "ws://" + addr + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// give the server a moment to register the connection before broadcasting.
	time.Sleep(20 * time.Millisecond)
	s.Broadcast(Event{Type: EventDeviceConnected, Payload: map[string]any{"slot": 3}})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != EventDeviceConnected {
		t.Fatalf("event type = %q, want %q", got.Type, EventDeviceConnected)
	}
}
