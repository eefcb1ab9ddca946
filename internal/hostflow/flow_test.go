package hostflow

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// fakeHAL records every write and lets the test script a Response/
// Notification back through the controller's incoming channel on demand.
type fakeHAL struct {
	mu   sync.Mutex
	sent [][]byte
}

func (h *fakeHAL) Write(packet []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]byte, len(packet))
	copy(cp, packet)
	h.sent = append(h.sent, cp)
	return nil
}

func (h *fakeHAL) writes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}

func response(oid uint8) []byte {
	return ncipdu.BuildControlPacket(ncipdu.MessageTypeResponse, ncipdu.GroupIDCore, oid, []byte{0x00})
}

func notification(oid uint8) []byte {
	return ncipdu.BuildControlPacket(ncipdu.MessageTypeNotification, ncipdu.GroupIDCore, oid, []byte{0x01})
}

func command(oid uint8) []byte {
	return ncipdu.BuildControlPacket(ncipdu.MessageTypeCommand, ncipdu.GroupIDCore, oid, nil)
}

func TestSendWaitsForResponse(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)
	fc := New(hal, incoming, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fc.Run(ctx)

	done := make(chan []byte, 1)
	go func() {
		resp, err := fc.Send(ctx, command(ncipdu.OidCoreReset))
		if err != nil {
			t.Error(err)
		}
		done <- resp
	}()

	deadline := time.Now().Add(time.Second)
	for hal.writes() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if hal.writes() != 1 {
		t.Fatalf("hal saw %d writes before response, want 1", hal.writes())
	}

	incoming <- response(ncipdu.OidCoreReset)

	select {
	case resp := <-done:
		if resp == nil {
			t.Fatal("Send returned a nil response")
		}
	case <-time.After(time.Second):
		t.Fatal("Send never returned")
	}
}

// TestAtMostOneCommandInFlight is the Host flow testable property: a
// second command enqueued while the first is outstanding must not reach
// the HAL until the first's Response arrives.
func TestAtMostOneCommandInFlight(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)
	fc := New(hal, incoming, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fc.Run(ctx)

	firstDone := make(chan struct{})
	go func() {
		fc.Send(ctx, command(ncipdu.OidCoreReset))
		close(firstDone)
	}()
	secondDone := make(chan struct{})
	go func() {
		fc.Send(ctx, command(ncipdu.OidCoreInit))
		close(secondDone)
	}()

	time.Sleep(10 * time.Millisecond)
	if n := hal.writes(); n != 1 {
		t.Fatalf("hal saw %d writes before any response, want exactly 1", n)
	}

	incoming <- response(ncipdu.OidCoreReset)
	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("first Send never completed")
	}

	deadline := time.Now().Add(time.Second)
	for hal.writes() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := hal.writes(); n != 2 {
		t.Fatalf("hal saw %d writes after first response, want 2", n)
	}

	incoming <- response(ncipdu.OidCoreInit)
	select {
	case <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("second Send never completed")
	}
}

func TestOutstandingCommandTimeoutUnblocksQueue(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)
	fc := New(hal, incoming, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fc.Run(ctx)

	start := time.Now()
	resp, err := fc.Send(ctx, command(ncipdu.OidCoreReset))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected a nil response on timeout, got %v", resp)
	}
	if elapsed := time.Since(start); elapsed < outstandingCommandTimeout {
		t.Fatalf("Send returned after %v, want at least %v", elapsed, outstandingCommandTimeout)
	}

	// the queue must still be usable for the next command.
	secondDone := make(chan []byte, 1)
	go func() {
		resp, err := fc.Send(ctx, command(ncipdu.OidCoreInit))
		if err != nil {
			t.Error(err)
		}
		secondDone <- resp
	}()

	deadline := time.Now().Add(time.Second)
	for hal.writes() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := hal.writes(); n != 2 {
		t.Fatalf("hal saw %d writes, want 2", n)
	}
	incoming <- response(ncipdu.OidCoreInit)

	select {
	case resp := <-secondDone:
		if resp == nil {
			t.Fatal("expected a response after the prior timeout cleared the slot")
		}
	case <-time.After(time.Second):
		t.Fatal("second Send never completed")
	}
}

func TestSendAndNotifyCorrelatesFirstNotificationOnly(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)
	fc := New(hal, incoming, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fc.Run(ctx)

	type result struct {
		resp   []byte
		notify <-chan []byte
	}
	resultCh := make(chan result, 1)
	go func() {
		resp, notify, err := fc.SendAndNotify(ctx, command(ncipdu.OidRfDiscover))
		if err != nil {
			t.Error(err)
		}
		resultCh <- result{resp, notify}
	}()

	deadline := time.Now().Add(time.Second)
	for hal.writes() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	incoming <- response(ncipdu.OidRfDiscover)

	var r result
	select {
	case r = <-resultCh:
	case <-time.After(time.Second):
		t.Fatal("SendAndNotify never returned")
	}

	incoming <- notification(ncipdu.OidRfDiscover)
	select {
	case n := <-r.notify:
		if n == nil {
			t.Fatal("correlated notification channel delivered nil")
		}
	case <-time.After(time.Second):
		t.Fatal("correlated notification never arrived")
	}

	// a second, uncorrelated notification must land on Upstream instead.
	incoming <- notification(ncipdu.OidRfDiscover)
	select {
	case n := <-fc.Upstream():
		if n == nil {
			t.Fatal("upstream delivery was nil")
		}
	case <-time.After(time.Second):
		t.Fatal("second notification never reached Upstream")
	}
}

func TestSendDataBypassesQueue(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 1)
	fc := New(hal, incoming, discardLogger())

	data := ncipdu.BuildControlPacket(ncipdu.MessageTypeData, ncipdu.GroupIDCore, 0, []byte{0xAA})
	if err := fc.SendData(data); err != nil {
		t.Fatalf("SendData: %v", err)
	}
	if hal.writes() != 1 {
		t.Fatalf("hal saw %d writes, want 1", hal.writes())
	}
}
