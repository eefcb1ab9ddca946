package hostflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

func TestSessionInitSendsResetThenInit(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)
	sess := Enable(hal, incoming, nil, discardLogger())
	defer sess.Disable()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initDone := make(chan error, 1)
	go func() { initDone <- sess.Init(ctx) }()

	deadline := time.Now().Add(time.Second)
	for hal.writes() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	incoming <- response(ncipdu.OidCoreReset)
	incoming <- notification(ncipdu.OidCoreReset)

	deadline = time.Now().Add(time.Second)
	for hal.writes() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := hal.writes(); n != 2 {
		t.Fatalf("hal saw %d writes, want 2 (reset then init)", n)
	}
	incoming <- response(ncipdu.OidCoreInit)

	select {
	case err := <-initDone:
		if err != nil {
			t.Fatalf("Init returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Init never completed")
	}
}

func TestSessionDeliversUnsolicitedPacketsToCallback(t *testing.T) {
	hal := &fakeHAL{}
	incoming := make(chan []byte, 4)

	var mu sync.Mutex
	var events []uint16
	callback := func(event uint16, _ []byte) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	}

	sess := Enable(hal, incoming, callback, discardLogger())
	defer sess.Disable()

	incoming <- notification(ncipdu.OidCoreReset)

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("callback never invoked for unsolicited notification")
		}
		time.Sleep(time.Millisecond)
	}
}
