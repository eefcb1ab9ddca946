// Package device implements the Device Task (C5): the per-connection
// goroutine that owns one client socket and either runs the Controller
// Engine (NCIDevice) or shuttles RF frames to and from the fabric
// (RFDevice), grounded on original_source/tools/casimir/src/main.rs's
// Device/Scene split, generalized to two independent TCP listeners per
// spec.md §4.5/§6.
package device

import (
	"io"
	"sync"

	"github.com/dotside-studios/nci-simulator/internal/rf"
)

// rfIngressCapacity bounds the per-device RF inbox. spec.md §5: "Device
// channels are SPSC for RF ingress and have bounded capacity (2) to apply
// backpressure on sluggish peers."
const rfIngressCapacity = 2

// base holds the bookkeeping shared by NCIDevice and RFDevice: the
// assigned slot id, the goroutine's completion signal, and its terminal
// error, satisfying internal/scene.Device.
type base struct {
	id   uint16
	once sync.Once
	done chan struct{}
	err  error
}

func newBase(id uint16) base {
	return base{id: id, done: make(chan struct{})}
}

func (b *base) ID() uint16            { return b.id }
func (b *base) Done() <-chan struct{} { return b.done }
func (b *base) Err() error            { return b.err }

func (b *base) finish(err error) {
	b.once.Do(func() {
		b.err = err
		close(b.done)
	})
}

// Conn is the subset of net.Conn a Device Task needs: a closable
// bidirectional stream. Accepting this instead of net.Conn keeps the
// package testable against in-memory pipes.
type Conn interface {
	io.ReadWriteCloser
}

// rfInbox is the SPSC channel the Scene delivers frames into. It
// satisfies internal/scene.Device.Deliver's non-blocking contract and
// stops accepting deliveries once the owning device has exited, so the
// Scene observing a stale slot during the reap window never panics on a
// closed channel.
type rfInbox struct {
	mu     sync.Mutex
	ch     chan rf.Packet
	closed bool
}

func newRFInbox() *rfInbox { return &rfInbox{ch: make(chan rf.Packet, rfIngressCapacity)} }

func (i *rfInbox) Deliver(p rf.Packet) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false
	}
	select {
	case i.ch <- p:
		return true
	default:
		return false
	}
}

func (i *rfInbox) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.closed {
		i.closed = true
		close(i.ch)
	}
}

// fabric is the subset of *scene.Scene a Device Task needs: submitting a
// frame for routing. A narrow interface avoids device importing scene's
// Builder/Device machinery it doesn't use.
type fabric interface {
	Send(packet rf.Packet)
}
