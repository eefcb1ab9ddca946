// Package scene implements the Scene / Fabric (C6): a fixed-capacity
// device registry and RF frame router, grounded on
// original_source/tools/casimir/src/main.rs's Scene (there a single
// in-process struct multiplexing NCI and RF on one port; generalized here
// to route real RF wire frames between independently connected RF
// devices).
package scene

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/rf"
)

// reapInterval is how often Supervise scans for exited devices, playing
// the role of the reference simulator's cooperative Scene::poll, invoked
// on every scheduler wakeup there and on a fixed tick here.
const reapInterval = 10 * time.Millisecond

// MaxDevices bounds the number of simultaneous device slots, per
// spec.md's data model (`devices`, capacity MAX_DEVICES=16).
const MaxDevices = 16

// Device is anything the Scene can install into a slot and poll for
// completion. internal/device's NCIDevice and RFDevice both satisfy it.
type Device interface {
	// ID returns the slot this device was installed into.
	ID() uint16
	// Done returns a channel closed when the device's task has exited.
	Done() <-chan struct{}
	// Err returns the device's terminal error, valid only after Done is
	// closed.
	Err() error
	// Deliver enqueues an RF frame addressed to this device. It must not
	// block indefinitely; RF ingress channels are bounded (capacity 2) to
	// apply backpressure on sluggish peers, per spec.md §5.
	Deliver(frame rf.Packet) bool
}

// Builder constructs a Device once a slot id has been assigned to it.
type Builder func(id uint16) Device

// Scene is the fixed-capacity registry and RF router. It is shared by
// several goroutines: the NCI and RF accept loops call AddDevice, the
// supervisor calls Reap, and every RF device's read loop calls Send. Its
// internal mutex serializes all of them.
type Scene struct {
	mu      sync.Mutex
	devices [MaxDevices]Device

	log *log.Logger
}

// New returns an empty Scene.
func New(logger *log.Logger) *Scene {
	if logger == nil {
		logger = log.Default()
	}
	return &Scene{log: logger}
}

// ErrFull is returned by AddDevice when every slot is occupied.
type ErrFull struct{}

func (ErrFull) Error() string { return "scene: max number of connections reached" }

// AddDevice finds the lowest empty slot, invokes build with that id, and
// installs the resulting Device. It fails if the Scene is full.
func (s *Scene) AddDevice(build Builder) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := 0; id < MaxDevices; id++ {
		if s.devices[id] == nil {
			d := build(uint16(id))
			s.devices[id] = d
			return d, nil
		}
	}
	return nil, ErrFull{}
}

// Send routes packet to every installed device slot except the sender,
// honoring the broadcast receiver value. It implements spec.md §4.6's
// send(packet) operation and the Broadcast fan-out testable property:
// send(packet{receiver=0xFFFF, sender=s}) delivers to every occupied slot
// other than s, exactly once.
func (s *Scene) Send(packet rf.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := 0; id < MaxDevices; id++ {
		if uint16(id) == packet.Sender {
			continue
		}
		if packet.Receiver != rf.Broadcast && packet.Receiver != uint16(id) {
			continue
		}
		d := s.devices[id]
		if d == nil {
			continue
		}
		if !d.Deliver(packet) {
			s.log.Printf("[scene] dropping rf frame to slot %d: ingress full", id)
		}
	}
}

// Reap scans every occupied slot for a device whose task has exited,
// frees its slot, and surfaces the terminal error. This is the Go
// equivalent of the reference simulator's cooperative Scene::poll: rather
// than polling a future, each device's completion is observed via a
// closed Done channel.
func (s *Scene) Reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := 0; id < MaxDevices; id++ {
		d := s.devices[id]
		if d == nil {
			continue
		}
		select {
		case <-d.Done():
			s.log.Printf("[scene] dropping device %d: %v", id, d.Err())
			s.devices[id] = nil
		default:
		}
	}
}

// Supervise runs Reap on a fixed interval until ctx is cancelled. Call it
// once from the accept loop's goroutine group.
func (s *Scene) Supervise(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap()
		}
	}
}

// Occupied reports how many slots currently hold a device. Used by tests
// and the admin surface.
func (s *Scene) Occupied() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, d := range s.devices {
		if d != nil {
			n++
		}
	}
	return n
}
