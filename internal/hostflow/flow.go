// Package hostflow implements the Host Flow Controller (C7): the
// client-side layer enforcing the NCI Forum "at most one outstanding
// Command" rule, grounded on
// original_source/src/rust/nci/flow.rs (straight_flow/command_flow) and
// original_source/src/rust/nci/api.rs for the Session shape this package
// replaces the lazy_static COMMANDS/CALLBACK/HAL_EVENTS globals with.
package hostflow

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

// outstandingCommandTimeout is the NCI Forum deadline after which a
// command with no Response is considered missed; the pending latch is
// released and the next queued command may be sent.
const outstandingCommandTimeout = 20 * time.Millisecond

// HAL is the transport a FlowController writes Commands and Data to. In
// this simulator it is backed by internal/nci.Writer.
type HAL interface {
	Write(packet []byte) error
}

// pendingCommand is one entry of the serialized command queue: the
// encoded Command packet and the channels its caller is waiting on.
type pendingCommand struct {
	cmd      []byte
	response chan []byte
	notify   chan []byte // non-nil only for SendAndNotify
}

// FlowController serializes outgoing NCI Commands so that at most one is
// ever in flight, implemented as two cooperative goroutines sharing a
// readiness signal, mirroring flow.rs's straight_flow/command_flow pair.
type FlowController struct {
	hal HAL
	log *log.Logger

	incoming <-chan []byte // raw packets arriving from the HAL
	upstream chan []byte   // Data packets and unsolicited Notifications

	cmdQueue chan *pendingCommand
	ready    chan struct{} // capacity 1; the readiness "Notify" equivalent

	mu sync.Mutex
	// current is the most recently sent command. It is overwritten only
	// when commandFlow sends the next one, not cleared on Response/
	// timeout, so a Notification that arrives just after its Response
	// (the CORE_RESET / CORE_RESET_NTF pairing nfc_init relies on) still
	// correlates to it.
	current *pendingCommand
}

// New constructs a FlowController. incoming carries every packet the HAL
// delivers to the host (Responses, Notifications, Data); the caller is
// responsible for wiring a transport's read loop into it.
func New(hal HAL, incoming <-chan []byte, logger *log.Logger) *FlowController {
	if logger == nil {
		logger = log.Default()
	}
	return &FlowController{
		hal:      hal,
		log:      logger,
		incoming: incoming,
		upstream: make(chan []byte, 16),
		cmdQueue: make(chan *pendingCommand, 8),
		ready:    make(chan struct{}, 1),
	}
}

// Upstream delivers Data packets and Notifications that were not
// correlated to an outstanding SendAndNotify call.
func (fc *FlowController) Upstream() <-chan []byte { return fc.upstream }

// Run starts the straight flow and command flow goroutines and returns
// immediately. Both stop when ctx is cancelled; the straight flow also
// stops when the incoming channel closes.
func (fc *FlowController) Run(ctx context.Context) {
	go fc.straightFlow(ctx)
	go fc.commandFlow(ctx)
}

// straightFlow multiplexes incoming HAL traffic: Responses release
// readiness and are delivered to whichever command is currently in
// flight; Notifications are delivered to that command's caller if it
// asked for one via SendAndNotify, otherwise to Upstream; everything else
// goes straight to Upstream.
func (fc *FlowController) straightFlow(ctx context.Context) {
	// notified is the last command whose correlated Notification has been
	// delivered; later Notifications while it is current go to Upstream.
	var notified *pendingCommand
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-fc.incoming:
			if !ok {
				return
			}
			header, err := ncipdu.ParseHeader(packet[:ncipdu.HeaderLength])
			if err != nil {
				fc.log.Printf("[hostflow] dropping malformed packet: %v", err)
				continue
			}
			switch header.MT {
			case ncipdu.MessageTypeResponse:
				fc.mu.Lock()
				current := fc.current
				fc.mu.Unlock()
				if current != nil {
					select {
					case current.response <- packet:
					default:
					}
				}
				select {
				case fc.ready <- struct{}{}:
				default:
				}
			case ncipdu.MessageTypeNotification:
				fc.mu.Lock()
				current := fc.current
				fc.mu.Unlock()
				if current != nil && current.notify != nil && current != notified {
					select {
					case current.notify <- packet:
						notified = current
						continue
					default:
					}
				}
				fc.deliverUpstream(packet)
			default:
				fc.deliverUpstream(packet)
			}
		}
	}
}

func (fc *FlowController) deliverUpstream(packet []byte) {
	select {
	case fc.upstream <- packet:
	default:
		fc.log.Printf("[hostflow] upstream channel full, dropping packet")
	}
}

// commandFlow pulls one command at a time off the queue, sends it, and
// waits for readiness with the 20ms outstanding-command timeout before
// pulling the next one.
func (fc *FlowController) commandFlow(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-fc.cmdQueue:
			if !ok {
				return
			}
			fc.mu.Lock()
			fc.current = cmd
			fc.mu.Unlock()

			if err := fc.hal.Write(cmd.cmd); err != nil {
				cmd.response <- nil
				continue
			}

			select {
			case <-fc.ready:
			case <-time.After(outstandingCommandTimeout):
				fc.log.Printf("[hostflow] command flow interrupted: outstanding command timed out")
				cmd.response <- nil
			case <-ctx.Done():
				return
			}
		}
	}
}

// Send enqueues cmd and blocks until its Response arrives or the
// outstanding-command timeout elapses, in which case it returns a nil
// response (the caller is expected to treat that as "missed").
func (fc *FlowController) Send(ctx context.Context, cmd []byte) ([]byte, error) {
	p := &pendingCommand{cmd: cmd, response: make(chan []byte, 1)}
	select {
	case fc.cmdQueue <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-p.response:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendAndNotify enqueues cmd and returns its Response together with a
// channel that receives the single Notification correlated to it (the
// first Notification to arrive while this command is current); any
// further Notifications are delivered to Upstream instead.
func (fc *FlowController) SendAndNotify(ctx context.Context, cmd []byte) ([]byte, <-chan []byte, error) {
	p := &pendingCommand{cmd: cmd, response: make(chan []byte, 1), notify: make(chan []byte, 1)}
	select {
	case fc.cmdQueue <- p:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	select {
	case resp := <-p.response:
		return resp, p.notify, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// SendData writes a Data packet (or any non-Command traffic) straight to
// the HAL, bypassing the command serializer, mirroring straight_flow's
// "Data/others -> directly to HAL" branch.
func (fc *FlowController) SendData(packet []byte) error {
	return fc.hal.Write(packet)
}
