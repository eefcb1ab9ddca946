package hostflow

import (
	"context"
	"log"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

// Session is the host-side handle to one NFC controller connection: the
// explicit, per-caller value that replaces original_source/src/rust/nci/
// api.rs's lazy_static COMMANDS/CALLBACK/HAL_EVENTS globals. Where the
// original bound a single process-wide controller behind three mutexed
// Option globals, a Session is constructed by Enable and owned by
// whichever caller opened the connection, so a process embedding this
// package can drive more than one controller at once.
type Session struct {
	flow     *FlowController
	callback func(event uint16, payload []byte)
	log      *log.Logger
	cancel   context.CancelFunc
}

// Enable constructs a Session around hal/incoming (see New), starts its
// FlowController, and begins forwarding every Upstream delivery to
// callback, mirroring the original's CALLBACK(u16, &[u8]) shape. It
// returns immediately; the caller must eventually call Disable.
func Enable(hal HAL, incoming <-chan []byte, callback func(event uint16, payload []byte), logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		flow:     New(hal, incoming, logger),
		callback: callback,
		log:      logger,
		cancel:   cancel,
	}
	s.flow.Run(ctx)
	go s.dispatchUpstream(ctx)
	return s
}

func (s *Session) dispatchUpstream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-s.flow.Upstream():
			if !ok {
				return
			}
			if s.callback == nil {
				continue
			}
			header, err := ncipdu.ParseHeader(packet[:ncipdu.HeaderLength])
			if err != nil {
				s.log.Printf("[hostflow] session dropping malformed upstream packet: %v", err)
				continue
			}
			s.callback(uint16(header.GID)<<8|uint16(header.OID), packet)
		}
	}
}

// Disable tears down the Session: its FlowController goroutines and
// upstream dispatch loop stop, and no further Send/SendAndNotify calls
// will complete.
func (s *Session) Disable() {
	s.cancel()
}

// Init mirrors nfc_init(): a CORE_RESET requesting a config reset,
// correlated with its notification, followed by a CORE_INIT enabling no
// optional features. It returns once both have completed.
func (s *Session) Init(ctx context.Context) error {
	resetCmd := ncipdu.BuildControlPacket(ncipdu.MessageTypeCommand, ncipdu.GroupIDCore, ncipdu.OidCoreReset, []byte{0x01})
	_, notify, err := s.flow.SendAndNotify(ctx, resetCmd)
	if err != nil {
		return err
	}
	select {
	case <-notify:
	case <-ctx.Done():
		return ctx.Err()
	}

	initCmd := ncipdu.BuildControlPacket(ncipdu.MessageTypeCommand, ncipdu.GroupIDCore, ncipdu.OidCoreInit, nil)
	if _, err := s.flow.Send(ctx, initCmd); err != nil {
		return err
	}
	return nil
}

// Send and SendAndNotify expose the underlying FlowController for
// callers that need to issue arbitrary Commands once the Session is
// initialized.
func (s *Session) Send(ctx context.Context, cmd []byte) ([]byte, error) {
	return s.flow.Send(ctx, cmd)
}

func (s *Session) SendAndNotify(ctx context.Context, cmd []byte) ([]byte, <-chan []byte, error) {
	return s.flow.SendAndNotify(ctx, cmd)
}
