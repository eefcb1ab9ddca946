// Package legacyhost implements the secondary host-side transport (A3):
// a minimal TCP server answering only CORE_RESET and CORE_INIT, grounded
// on original_source/src/rust/hal/rootcanal_hal.rs's dispatch_incoming/
// dispatch_outgoing length-prefixed framing.
package legacyhost

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"net"

	"github.com/dotside-studios/nci-simulator/internal/ncierr"
	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

// DefaultAddr is the fixed address this transport listens on per spec.md
// §6: "On 127.0.0.1:54323".
const DefaultAddr = "127.0.0.1:54323"

// frameHeaderLength is the 1-byte packet_type plus 2-byte big-endian
// length prefix.
const frameHeaderLength = 3

// Server is the legacy host transport. Unlike the primary NCI/RF
// listeners it speaks a single flat frame format and understands exactly
// two opcodes.
type Server struct {
	listener net.Listener
	log      *log.Logger
}

// Listen binds addr (use DefaultAddr in production) and returns a Server
// ready to Serve.
func Listen(addr string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ncierr.Wrap(ncierr.KindTransport, "legacyhost.Listen", err)
	}
	return &Server{listener: l, log: logger}, nil
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is cancelled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return ncierr.Wrap(ncierr.KindTransport, "legacyhost.Serve", err)
			}
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		packetType, payload, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				s.log.Printf("[legacyhost] connection closed: %v", err)
			}
			return
		}
		if err := s.dispatch(conn, packetType, payload); err != nil {
			s.log.Printf("[legacyhost] %v", err)
		}
	}
}

func (s *Server) dispatch(conn net.Conn, packetType byte, payload []byte) error {
	if ncipdu.MessageType(packetType) != ncipdu.MessageTypeCommand {
		return ncierr.New(ncierr.KindProtocol, "legacyhost.dispatch", "unsupported packet type 0x%02x", packetType)
	}
	cmd, err := ncipdu.ParseControlPacket(payload)
	if err != nil {
		return ncierr.Wrap(ncierr.KindProtocol, "legacyhost.dispatch", err)
	}
	if cmd.Header.GID != ncipdu.GroupIDCore {
		return ncierr.New(ncierr.KindProtocol, "legacyhost.dispatch", "unsupported gid 0x%x", cmd.Header.GID)
	}

	switch cmd.Header.OID {
	case ncipdu.OidCoreReset:
		rsp := ncipdu.CoreResetResponse{Status: ncipdu.StatusOK}
		return s.respond(conn, ncipdu.GroupIDCore, ncipdu.OidCoreReset, rsp.Encode())
	case ncipdu.OidCoreInit:
		return s.respond(conn, ncipdu.GroupIDCore, ncipdu.OidCoreInit, nil)
	default:
		return ncierr.New(ncierr.KindProtocol, "legacyhost.dispatch", "unsupported opcode 0x%x", cmd.Header.OID)
	}
}

func (s *Server) respond(conn net.Conn, gid ncipdu.GroupID, oid uint8, payload []byte) error {
	packet := ncipdu.BuildControlPacket(ncipdu.MessageTypeResponse, gid, oid, payload)
	return writeFrame(conn, byte(ncipdu.MessageTypeResponse), packet)
}

// readFrame reads one `u8 packet_type || u16_be length || payload` frame.
func readFrame(r io.Reader) (byte, []byte, error) {
	var header [frameHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint16(header[1:3])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return header[0], payload, nil
}

func writeFrame(w io.Writer, packetType byte, payload []byte) error {
	header := [frameHeaderLength]byte{packetType}
	binary.BigEndian.PutUint16(header[1:3], uint16(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return ncierr.Wrap(ncierr.KindTransport, "legacyhost.writeFrame", err)
	}
	if _, err := w.Write(payload); err != nil {
		return ncierr.Wrap(ncierr.KindTransport, "legacyhost.writeFrame", err)
	}
	return nil
}
