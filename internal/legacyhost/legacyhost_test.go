package legacyhost

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func startServer(t *testing.T) (net.Conn, func()) {
	t.Helper()
	srv, err := Listen("127.0.0.1:0", discardLogger())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		cancel()
		t.Fatalf("Dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		cancel()
	}
}

func writeCommand(t *testing.T, conn net.Conn, oid uint8, payload []byte) {
	t.Helper()
	inner := ncipdu.BuildControlPacket(ncipdu.MessageTypeCommand, ncipdu.GroupIDCore, oid, payload)
	if err := writeFrame(conn, byte(ncipdu.MessageTypeCommand), inner); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
}

func TestCoreResetRespondsOK(t *testing.T) {
	conn, cleanup := startServer(t)
	defer cleanup()

	writeCommand(t, conn, ncipdu.OidCoreReset, []byte{byte(ncipdu.ResetTypeResetConfig)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	packetType, payload, err := readFrame(conn)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if ncipdu.MessageType(packetType) != ncipdu.MessageTypeResponse {
		t.Fatalf("packet type = %d, want Response", packetType)
	}
	rsp, err := ncipdu.ParseControlPacket(payload)
	if err != nil {
		t.Fatalf("ParseControlPacket: %v", err)
	}
	if rsp.Header.OID != ncipdu.OidCoreReset {
		t.Fatalf("oid = %d, want CORE_RESET", rsp.Header.OID)
	}
	if len(rsp.Payload) != 1 || ncipdu.Status(rsp.Payload[0]) != ncipdu.StatusOK {
		t.Fatalf("payload = %v, want STATUS_OK", rsp.Payload)
	}
}

func TestCoreInitRespondsWithEmptyPayload(t *testing.T) {
	conn, cleanup := startServer(t)
	defer cleanup()

	writeCommand(t, conn, ncipdu.OidCoreInit, nil)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := readFrame(conn)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	rsp, err := ncipdu.ParseControlPacket(payload)
	if err != nil {
		t.Fatalf("ParseControlPacket: %v", err)
	}
	if rsp.Header.OID != ncipdu.OidCoreInit {
		t.Fatalf("oid = %d, want CORE_INIT", rsp.Header.OID)
	}
	if len(rsp.Payload) != 0 {
		t.Fatalf("payload = %v, want empty", rsp.Payload)
	}
}

func TestUnsupportedOpcodeGetsNoResponse(t *testing.T) {
	conn, cleanup := startServer(t)
	defer cleanup()

	writeCommand(t, conn, ncipdu.OidRfDiscover, nil)
	// the connection must stay open and simply ignore the opcode, so a
	// well-formed follow-up command still gets answered.
	writeCommand(t, conn, ncipdu.OidCoreReset, []byte{byte(ncipdu.ResetTypeKeepConfig)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := readFrame(conn)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	rsp, err := ncipdu.ParseControlPacket(payload)
	if err != nil {
		t.Fatalf("ParseControlPacket: %v", err)
	}
	if rsp.Header.OID != ncipdu.OidCoreReset {
		t.Fatalf("first response observed was oid %d, want CORE_RESET (the rejected RF_DISCOVER should produce no frame)", rsp.Header.OID)
	}
}
