package device

import (
	"io"
	"log"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dotside-studios/nci-simulator/internal/nci"
	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
	"github.com/dotside-studios/nci-simulator/internal/rf"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type fakeFabric struct {
	mu  sync.Mutex
	got []rf.Packet
}

func (f *fakeFabric) Send(p rf.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, p)
}

func (f *fakeFabric) last() (rf.Packet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.got) == 0 {
		return rf.Packet{}, false
	}
	return f.got[len(f.got)-1], true
}

func TestRFDeviceRewritesSenderOnIngress(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	fab := &fakeFabric{}
	builder := NewRFDevice(serverConn, fab, discardLogger())
	builder(7)

	writer := rf.NewWriter(clientConn)
	pkt := rf.Packet{Sender: 99, Receiver: rf.Broadcast, Payload: []byte{0x01, 0x02}}
	if err := writer.Write(pkt.Bytes()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got, ok := fab.last(); ok {
			if got.Sender != 7 {
				t.Fatalf("fabric saw sender %d, want 7 (device slot id)", got.Sender)
			}
			if got.Receiver != rf.Broadcast {
				t.Fatalf("receiver field corrupted: got %d", got.Receiver)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("fabric never observed the rewritten frame")
}

func TestRFDeviceDeliversOutboundFrames(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	fab := &fakeFabric{}
	builder := NewRFDevice(serverConn, fab, discardLogger())
	d := builder(3)

	pkt := rf.Packet{Sender: 1, Receiver: 3, Payload: []byte{0xAA}}
	if !d.Deliver(pkt) {
		t.Fatal("Deliver returned false with an empty inbox")
	}

	reader := rf.NewReader(clientConn)
	body, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, err := rf.ParsePacket(body)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if got.Sender != 1 || got.Receiver != 3 || got.Payload[0] != 0xAA {
		t.Fatalf("got %+v, want %+v", got, pkt)
	}
}

func TestNCIDeviceEmitsPowerOnNotification(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	builder := NewNCIDevice(serverConn, discardLogger())
	d := builder(0)

	reader := nci.NewReader(clientConn)
	packet, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	header, err := ncipdu.ParseHeader(packet[:3])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if header.MT != ncipdu.MessageTypeNotification || header.OID != ncipdu.OidCoreReset {
		t.Fatalf("first packet = %+v, want CORE_RESET_NTF", header)
	}

	clientConn.Close()
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("device did not exit after its connection closed")
	}
}
