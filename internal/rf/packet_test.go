package rf

import (
	"bytes"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	p := Packet{Sender: 1, Receiver: Broadcast, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	got, err := ParsePacket(p.Bytes())
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if got.Sender != p.Sender || got.Receiver != p.Receiver || !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestParsePacketShort(t *testing.T) {
	if _, err := ParsePacket([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("expected error on frame shorter than header")
	}
}

func TestWithSenderRewrite(t *testing.T) {
	body := Packet{Sender: 9, Receiver: 2, Payload: []byte{0x01}}.Bytes()
	rewritten := WithSender(body, 5)

	got, err := ParsePacket(rewritten)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if got.Sender != 5 {
		t.Fatalf("Sender = %d, want 5", got.Sender)
	}
	if got.Receiver != 2 {
		t.Fatalf("Receiver changed: got %d, want 2", got.Receiver)
	}

	orig, _ := ParsePacket(body)
	if orig.Sender != 9 {
		t.Fatal("WithSender mutated the original body")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := NewReader(&buf)

	frames := [][]byte{
		{},
		{0x01},
		Packet{Sender: 1, Receiver: 2, Payload: make([]byte, 1000)}.Bytes(),
	}

	for i, f := range frames {
		if err := w.Write(f); err != nil {
			t.Fatalf("frame %d: Write: %v", i, err)
		}
	}
	for i, want := range frames {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("frame %d: Read: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d mismatch: got %d bytes, want %d", i, len(got), len(want))
		}
	}
}

func TestWriterRejectsOversizeFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(make([]byte, 0x10000)); err == nil {
		t.Fatal("expected error for frame exceeding 65535 bytes")
	}
}
