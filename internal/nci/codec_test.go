package nci

import (
	"bytes"
	"io"
	"testing"

	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

func buildPacket(t *testing.T, payloadLen int) []byte {
	t.Helper()
	h := ncipdu.PacketHeader{
		MT:            ncipdu.MessageTypeCommand,
		PBF:           ncipdu.PacketBoundaryComplete,
		GID:           ncipdu.GroupIDCore,
		OID:           ncipdu.OidCoreReset,
		PayloadLength: uint8(payloadLen),
	}
	hb := h.Bytes()
	payload := make([]byte, payloadLen)
	for i := range payload {
		payload[i] = byte(i)
	}
	out := append(append([]byte(nil), hb[:]...), payload...)
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 254, 255, 256, 510, 511, 512, 1000, 65535} {
		length := length
		t.Run("", func(t *testing.T) {
			packet := buildPacket(t, length)

			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := w.Write(packet); err != nil {
				t.Fatalf("Write: %v", err)
			}

			r := NewReader(&buf)
			got, err := r.Read()
			if err != nil {
				t.Fatalf("Read: %v", err)
			}

			if !bytes.Equal(got[3:], packet[3:]) {
				t.Fatalf("payload mismatch: got %d bytes, want %d", len(got)-3, len(packet)-3)
			}
			if got[0] != packet[0] || got[1] != packet[1] {
				t.Fatalf("header MT/GID/OID bytes changed: got %x, want %x", got[:2], packet[:2])
			}
			gotHeader, err := ncipdu.ParseHeader(got[:3])
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			if gotHeader.PBF != ncipdu.PacketBoundaryComplete {
				t.Fatalf("reassembled header PBF = %v, want Complete", gotHeader.PBF)
			}
		})
	}
}

func TestSegmentationBoundary(t *testing.T) {
	cases := []struct {
		length        int
		wantSegments  int
	}{
		{254, 1},
		{255, 1},
		{256, 2},
		{510, 2},
		{511, 3},
		{512, 3},
		{1000, 4},
	}

	for _, c := range cases {
		c := c
		t.Run("", func(t *testing.T) {
			packet := buildPacket(t, c.length)
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := w.Write(packet); err != nil {
				t.Fatalf("Write: %v", err)
			}

			segments := 0
			wire := buf.Bytes()
			for len(wire) > 0 {
				h, err := ncipdu.ParseHeader(wire)
				if err != nil {
					t.Fatalf("ParseHeader: %v", err)
				}
				segLen := 3 + int(h.PayloadLength)
				if segLen > len(wire) {
					t.Fatalf("segment %d overruns buffer", segments)
				}
				if segLen > 258 {
					t.Fatalf("segment %d is %d bytes, want <= 258", segments, segLen)
				}
				isLast := h.PBF == ncipdu.PacketBoundaryComplete
				wire = wire[segLen:]
				segments++
				if isLast {
					if len(wire) != 0 {
						t.Fatalf("data remains after final segment: %d bytes", len(wire))
					}
					break
				}
			}

			if segments != c.wantSegments {
				t.Fatalf("length %d: got %d segments, want %d", c.length, segments, c.wantSegments)
			}
		})
	}
}

func TestReaderTransportClosed(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.Read(); err == nil {
		t.Fatal("expected error on empty stream")
	}
}

func TestWriterConcurrentWritesDoNotInterleave(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewWriter(pw)

	const writers = 8
	packet := buildPacket(t, 1000) // segments into 4 chunks

	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			done <- w.Write(append([]byte(nil), packet...))
		}()
	}

	r := NewReader(pr)
	for i := 0; i < writers; i++ {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got[3:], packet[3:]) {
			t.Fatalf("interleaved packet detected on read %d", i)
		}
	}
	for i := 0; i < writers; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
}
