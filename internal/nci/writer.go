package nci

import (
	"io"
	"sync"

	"github.com/dotside-studios/nci-simulator/internal/ncierr"
)

// maxSegmentPayload is the largest payload a single NCI segment may carry
// (PayloadLength is one byte).
const maxSegmentPayload = 255

// Writer segments complete logical NCI packets onto a stream. Writer is
// safe for concurrent use by multiple goroutines: each call to Write holds
// an internal lock for the duration of the call, so a segmented packet can
// never interleave with another packet's segments on the wire.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w for NCI packet segmentation.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write takes one complete logical packet ([header(3) || payload]) and
// writes it to the stream, segmenting the payload into chunks of at most
// 255 bytes if necessary. The header's MT/GID-or-ConnID/OID fields are
// preserved byte-for-byte on every segment; only PBF and PayloadLength
// differ.
func (w *Writer) Write(packet []byte) error {
	if len(packet) < 3 {
		return ncierr.New(ncierr.KindProtocol, "Writer.Write", "packet shorter than header: %d bytes", len(packet))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	headerBytes := [3]byte{packet[0], packet[1], 0}
	payload := packet[3:]

	for {
		chunkLen := len(payload)
		if chunkLen > maxSegmentPayload {
			chunkLen = maxSegmentPayload
		}
		incomplete := chunkLen < len(payload)

		headerBytes[0] &^= 0x10 // clear PBF bit
		if incomplete {
			headerBytes[0] |= 0x10
		}
		headerBytes[2] = byte(chunkLen)

		if _, err := w.w.Write(headerBytes[:]); err != nil {
			return ncierr.Wrap(ncierr.KindTransport, "Writer.Write", err)
		}
		if chunkLen > 0 {
			if _, err := w.w.Write(payload[:chunkLen]); err != nil {
				return ncierr.Wrap(ncierr.KindTransport, "Writer.Write", err)
			}
		}
		payload = payload[chunkLen:]

		if !incomplete {
			return nil
		}
	}
}
