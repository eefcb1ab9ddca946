package rf

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/dotside-studios/nci-simulator/internal/ncierr"
)

// Reader reads length-prefixed RF frames from a single stream. Like
// internal/nci.Reader, a Reader is single-consumer.
type Reader struct {
	r io.Reader
}

// NewReader wraps r for RF frame decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns the next frame's payload bytes (the u16_le length prefix is
// consumed and not returned).
func (r *Reader) Read() ([]byte, error) {
	var lenBytes [2]byte
	if _, err := io.ReadFull(r.r, lenBytes[:]); err != nil {
		return nil, ncierr.Wrap(ncierr.KindTransport, "rf.Reader.Read", err)
	}
	n := binary.LittleEndian.Uint16(lenBytes[:])
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return nil, ncierr.Wrap(ncierr.KindTransport, "rf.Reader.Read", err)
		}
	}
	return buf, nil
}

// Writer writes length-prefixed RF frames to a single stream. Writer is
// safe for concurrent use; each Write is serialized so the 2-byte length
// prefix and its payload are never split by another writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w for RF frame encoding.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write sends payload as one length-prefixed RF frame. The length caps at
// 65535 bytes per spec.md §4.2.
func (w *Writer) Write(payload []byte) error {
	if len(payload) > 0xFFFF {
		return ncierr.New(ncierr.KindProtocol, "rf.Writer.Write", "frame too large: %d bytes", len(payload))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var lenBytes [2]byte
	binary.LittleEndian.PutUint16(lenBytes[:], uint16(len(payload)))
	if _, err := w.w.Write(lenBytes[:]); err != nil {
		return ncierr.Wrap(ncierr.KindTransport, "rf.Writer.Write", err)
	}
	if len(payload) > 0 {
		if _, err := w.w.Write(payload); err != nil {
			return ncierr.Wrap(ncierr.KindTransport, "rf.Writer.Write", err)
		}
	}
	return nil
}
