// Package nci implements the NCI Forum transport codec (C1): segmentation
// and reassembly of Control and Data packets across a byte-oriented stream,
// grounded on the reference simulator's NciReader/NciWriter
// (original_source/tools/casimir/src/main.rs) and generalized to an
// arbitrary io.Reader/io.Writer pair in the teacher's style.
package nci

import (
	"io"

	"github.com/dotside-studios/nci-simulator/internal/ncierr"
	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

// Reader reassembles segmented NCI packets read from a single stream. A
// Reader must not be used concurrently from more than one goroutine: reads
// are inherently single-consumer, matching the "reads on one reader are
// serialized" rule of the spec.
type Reader struct {
	r io.Reader
}

// NewReader wraps r for NCI packet reassembly.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns one fully reassembled logical packet as
// [header(3) || payload]. The returned header describes the last segment
// received, rewritten with PBF=CompleteOrFinal and PayloadLength equal to
// the *total* reassembled payload length truncated to a byte — callers
// concerned with payloads over 255 bytes MUST use len(packet)-3, not the
// header's PayloadLength field, which is advisory only (see Open Question
// in spec.md §9).
func (r *Reader) Read() ([]byte, error) {
	var header [ncipdu.HeaderLength]byte
	var payload []byte
	var first ncipdu.PacketHeader

	for segment := 0; ; segment++ {
		if _, err := io.ReadFull(r.r, header[:]); err != nil {
			return nil, transportErr("Reader.Read", err)
		}
		h, err := ncipdu.ParseHeader(header[:])
		if err != nil {
			return nil, ncierr.Wrap(ncierr.KindProtocol, "Reader.Read", err)
		}

		if segment == 0 {
			first = h
		} else if h.MT != first.MT || h.GID != first.GID || h.ConnID != first.ConnID ||
			(h.MT != ncipdu.MessageTypeData && h.OID != first.OID) {
			return nil, ncierr.New(ncierr.KindProtocol, "Reader.Read",
				"segment %d header does not match first segment", segment)
		}

		chunk := make([]byte, h.PayloadLength)
		if _, err := io.ReadFull(r.r, chunk); err != nil {
			return nil, transportErr("Reader.Read", err)
		}
		payload = append(payload, chunk...)

		if h.PBF == ncipdu.PacketBoundaryComplete {
			break
		}
	}

	final := first
	final.PBF = ncipdu.PacketBoundaryComplete
	final.PayloadLength = uint8(len(payload)) // advisory; trust len(payload) instead
	headerBytes := final.Bytes()

	out := make([]byte, 0, ncipdu.HeaderLength+len(payload))
	out = append(out, headerBytes[:]...)
	out = append(out, payload...)
	return out, nil
}

func transportErr(op string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ncierr.Wrap(ncierr.KindTransport, op, err)
	}
	return ncierr.Wrap(ncierr.KindTransport, op, err)
}
