// Package rf implements the RF framing codec (C2) and the RfPacket wire
// format: a 16-bit little-endian length prefix followed by a payload whose
// first four bytes are the sender/receiver slot identifiers, grounded on
// original_source/tools/casimir/src/main.rs's Scene/Device RF channel
// plumbing (generalized here from an in-process mpsc::Sender<Vec<u8>> to an
// explicit wire packet, per spec.md §3/§4.6).
package rf

import "encoding/binary"

// Broadcast is the reserved receiver value meaning "every other device".
const Broadcast uint16 = 0xFFFF

// Packet is one RF frame exchanged between an emulated device and the
// fabric. Sender is rewritten by the owning Device Task before submission
// to the fabric and is never trusted from the wire.
type Packet struct {
	Sender   uint16
	Receiver uint16
	Payload  []byte
}

// headerLength is the size of the sender+receiver prefix within Payload on
// the wire (spec.md §6: "Payload is a parse-compatible RF packet whose
// first two bytes are a 16-bit sender id; the next two a receiver id").
const headerLength = 4

// ParsePacket decodes the sender/receiver/payload fields from a raw RF
// frame body (the bytes following the u16_le length prefix).
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < headerLength {
		return Packet{}, errShortFrame(len(b))
	}
	return Packet{
		Sender:   binary.LittleEndian.Uint16(b[0:2]),
		Receiver: binary.LittleEndian.Uint16(b[2:4]),
		Payload:  append([]byte(nil), b[headerLength:]...),
	}, nil
}

// Bytes encodes the packet back to its wire body (without the length
// prefix).
func (p Packet) Bytes() []byte {
	out := make([]byte, headerLength+len(p.Payload))
	binary.LittleEndian.PutUint16(out[0:2], p.Sender)
	binary.LittleEndian.PutUint16(out[2:4], p.Receiver)
	copy(out[headerLength:], p.Payload)
	return out
}

// WithSender returns a copy of the raw frame body with its sender field
// (bytes 0..2, little-endian) overwritten. This is the only authority
// binding an RF sender id to a device identity (spec.md §4.5/§8): a Device
// Task calls this on every inbound frame before handing it to the fabric,
// so a client can never spoof another slot's identity.
func WithSender(body []byte, sender uint16) []byte {
	out := append([]byte(nil), body...)
	if len(out) < 2 {
		return out
	}
	binary.LittleEndian.PutUint16(out[0:2], sender)
	return out
}

type frameError struct {
	got int
}

func (e *frameError) Error() string {
	return "rf: frame too short to carry sender/receiver header"
}

func errShortFrame(got int) error { return &frameError{got: got} }
