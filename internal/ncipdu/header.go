// Package ncipdu implements the NCI Forum Control and Data packet formats:
// the 3-byte common header, opcode/group identifiers, status codes, and the
// command/response/notification payloads the simulated NFCC understands.
package ncipdu

import "fmt"

// HeaderLength is the size in bytes of the common NCI packet header.
const HeaderLength = 3

// MessageType is the 3-bit MT field of the packet header.
type MessageType uint8

const (
	MessageTypeData         MessageType = 0
	MessageTypeCommand      MessageType = 1
	MessageTypeResponse     MessageType = 2
	MessageTypeNotification MessageType = 3
)

func (mt MessageType) String() string {
	switch mt {
	case MessageTypeData:
		return "Data"
	case MessageTypeCommand:
		return "Command"
	case MessageTypeResponse:
		return "Response"
	case MessageTypeNotification:
		return "Notification"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(mt))
	}
}

// PacketBoundaryFlag is the 1-bit PBF field of the packet header.
type PacketBoundaryFlag uint8

const (
	PacketBoundaryComplete   PacketBoundaryFlag = 0
	PacketBoundaryIncomplete PacketBoundaryFlag = 1
)

// GroupID is the 4-bit GID field of a Control packet header.
type GroupID uint8

const (
	GroupIDCore         GroupID = 0x0
	GroupIDRfManagement GroupID = 0x1
	GroupIDNfcee        GroupID = 0x2
	GroupIDProprietary  GroupID = 0xF
)

// PacketHeader is the common 3-byte header shared by NCI Control and Data
// packets. For Control packets ConnID carries the GID and OID is valid; for
// Data packets ConnID carries the logical connection identifier and OID is
// reserved (ParseHeader still returns the low six bits of byte 1).
type PacketHeader struct {
	MT            MessageType
	PBF           PacketBoundaryFlag
	GID           GroupID // Control packets only
	ConnID        uint8   // Data packets only
	OID           uint8   // Control packets only, 6 bits
	PayloadLength uint8
}

// ParseHeader decodes the 3-byte common header. It does not validate that MT
// is a value meaningful in context (that is the caller's responsibility,
// since the valid MT set differs between the ingress and egress directions).
func ParseHeader(b []byte) (PacketHeader, error) {
	if len(b) < HeaderLength {
		return PacketHeader{}, fmt.Errorf("ncipdu: short header: got %d bytes, want %d", len(b), HeaderLength)
	}
	mt := MessageType((b[0] >> 5) & 0x7)
	pbf := PacketBoundaryFlag((b[0] >> 4) & 0x1)
	gidOrConn := b[0] & 0x0F
	oid := b[1] & 0x3F
	return PacketHeader{
		MT:            mt,
		PBF:           pbf,
		GID:           GroupID(gidOrConn),
		ConnID:        gidOrConn,
		OID:           oid,
		PayloadLength: b[2],
	}, nil
}

// Bytes encodes the header back to its 3-byte wire representation.
func (h PacketHeader) Bytes() [HeaderLength]byte {
	var b [HeaderLength]byte
	b[0] = (uint8(h.MT) << 5) | (uint8(h.PBF) << 4) | (uint8(h.GID) & 0x0F)
	b[1] = h.OID & 0x3F
	b[2] = h.PayloadLength
	return b
}

// IsControl reports whether MT addresses a Control packet (Command,
// Response, or Notification) as opposed to a Data packet.
func (h PacketHeader) IsControl() bool {
	return h.MT != MessageTypeData
}
