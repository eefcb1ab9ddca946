package ncipdu

// Opcode identifiers (OID) within GroupIDCore.
const (
	OidCoreReset          uint8 = 0x00
	OidCoreInit           uint8 = 0x01
	OidCoreSetConfig      uint8 = 0x02
	OidCoreGetConfig      uint8 = 0x03
	OidCoreConnCreate     uint8 = 0x04
	OidCoreConnClose      uint8 = 0x05
	OidCoreConnCredits    uint8 = 0x06 // notification only
	OidCoreGenericError   uint8 = 0x07 // notification only
	OidCoreInterfaceError uint8 = 0x08 // notification only
	OidCoreSetPowerSubState uint8 = 0x09
)

// Opcode identifiers (OID) within GroupIDRfManagement.
const (
	OidRfDiscoverMap           uint8 = 0x00
	OidRfSetListenModeRouting  uint8 = 0x01
	OidRfGetListenModeRouting  uint8 = 0x02
	OidRfDiscover              uint8 = 0x03
	OidRfDiscoverSelect        uint8 = 0x04
	OidRfIntfActivated         uint8 = 0x05 // notification only
	OidRfDeactivate            uint8 = 0x06
)

// Opcode identifiers (OID) within GroupIDNfcee.
const (
	OidNfceeDiscover uint8 = 0x00
	OidNfceeModeSet  uint8 = 0x01
)

// ControlPacket is a parsed logical NCI Control packet: a reassembled header
// (PBF=CompleteOrFinal, PayloadLength describing the whole payload) plus the
// opaque command/response/notification payload bytes.
type ControlPacket struct {
	Header  PacketHeader
	Payload []byte
}

// ParseControlPacket parses a reassembled logical packet (as returned by
// internal/nci.Reader) as a Control packet. It does not interpret the
// payload; use the per-opcode Parse* functions for that.
func ParseControlPacket(b []byte) (ControlPacket, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return ControlPacket{}, err
	}
	if !h.IsControl() {
		return ControlPacket{}, &UnsupportedMessageTypeError{MT: h.MT}
	}
	return ControlPacket{Header: h, Payload: b[HeaderLength:]}, nil
}

// BuildControlPacket assembles a logical Control packet (header +
// payload) ready to be segmented and written by internal/nci.Writer.
func BuildControlPacket(mt MessageType, gid GroupID, oid uint8, payload []byte) []byte {
	h := PacketHeader{
		MT:            mt,
		PBF:           PacketBoundaryComplete,
		GID:           gid,
		OID:           oid,
		PayloadLength: uint8(len(payload)), // advisory only, see internal/nci
	}
	hb := h.Bytes()
	out := make([]byte, 0, HeaderLength+len(payload))
	out = append(out, hb[:]...)
	out = append(out, payload...)
	return out
}

// UnsupportedMessageTypeError is returned when an NCI ingress packet carries
// a MessageType that is not valid in context (e.g. a Response or
// Notification received on the DH->NFCC direction).
type UnsupportedMessageTypeError struct {
	MT MessageType
}

func (e *UnsupportedMessageTypeError) Error() string {
	return "ncipdu: unexpected message type " + e.MT.String() + " in received NCI packet"
}

// UnsupportedOpcodeError is returned when a Control packet carries a
// (GID, OID) pair the simulated NFCC does not implement.
type UnsupportedOpcodeError struct {
	GID GroupID
	OID uint8
}

func (e *UnsupportedOpcodeError) Error() string {
	return "ncipdu: unsupported opcode gid=0x" + hexByte(uint8(e.GID)) + " oid=0x" + hexByte(e.OID)
}

func hexByte(b uint8) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}
