package ncipdu

import "fmt"

// ResetType is the CORE_RESET_CMD parameter selecting whether configuration
// is preserved across the reset.
type ResetType uint8

const (
	ResetTypeKeepConfig  ResetType = 0x00
	ResetTypeResetConfig ResetType = 0x01
)

// ResetTrigger identifies why CORE_RESET_NTF was emitted.
type ResetTrigger uint8

const (
	ResetTriggerPowerOn      ResetTrigger = 0x00
	ResetTriggerResetCommand ResetTrigger = 0x01
	ResetTriggerOther        ResetTrigger = 0x02
)

// ConfigStatus is CORE_RESET_NTF's config_status field. The controller
// derives it from the CORE_RESET_CMD reset type; it does not clear
// config_parameters on reset.
type ConfigStatus uint8

const (
	ConfigStatusConfigKept  ConfigStatus = 0x00
	ConfigStatusConfigReset ConfigStatus = 0x01
)

// NciVersion is the two-byte (major, minor) NCI protocol version.
type NciVersion struct {
	Major, Minor uint8
}

// NciVersion11 is NCI Forum version 1.1, the only version this core speaks.
var NciVersion11 = NciVersion{Major: 1, Minor: 1}

// CoreResetCommand is CORE_RESET_CMD.
type CoreResetCommand struct {
	ResetType ResetType
}

func ParseCoreResetCommand(payload []byte) (CoreResetCommand, error) {
	if len(payload) < 1 {
		return CoreResetCommand{}, fmt.Errorf("ncipdu: CORE_RESET_CMD: short payload")
	}
	return CoreResetCommand{ResetType: ResetType(payload[0])}, nil
}

// CoreResetResponse is CORE_RESET_RSP.
type CoreResetResponse struct {
	Status Status
}

func (r CoreResetResponse) Encode() []byte {
	return []byte{byte(r.Status)}
}

// CoreResetNotification is CORE_RESET_NTF.
type CoreResetNotification struct {
	Trigger                      ResetTrigger
	ConfigStatus                 ConfigStatus
	NciVersion                   NciVersion
	ManufacturerID                uint8
	ManufacturerSpecificInfo     []byte
}

func (n CoreResetNotification) Encode() []byte {
	out := []byte{
		byte(n.Trigger),
		byte(n.ConfigStatus),
		n.NciVersion.Major,
		n.NciVersion.Minor,
		n.ManufacturerID,
		uint8(len(n.ManufacturerSpecificInfo)),
	}
	return append(out, n.ManufacturerSpecificInfo...)
}

// CoreInitCommand is CORE_INIT_CMD. This core ignores its (empty or
// feature-enable) payload entirely.
type CoreInitCommand struct{}

func ParseCoreInitCommand(payload []byte) (CoreInitCommand, error) {
	return CoreInitCommand{}, nil
}

// NfccFeatures mirrors the CORE_INIT_RSP feature bitmask. Every field this
// core advertises is disabled, per spec; the struct exists so the encoding
// is self-describing and independently testable.
type NfccFeatures struct {
	DiscoveryFrequencyConfig  bool
	HciNetworkSupport         bool
	ActiveCommunicationMode   bool
	TechnologyBasedRouting    bool
	ProtocolBasedRouting      bool
	AidBasedRouting           bool
	SystemCodeBasedRouting    bool
	ApduPatternBasedRouting   bool
	ForcedNfceeRouting        bool
	BatteryOffState           bool
	SwitchedOffState          bool
	SwitchedOnSubstates       bool
	RfConfigInSwitchedOffState bool
	ProprietaryCapabilities  uint8
}

// DiscoveryConfigurationMode is always DhOnly in this core; the field is
// modeled explicitly so CORE_INIT_RSP's encoding documents the choice.
const DiscoveryConfigurationModeDhOnly = 0x00

func (f NfccFeatures) encode() [5]byte {
	var b uint32
	set := func(bit uint, v bool) {
		if v {
			b |= 1 << bit
		}
	}
	set(0, f.DiscoveryFrequencyConfig)
	set(2, f.HciNetworkSupport)
	set(3, f.ActiveCommunicationMode)
	set(8, f.TechnologyBasedRouting)
	set(9, f.ProtocolBasedRouting)
	set(10, f.AidBasedRouting)
	set(11, f.SystemCodeBasedRouting)
	set(12, f.ApduPatternBasedRouting)
	set(13, f.ForcedNfceeRouting)
	set(16, f.BatteryOffState)
	set(17, f.SwitchedOffState)
	set(18, f.SwitchedOnSubstates)
	set(19, f.RfConfigInSwitchedOffState)
	var out [5]byte
	out[0] = byte(b)
	out[1] = byte(b >> 8)
	out[2] = byte(b >> 16)
	out[3] = byte(b >> 24) | DiscoveryConfigurationModeDhOnly
	out[4] = f.ProprietaryCapabilities
	return out
}

// CoreInitResponse is CORE_INIT_RSP.
type CoreInitResponse struct {
	Status                       Status
	NfccFeatures                 NfccFeatures
	MaxLogicalConnections        uint8
	MaxRoutingTableSize          uint16
	MaxControlPacketPayloadSize  uint8
	MaxDataPacketPayloadSize     uint8
	NumberOfCredits              uint8
	MaxNfcvRfFrameSize           uint16
	SupportedRfInterfaces        []RfInterface
}

func (r CoreInitResponse) Encode() []byte {
	out := []byte{byte(r.Status)}
	features := r.NfccFeatures.encode()
	out = append(out, features[:]...)
	out = append(out, r.MaxLogicalConnections,
		byte(r.MaxRoutingTableSize), byte(r.MaxRoutingTableSize>>8),
		r.MaxControlPacketPayloadSize, r.MaxDataPacketPayloadSize,
		r.NumberOfCredits,
		byte(r.MaxNfcvRfFrameSize), byte(r.MaxNfcvRfFrameSize>>8),
		uint8(len(r.SupportedRfInterfaces)))
	for _, iface := range r.SupportedRfInterfaces {
		out = append(out, byte(iface.Interface), uint8(len(iface.Extensions)))
		for _, ext := range iface.Extensions {
			out = append(out, byte(ext))
		}
	}
	return out
}

// CoreSetConfigCommand is CORE_SET_CONFIG_CMD.
type CoreSetConfigCommand struct {
	Parameters []ConfigParameter
}

func ParseCoreSetConfigCommand(payload []byte) (CoreSetConfigCommand, error) {
	if len(payload) < 1 {
		return CoreSetConfigCommand{}, fmt.Errorf("ncipdu: CORE_SET_CONFIG_CMD: short payload")
	}
	n := int(payload[0])
	cmd := CoreSetConfigCommand{}
	rest := payload[1:]
	for i := 0; i < n; i++ {
		if len(rest) < 2 {
			return CoreSetConfigCommand{}, fmt.Errorf("ncipdu: CORE_SET_CONFIG_CMD: truncated parameter %d", i)
		}
		id := ConfigParameterID(rest[0])
		l := int(rest[1])
		rest = rest[2:]
		if len(rest) < l {
			return CoreSetConfigCommand{}, fmt.Errorf("ncipdu: CORE_SET_CONFIG_CMD: truncated value %d", i)
		}
		value := append([]byte(nil), rest[:l]...)
		rest = rest[l:]
		cmd.Parameters = append(cmd.Parameters, ConfigParameter{ID: id, Value: value})
	}
	return cmd, nil
}

// CoreSetConfigResponse is CORE_SET_CONFIG_RSP.
type CoreSetConfigResponse struct {
	Status         Status
	InvalidParamIDs []ConfigParameterID
}

func (r CoreSetConfigResponse) Encode() []byte {
	out := []byte{byte(r.Status), uint8(len(r.InvalidParamIDs))}
	for _, id := range r.InvalidParamIDs {
		out = append(out, byte(id))
	}
	return out
}

// CoreGetConfigCommand is CORE_GET_CONFIG_CMD.
type CoreGetConfigCommand struct {
	ParameterIDs []ConfigParameterID
}

func ParseCoreGetConfigCommand(payload []byte) (CoreGetConfigCommand, error) {
	if len(payload) < 1 {
		return CoreGetConfigCommand{}, fmt.Errorf("ncipdu: CORE_GET_CONFIG_CMD: short payload")
	}
	n := int(payload[0])
	if len(payload) < 1+n {
		return CoreGetConfigCommand{}, fmt.Errorf("ncipdu: CORE_GET_CONFIG_CMD: truncated id list")
	}
	cmd := CoreGetConfigCommand{}
	for _, b := range payload[1 : 1+n] {
		cmd.ParameterIDs = append(cmd.ParameterIDs, ConfigParameterID(b))
	}
	return cmd, nil
}

// CoreGetConfigResponse is CORE_GET_CONFIG_RSP.
type CoreGetConfigResponse struct {
	Status     Status
	Parameters []ConfigParameter
}

func (r CoreGetConfigResponse) Encode() []byte {
	out := []byte{byte(r.Status), uint8(len(r.Parameters))}
	for _, p := range r.Parameters {
		out = append(out, byte(p.ID), uint8(len(p.Value)))
		out = append(out, p.Value...)
	}
	return out
}

// CoreConnCreateCommand is CORE_CONN_CREATE_CMD.
type CoreConnCreateCommand struct {
	DestinationType DestinationType
	Parameters      []DestinationParameter
}

func ParseCoreConnCreateCommand(payload []byte) (CoreConnCreateCommand, error) {
	if len(payload) < 2 {
		return CoreConnCreateCommand{}, fmt.Errorf("ncipdu: CORE_CONN_CREATE_CMD: short payload")
	}
	cmd := CoreConnCreateCommand{DestinationType: DestinationType(payload[0])}
	n := int(payload[1])
	rest := payload[2:]
	for i := 0; i < n; i++ {
		if len(rest) < 2 {
			return CoreConnCreateCommand{}, fmt.Errorf("ncipdu: CORE_CONN_CREATE_CMD: truncated parameter %d", i)
		}
		id := DestinationSpecificParameterID(rest[0])
		l := int(rest[1])
		rest = rest[2:]
		if len(rest) < l {
			return CoreConnCreateCommand{}, fmt.Errorf("ncipdu: CORE_CONN_CREATE_CMD: truncated value %d", i)
		}
		value := append([]byte(nil), rest[:l]...)
		rest = rest[l:]
		cmd.Parameters = append(cmd.Parameters, DestinationParameter{ID: id, Value: value})
	}
	return cmd, nil
}

// CoreConnCreateResponse is CORE_CONN_CREATE_RSP.
type CoreConnCreateResponse struct {
	Status                     Status
	MaxDataPacketPayloadSize   uint8
	InitialNumberOfCredits     uint8
	ConnID                     uint8
}

func (r CoreConnCreateResponse) Encode() []byte {
	return []byte{byte(r.Status), r.MaxDataPacketPayloadSize, r.InitialNumberOfCredits, r.ConnID}
}

// CoreConnCloseCommand is CORE_CONN_CLOSE_CMD.
type CoreConnCloseCommand struct {
	ConnID uint8
}

func ParseCoreConnCloseCommand(payload []byte) (CoreConnCloseCommand, error) {
	if len(payload) < 1 {
		return CoreConnCloseCommand{}, fmt.Errorf("ncipdu: CORE_CONN_CLOSE_CMD: short payload")
	}
	return CoreConnCloseCommand{ConnID: payload[0]}, nil
}

// CoreConnCloseResponse is CORE_CONN_CLOSE_RSP.
type CoreConnCloseResponse struct {
	Status Status
}

func (r CoreConnCloseResponse) Encode() []byte {
	return []byte{byte(r.Status)}
}

// CoreSetPowerSubStateCommand is CORE_SET_POWER_SUB_STATE_CMD.
type CoreSetPowerSubStateCommand struct {
	PowerState uint8
}

func ParseCoreSetPowerSubStateCommand(payload []byte) (CoreSetPowerSubStateCommand, error) {
	if len(payload) < 1 {
		return CoreSetPowerSubStateCommand{}, fmt.Errorf("ncipdu: CORE_SET_POWER_SUB_STATE_CMD: short payload")
	}
	return CoreSetPowerSubStateCommand{PowerState: payload[0]}, nil
}

// CoreSetPowerSubStateResponse is CORE_SET_POWER_SUB_STATE_RSP.
type CoreSetPowerSubStateResponse struct {
	Status Status
}

func (r CoreSetPowerSubStateResponse) Encode() []byte {
	return []byte{byte(r.Status)}
}
