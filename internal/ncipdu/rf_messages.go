package ncipdu

import "fmt"

// RfDiscoverMapCommand is RF_DISCOVER_MAP_CMD. The mapping list fully
// replaces the NFCC's stored discover_map.
type RfDiscoverMapCommand struct {
	Mappings []MappingConfiguration
}

func ParseRfDiscoverMapCommand(payload []byte) (RfDiscoverMapCommand, error) {
	if len(payload) < 1 {
		return RfDiscoverMapCommand{}, fmt.Errorf("ncipdu: RF_DISCOVER_MAP_CMD: short payload")
	}
	n := int(payload[0])
	rest := payload[1:]
	if len(rest) < n*3 {
		return RfDiscoverMapCommand{}, fmt.Errorf("ncipdu: RF_DISCOVER_MAP_CMD: truncated mappings")
	}
	cmd := RfDiscoverMapCommand{}
	for i := 0; i < n; i++ {
		mode := rest[i*3+1]
		cmd.Mappings = append(cmd.Mappings, MappingConfiguration{
			RfProtocol:  RfProtocolType(rest[i*3]),
			ModePoll:    mode&0x01 != 0,
			ModeListen:  mode&0x02 != 0,
			RfInterface: RfInterfaceType(rest[i*3+2]),
		})
	}
	return cmd, nil
}

// RfDiscoverMapResponse is RF_DISCOVER_MAP_RSP.
type RfDiscoverMapResponse struct {
	Status Status
}

func (r RfDiscoverMapResponse) Encode() []byte { return []byte{byte(r.Status)} }

// RfSetListenModeRoutingCommand is RF_SET_LISTEN_MODE_ROUTING_CMD. Its
// routing-table payload is accepted but not interpreted by this core.
type RfSetListenModeRoutingCommand struct {
	RawEntries []byte
}

func ParseRfSetListenModeRoutingCommand(payload []byte) (RfSetListenModeRoutingCommand, error) {
	return RfSetListenModeRoutingCommand{RawEntries: append([]byte(nil), payload...)}, nil
}

// RfSetListenModeRoutingResponse is RF_SET_LISTEN_MODE_ROUTING_RSP.
type RfSetListenModeRoutingResponse struct {
	Status Status
}

func (r RfSetListenModeRoutingResponse) Encode() []byte { return []byte{byte(r.Status)} }

// RfGetListenModeRoutingCommand is RF_GET_LISTEN_MODE_ROUTING_CMD.
type RfGetListenModeRoutingCommand struct{}

func ParseRfGetListenModeRoutingCommand(payload []byte) (RfGetListenModeRoutingCommand, error) {
	return RfGetListenModeRoutingCommand{}, nil
}

// RfGetListenModeRoutingResponse is RF_GET_LISTEN_MODE_ROUTING_RSP. The
// routing table is always empty in this core.
type RfGetListenModeRoutingResponse struct {
	Status        Status
	MoreToFollow  bool
}

func (r RfGetListenModeRoutingResponse) Encode() []byte {
	more := uint8(0)
	if r.MoreToFollow {
		more = 1
	}
	return []byte{byte(r.Status), more, 0}
}

// RfDiscoverCommand is RF_DISCOVER_CMD. Its discovery-configuration payload
// is accepted but not interpreted by this core.
type RfDiscoverCommand struct {
	RawConfigurations []byte
}

func ParseRfDiscoverCommand(payload []byte) (RfDiscoverCommand, error) {
	return RfDiscoverCommand{RawConfigurations: append([]byte(nil), payload...)}, nil
}

// RfDiscoverResponse is RF_DISCOVER_RSP.
type RfDiscoverResponse struct {
	Status Status
}

func (r RfDiscoverResponse) Encode() []byte { return []byte{byte(r.Status)} }

// RfDeactivateCommand is RF_DEACTIVATE_CMD.
type RfDeactivateCommand struct {
	DeactivationType DeactivationType
}

func ParseRfDeactivateCommand(payload []byte) (RfDeactivateCommand, error) {
	if len(payload) < 1 {
		return RfDeactivateCommand{}, fmt.Errorf("ncipdu: RF_DEACTIVATE_CMD: short payload")
	}
	return RfDeactivateCommand{DeactivationType: DeactivationType(payload[0])}, nil
}

// RfDeactivateResponse is RF_DEACTIVATE_RSP.
type RfDeactivateResponse struct {
	Status Status
}

func (r RfDeactivateResponse) Encode() []byte { return []byte{byte(r.Status)} }

// RfDeactivateNotification is RF_DEACTIVATE_NTF.
type RfDeactivateNotification struct {
	DeactivationType   DeactivationType
	DeactivationReason DeactivationReason
}

func (n RfDeactivateNotification) Encode() []byte {
	return []byte{byte(n.DeactivationType), byte(n.DeactivationReason)}
}

// NfceeDiscoverCommand is NFCEE_DISCOVER_CMD.
type NfceeDiscoverCommand struct{}

func ParseNfceeDiscoverCommand(payload []byte) (NfceeDiscoverCommand, error) {
	return NfceeDiscoverCommand{}, nil
}

// NfceeDiscoverResponse is NFCEE_DISCOVER_RSP. This core never exposes any
// NFCEEs.
type NfceeDiscoverResponse struct {
	Status         Status
	NumberOfNfcees uint8
}

func (r NfceeDiscoverResponse) Encode() []byte {
	return []byte{byte(r.Status), r.NumberOfNfcees}
}
