// Package controller implements the NFCC state and command engine (C3/C4):
// the config_parameters table, the fixed-capacity logical connection array,
// the discover map, and the handlers that turn Control Commands into
// Responses and Notifications, grounded on
// original_source/tools/casimir/src/controller.rs (State/Controller).
package controller

import "github.com/dotside-studios/nci-simulator/internal/ncipdu"

// MaxLogicalConnections bounds the number of simultaneous logical
// connections the NFCC exposes to the DH (one per MAX_LOGICAL_CONNECTIONS
// in the NCI Forum spec; this core advertises 2, matching the reference
// simulator).
const MaxLogicalConnections = 2

const (
	maxRoutingTableSize         = 512
	maxControlPacketPayloadSize = 255
	maxDataPacketPayloadSize    = 255
	numberOfCredits             = 0
	maxNfcvRfFrameSize          = 512
)

// LogicalConnection describes the DH-facing endpoint bound to a logical
// connection slot. Only RemoteNfcEndpoint destinations are supported.
type LogicalConnection struct {
	RfDiscoveryID  uint8
	RfProtocolType ncipdu.RfProtocolType
}

// State is the mutable NFCC state machine data: accumulated configuration
// parameters, the logical connection table, and the last RF_DISCOVER_MAP
// mapping list. State is only ever touched while the owning Controller's
// mu is locked; it carries no lock of its own.
type State struct {
	ConfigParameters  map[ncipdu.ConfigParameterID][]byte
	LogicalConnections [MaxLogicalConnections]*LogicalConnection
	DiscoverMap        []ncipdu.MappingConfiguration
}

// NewState returns an empty NFCC state, as established at power-on. A
// CORE_RESET_CMD does not replace or clear it, whatever its reset type.
func NewState() *State {
	return &State{
		ConfigParameters: make(map[ncipdu.ConfigParameterID][]byte),
	}
}

// freeConnID returns the lowest unused logical connection slot, mirroring
// the reference simulator's (0..MAX_LOGICAL_CONNECTIONS).find(..) scan.
func (s *State) freeConnID() (uint8, bool) {
	for id := 0; id < MaxLogicalConnections; id++ {
		if s.LogicalConnections[id] == nil {
			return uint8(id), true
		}
	}
	return 0, false
}

// hasConnection reports whether a logical connection identical to conn
// (same destination) already exists, per the NCI Forum rule that a
// (DestinationType, DestinationParameters) pair uniquely identifies a
// single destination for a Logical Connection.
func (s *State) hasConnection(conn LogicalConnection) bool {
	for _, c := range s.LogicalConnections {
		if c != nil && *c == conn {
			return true
		}
	}
	return false
}
