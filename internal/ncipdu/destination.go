package ncipdu

// DestinationType identifies the kind of peer a CORE_CONN_CREATE_CMD targets.
type DestinationType uint8

const (
	DestinationNfccLoopback   DestinationType = 0x01
	DestinationRemoteNfcEndpoint DestinationType = 0x02
	DestinationNfcee          DestinationType = 0x03
)

// DestinationSpecificParameterID identifies a parameter attached to a
// CORE_CONN_CREATE_CMD destination. Only RfDiscovery is supported by this
// core; any other ID causes the connection request to be rejected.
type DestinationSpecificParameterID uint8

const (
	DestinationParamRfDiscovery DestinationSpecificParameterID = 0x00
)

// DestinationParameter is a single destination-specific parameter as carried
// by CORE_CONN_CREATE_CMD.
type DestinationParameter struct {
	ID    DestinationSpecificParameterID
	Value []byte
}

// RfProtocolType identifies the RF protocol negotiated for a discovered
// remote NFC endpoint.
type RfProtocolType uint8

const (
	RfProtocolUndetermined RfProtocolType = 0x00
	RfProtocolT1T          RfProtocolType = 0x01
	RfProtocolT2T          RfProtocolType = 0x02
	RfProtocolT3T          RfProtocolType = 0x03
	RfProtocolIsoDep       RfProtocolType = 0x04
	RfProtocolNfcDep       RfProtocolType = 0x05
	RfProtocolT5T          RfProtocolType = 0x06
)

func (t RfProtocolType) Valid() bool {
	return t <= RfProtocolT5T
}
