package ncipdu

// RfInterfaceType identifies an RF interface the NFCC can activate.
type RfInterfaceType uint8

const (
	RfInterfaceFrame       RfInterfaceType = 0x01
	RfInterfaceNfceeDirect RfInterfaceType = 0x02
	RfInterfaceIsoDep      RfInterfaceType = 0x03
	RfInterfaceNfcDep      RfInterfaceType = 0x04
)

// RfInterfaceExtensionType identifies an optional extension of an
// RfInterface, such as NFCEE Direct's frame aggregation mode.
type RfInterfaceExtensionType uint8

const (
	RfInterfaceExtensionFrameAggregated RfInterfaceExtensionType = 0x01
)

// RfInterface is one entry of CORE_INIT_RSP's supported_rf_interfaces list.
type RfInterface struct {
	Interface  RfInterfaceType
	Extensions []RfInterfaceExtensionType
}

// MappingConfiguration is one entry of the RF_DISCOVER_MAP_CMD mapping list.
type MappingConfiguration struct {
	RfProtocol  RfProtocolType
	ModeListen  bool
	ModePoll    bool
	RfInterface RfInterfaceType
}

// DeactivationType identifies the depth of RF deactivation requested by
// RF_DEACTIVATE_CMD.
type DeactivationType uint8

const (
	DeactivationIdleMode   DeactivationType = 0x00
	DeactivationSleepMode  DeactivationType = 0x01
	DeactivationSleepAfMode DeactivationType = 0x02
	DeactivationDiscovery  DeactivationType = 0x03
)

// DeactivationReason identifies why RF_DEACTIVATE_NTF was sent.
type DeactivationReason uint8

const (
	DeactivationReasonDhRequest      DeactivationReason = 0x00
	DeactivationReasonEndpointRequest DeactivationReason = 0x01
	DeactivationReasonRfLinkLoss     DeactivationReason = 0x02
	DeactivationReasonBadAfterSak    DeactivationReason = 0x03
)
