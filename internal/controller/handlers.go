package controller

import "github.com/dotside-studios/nci-simulator/internal/ncipdu"

func (c *Controller) coreReset(cmd ncipdu.CoreResetCommand) error {
	c.log.Printf("[controller %d] core_reset resetType=%v", c.id, cmd.ResetType)

	configStatus := ncipdu.ConfigStatusConfigKept
	if cmd.ResetType == ncipdu.ResetTypeResetConfig {
		configStatus = ncipdu.ConfigStatusConfigReset
	}

	if err := c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreReset, ncipdu.CoreResetResponse{
		Status: ncipdu.StatusOK,
	}.Encode()); err != nil {
		return err
	}

	return c.notify(ncipdu.GroupIDCore, ncipdu.OidCoreReset, ncipdu.CoreResetNotification{
		Trigger:      ncipdu.ResetTriggerResetCommand,
		ConfigStatus: configStatus,
		NciVersion:   ncipdu.NciVersion{Major: nciVersionMajor, Minor: nciVersionMinor},
	}.Encode())
}

func (c *Controller) coreInit(_ ncipdu.CoreInitCommand) error {
	c.log.Printf("[controller %d] core_init", c.id)

	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreInit, ncipdu.CoreInitResponse{
		Status:                      ncipdu.StatusOK,
		NfccFeatures:                ncipdu.NfccFeatures{}, // every optional feature disabled
		MaxLogicalConnections:       MaxLogicalConnections,
		MaxRoutingTableSize:         maxRoutingTableSize,
		MaxControlPacketPayloadSize: maxControlPacketPayloadSize,
		MaxDataPacketPayloadSize:    maxDataPacketPayloadSize,
		NumberOfCredits:             numberOfCredits,
		MaxNfcvRfFrameSize:          maxNfcvRfFrameSize,
		SupportedRfInterfaces: []ncipdu.RfInterface{
			{Interface: ncipdu.RfInterfaceFrame},
			{Interface: ncipdu.RfInterfaceNfceeDirect, Extensions: []ncipdu.RfInterfaceExtensionType{ncipdu.RfInterfaceExtensionFrameAggregated}},
			{Interface: ncipdu.RfInterfaceNfcDep},
		},
	}.Encode())
}

func (c *Controller) coreSetConfig(cmd ncipdu.CoreSetConfigCommand) error {
	c.log.Printf("[controller %d] core_set_config count=%d", c.id, len(cmd.Parameters))

	var invalid []ncipdu.ConfigParameterID

	c.mu.Lock()
	for _, p := range cmd.Parameters {
		if p.ID.IsRfu() {
			invalid = append(invalid, p.ID)
			continue
		}
		c.state.ConfigParameters[p.ID] = p.Value
	}
	c.mu.Unlock()

	status := ncipdu.StatusOK
	if len(invalid) > 0 {
		c.log.Printf("[controller %d] rejecting unknown configuration parameter ids: %v", c.id, invalid)
		status = ncipdu.StatusInvalidParam
	}

	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreSetConfig, ncipdu.CoreSetConfigResponse{
		Status:          status,
		InvalidParamIDs: invalid,
	}.Encode())
}

func (c *Controller) coreGetConfig(cmd ncipdu.CoreGetConfigCommand) error {
	c.log.Printf("[controller %d] core_get_config count=%d", c.id, len(cmd.ParameterIDs))

	var valid, invalid []ncipdu.ConfigParameter

	c.mu.Lock()
	for _, id := range cmd.ParameterIDs {
		if value, ok := c.state.ConfigParameters[id]; ok {
			valid = append(valid, ncipdu.ConfigParameter{ID: id, Value: value})
		} else {
			invalid = append(invalid, ncipdu.ConfigParameter{ID: id})
		}
	}
	c.mu.Unlock()

	if len(invalid) == 0 {
		return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreGetConfig, ncipdu.CoreGetConfigResponse{
			Status:     ncipdu.StatusOK,
			Parameters: valid,
		}.Encode())
	}
	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreGetConfig, ncipdu.CoreGetConfigResponse{
		Status:     ncipdu.StatusInvalidParam,
		Parameters: invalid,
	}.Encode())
}

func (c *Controller) coreConnCreate(cmd ncipdu.CoreConnCreateCommand) error {
	c.log.Printf("[controller %d] core_conn_create", c.id)

	c.mu.Lock()
	connID, status := c.tryCreateConnection(cmd)
	c.mu.Unlock()

	if status != ncipdu.StatusOK {
		return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreConnCreate, ncipdu.CoreConnCreateResponse{
			Status:                 status,
			InitialNumberOfCredits: 0xFF,
		}.Encode())
	}
	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreConnCreate, ncipdu.CoreConnCreateResponse{
		Status:                   ncipdu.StatusOK,
		MaxDataPacketPayloadSize: maxDataPacketPayloadSize,
		InitialNumberOfCredits:   0xFF,
		ConnID:                   connID,
	}.Encode())
}

// tryCreateConnection runs under c.mu and mirrors the reference
// simulator's closure-based result chain: find a free slot, validate the
// destination, check for duplicates, and only then commit the slot.
func (c *Controller) tryCreateConnection(cmd ncipdu.CoreConnCreateCommand) (uint8, ncipdu.Status) {
	connID, ok := c.state.freeConnID()
	if !ok {
		return 0, ncipdu.StatusRejected
	}

	if cmd.DestinationType != ncipdu.DestinationRemoteNfcEndpoint {
		return 0, ncipdu.StatusRejected
	}

	var rfDiscoveryID *uint8
	var rfProtocolType *ncipdu.RfProtocolType
	for _, p := range cmd.Parameters {
		if p.ID != ncipdu.DestinationParamRfDiscovery {
			return 0, ncipdu.StatusRejected
		}
		if len(p.Value) >= 1 {
			v := p.Value[0]
			rfDiscoveryID = &v
		}
		if len(p.Value) >= 2 {
			t := ncipdu.RfProtocolType(p.Value[1])
			rfProtocolType = &t
		}
	}
	if rfDiscoveryID == nil || rfProtocolType == nil {
		return 0, ncipdu.StatusRejected
	}

	conn := LogicalConnection{RfDiscoveryID: *rfDiscoveryID, RfProtocolType: *rfProtocolType}
	if c.state.hasConnection(conn) {
		return 0, ncipdu.StatusRejected
	}

	c.state.LogicalConnections[connID] = &conn
	return connID, ncipdu.StatusOK
}

func (c *Controller) coreConnClose(cmd ncipdu.CoreConnCloseCommand) error {
	c.log.Printf("[controller %d] core_conn_close connId=%d", c.id, cmd.ConnID)

	status := ncipdu.StatusRejected

	c.mu.Lock()
	if int(cmd.ConnID) < MaxLogicalConnections && c.state.LogicalConnections[cmd.ConnID] != nil {
		c.state.LogicalConnections[cmd.ConnID] = nil
		status = ncipdu.StatusOK
	}
	c.mu.Unlock()

	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreConnClose, ncipdu.CoreConnCloseResponse{Status: status}.Encode())
}

func (c *Controller) coreSetPowerSubState(cmd ncipdu.CoreSetPowerSubStateCommand) error {
	c.log.Printf("[controller %d] core_set_power_sub_state powerState=%d", c.id, cmd.PowerState)
	return c.respond(ncipdu.GroupIDCore, ncipdu.OidCoreSetPowerSubState, ncipdu.CoreSetPowerSubStateResponse{
		Status: ncipdu.StatusOK,
	}.Encode())
}

func (c *Controller) rfDiscoverMap(cmd ncipdu.RfDiscoverMapCommand) error {
	c.log.Printf("[controller %d] rf_discover_map count=%d", c.id, len(cmd.Mappings))

	c.mu.Lock()
	c.state.DiscoverMap = cmd.Mappings
	c.mu.Unlock()

	return c.respond(ncipdu.GroupIDRfManagement, ncipdu.OidRfDiscoverMap, ncipdu.RfDiscoverMapResponse{
		Status: ncipdu.StatusOK,
	}.Encode())
}

func (c *Controller) rfSetListenModeRouting(_ ncipdu.RfSetListenModeRoutingCommand) error {
	c.log.Printf("[controller %d] rf_set_listen_mode_routing", c.id)
	return c.respond(ncipdu.GroupIDRfManagement, ncipdu.OidRfSetListenModeRouting, ncipdu.RfSetListenModeRoutingResponse{
		Status: ncipdu.StatusOK,
	}.Encode())
}

func (c *Controller) rfGetListenModeRouting(_ ncipdu.RfGetListenModeRoutingCommand) error {
	c.log.Printf("[controller %d] rf_get_listen_mode_routing", c.id)
	return c.respond(ncipdu.GroupIDRfManagement, ncipdu.OidRfGetListenModeRouting, ncipdu.RfGetListenModeRoutingResponse{
		Status:       ncipdu.StatusOK,
		MoreToFollow: false,
	}.Encode())
}

func (c *Controller) rfDiscover(_ ncipdu.RfDiscoverCommand) error {
	c.log.Printf("[controller %d] rf_discover", c.id)
	return c.respond(ncipdu.GroupIDRfManagement, ncipdu.OidRfDiscover, ncipdu.RfDiscoverResponse{
		Status: ncipdu.StatusOK,
	}.Encode())
}

func (c *Controller) rfDeactivate(cmd ncipdu.RfDeactivateCommand) error {
	c.log.Printf("[controller %d] rf_deactivate type=%v", c.id, cmd.DeactivationType)

	if err := c.respond(ncipdu.GroupIDRfManagement, ncipdu.OidRfDeactivate, ncipdu.RfDeactivateResponse{
		Status: ncipdu.StatusOK,
	}.Encode()); err != nil {
		return err
	}

	return c.notify(ncipdu.GroupIDRfManagement, ncipdu.OidRfDeactivate, ncipdu.RfDeactivateNotification{
		DeactivationType:   cmd.DeactivationType,
		DeactivationReason: ncipdu.DeactivationReasonDhRequest,
	}.Encode())
}

func (c *Controller) nfceeDiscover(_ ncipdu.NfceeDiscoverCommand) error {
	c.log.Printf("[controller %d] nfcee_discover", c.id)
	return c.respond(ncipdu.GroupIDNfcee, ncipdu.OidNfceeDiscover, ncipdu.NfceeDiscoverResponse{
		Status:         ncipdu.StatusOK,
		NumberOfNfcees: 0,
	}.Encode())
}
