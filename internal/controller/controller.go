package controller

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotside-studios/nci-simulator/internal/ncierr"
	"github.com/dotside-studios/nci-simulator/internal/ncipdu"
)

const nciVersionMajor, nciVersionMinor = 1, 1

const tickInterval = 5 * time.Millisecond

// PacketReader is the read side of the NCI transport (internal/nci.Reader).
type PacketReader interface {
	Read() ([]byte, error)
}

// PacketWriter is the write side of the NCI transport (internal/nci.Writer).
type PacketWriter interface {
	Write(packet []byte) error
}

// RFIngress delivers RF frames addressed to this device from the fabric.
// The base core does not yet interpret RF traffic reaching an NCI device
// (see receiveRF); it exists so the ingress loop has a real channel to
// select against instead of blocking forever.
type RFIngress <-chan []byte

// Controller is one NFCC instance: it owns State, an NCI writer, and an RF
// ingress channel, and runs the three concurrent activities described by
// the reference simulator's Controller::run.
type Controller struct {
	id     uint16
	writer PacketWriter

	mu    sync.Mutex
	state State

	log *log.Logger
}

// New creates an NFCC instance with default (empty) configuration. id
// identifies the controller in log lines only.
func New(id uint16, writer PacketWriter, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		id:     id,
		writer: writer,
		state:  *NewState(),
		log:    logger,
	}
}

func (c *Controller) sendControl(mt ncipdu.MessageType, gid ncipdu.GroupID, oid uint8, payload []byte) error {
	packet := ncipdu.BuildControlPacket(mt, gid, oid, payload)
	if err := c.writer.Write(packet); err != nil {
		return ncierr.Wrap(ncierr.KindTransport, "Controller.sendControl", err)
	}
	return nil
}

func (c *Controller) respond(gid ncipdu.GroupID, oid uint8, payload []byte) error {
	return c.sendControl(ncipdu.MessageTypeResponse, gid, oid, payload)
}

func (c *Controller) notify(gid ncipdu.GroupID, oid uint8, payload []byte) error {
	return c.sendControl(ncipdu.MessageTypeNotification, gid, oid, payload)
}

// Run drives one NFCC instance to completion: it emits the power-on
// CORE_RESET_NTF, then joins the NCI ingress loop, the RF ingress loop, and
// the tick loop with fail-on-first-error semantics, exactly as
// original_source/tools/casimir/src/controller.rs's try_join3 does.
func (c *Controller) Run(ctx context.Context, reader PacketReader, rfIngress RFIngress) error {
	if err := c.notify(ncipdu.GroupIDCore, ncipdu.OidCoreReset, ncipdu.CoreResetNotification{
		Trigger:      ncipdu.ResetTriggerPowerOn,
		ConfigStatus: ncipdu.ConfigStatusConfigReset,
		NciVersion:   ncipdu.NciVersion{Major: nciVersionMajor, Minor: nciVersionMinor},
	}.Encode()); err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return c.nciLoop(ctx, reader) })
	group.Go(func() error { return c.rfLoop(ctx, rfIngress) })
	group.Go(func() error { return c.tickLoop(ctx) })

	return group.Wait()
}

func (c *Controller) nciLoop(ctx context.Context, reader PacketReader) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		packet, err := reader.Read()
		if err != nil {
			return err
		}
		header, err := ncipdu.ParseHeader(packet[:ncipdu.HeaderLength])
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "Controller.nciLoop", err)
		}

		switch header.MT {
		case ncipdu.MessageTypeCommand:
			if err := c.receiveCommand(header, packet[ncipdu.HeaderLength:]); err != nil {
				return err
			}
		case ncipdu.MessageTypeData:
			if err := c.receiveData(header, packet[ncipdu.HeaderLength:]); err != nil {
				return err
			}
		default:
			return ncierr.New(ncierr.KindProtocol, "Controller.nciLoop",
				"unexpected message type %v in received NCI packet", header.MT)
		}
	}
}

func (c *Controller) rfLoop(ctx context.Context, rfIngress RFIngress) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-rfIngress:
			if !ok {
				return ncierr.New(ncierr.KindFatal, "Controller.rfLoop", "rf ingress channel closed")
			}
			if err := c.receiveRF(frame); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.tick(); err != nil {
				return err
			}
		}
	}
}

// tick is invoked at a regular interval and is reserved for discovery
// timers and polling cadence; the base core has none yet.
func (c *Controller) tick() error { return nil }

// receiveData handles NCI Data packets addressed to a logical connection.
// The base core does not emulate any device behind a logical connection,
// so inbound Data is accepted and discarded; nothing is echoed back.
func (c *Controller) receiveData(header ncipdu.PacketHeader, payload []byte) error {
	c.log.Printf("[controller %d] data connId=%d len=%d (discarded)", c.id, header.ConnID, len(payload))
	return nil
}

// receiveRF handles an RF frame the fabric delivered to this NFCC. The base
// core does not yet bridge RF traffic into a logical connection's Data
// stream; frames are logged and dropped.
func (c *Controller) receiveRF(frame []byte) error {
	c.log.Printf("[controller %d] rf frame len=%d (discarded)", c.id, len(frame))
	return nil
}

func (c *Controller) receiveCommand(header ncipdu.PacketHeader, payload []byte) error {
	switch header.GID {
	case ncipdu.GroupIDCore:
		return c.dispatchCore(header.OID, payload)
	case ncipdu.GroupIDRfManagement:
		return c.dispatchRf(header.OID, payload)
	case ncipdu.GroupIDNfcee:
		return c.dispatchNfcee(header.OID, payload)
	default:
		return &ncipdu.UnsupportedOpcodeError{GID: header.GID, OID: header.OID}
	}
}

func (c *Controller) dispatchCore(oid uint8, payload []byte) error {
	switch oid {
	case ncipdu.OidCoreReset:
		cmd, err := ncipdu.ParseCoreResetCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_RESET_CMD", err)
		}
		return c.coreReset(cmd)
	case ncipdu.OidCoreInit:
		cmd, err := ncipdu.ParseCoreInitCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_INIT_CMD", err)
		}
		return c.coreInit(cmd)
	case ncipdu.OidCoreSetConfig:
		cmd, err := ncipdu.ParseCoreSetConfigCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_SET_CONFIG_CMD", err)
		}
		return c.coreSetConfig(cmd)
	case ncipdu.OidCoreGetConfig:
		cmd, err := ncipdu.ParseCoreGetConfigCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_GET_CONFIG_CMD", err)
		}
		return c.coreGetConfig(cmd)
	case ncipdu.OidCoreConnCreate:
		cmd, err := ncipdu.ParseCoreConnCreateCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_CONN_CREATE_CMD", err)
		}
		return c.coreConnCreate(cmd)
	case ncipdu.OidCoreConnClose:
		cmd, err := ncipdu.ParseCoreConnCloseCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_CONN_CLOSE_CMD", err)
		}
		return c.coreConnClose(cmd)
	case ncipdu.OidCoreSetPowerSubState:
		cmd, err := ncipdu.ParseCoreSetPowerSubStateCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "CORE_SET_POWER_SUB_STATE_CMD", err)
		}
		return c.coreSetPowerSubState(cmd)
	default:
		return &ncipdu.UnsupportedOpcodeError{GID: ncipdu.GroupIDCore, OID: oid}
	}
}

func (c *Controller) dispatchRf(oid uint8, payload []byte) error {
	switch oid {
	case ncipdu.OidRfDiscoverMap:
		cmd, err := ncipdu.ParseRfDiscoverMapCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "RF_DISCOVER_MAP_CMD", err)
		}
		return c.rfDiscoverMap(cmd)
	case ncipdu.OidRfSetListenModeRouting:
		cmd, err := ncipdu.ParseRfSetListenModeRoutingCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "RF_SET_LISTEN_MODE_ROUTING_CMD", err)
		}
		return c.rfSetListenModeRouting(cmd)
	case ncipdu.OidRfGetListenModeRouting:
		cmd, err := ncipdu.ParseRfGetListenModeRoutingCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "RF_GET_LISTEN_MODE_ROUTING_CMD", err)
		}
		return c.rfGetListenModeRouting(cmd)
	case ncipdu.OidRfDiscover:
		cmd, err := ncipdu.ParseRfDiscoverCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "RF_DISCOVER_CMD", err)
		}
		return c.rfDiscover(cmd)
	case ncipdu.OidRfDeactivate:
		cmd, err := ncipdu.ParseRfDeactivateCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "RF_DEACTIVATE_CMD", err)
		}
		return c.rfDeactivate(cmd)
	default:
		return &ncipdu.UnsupportedOpcodeError{GID: ncipdu.GroupIDRfManagement, OID: oid}
	}
}

func (c *Controller) dispatchNfcee(oid uint8, payload []byte) error {
	switch oid {
	case ncipdu.OidNfceeDiscover:
		cmd, err := ncipdu.ParseNfceeDiscoverCommand(payload)
		if err != nil {
			return ncierr.Wrap(ncierr.KindProtocol, "NFCEE_DISCOVER_CMD", err)
		}
		return c.nfceeDiscover(cmd)
	default:
		return &ncipdu.UnsupportedOpcodeError{GID: ncipdu.GroupIDNfcee, OID: oid}
	}
}
