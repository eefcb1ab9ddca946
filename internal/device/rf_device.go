package device

import (
	"log"

	"github.com/dotside-studios/nci-simulator/internal/rf"
)

// RFDevice owns one RF client connection: a bare peer that exchanges RF
// frames with the fabric without speaking NCI at all. It splits the
// socket into C2's length-prefixed Reader/Writer and shuttles frames
// between the socket and the Scene, grounded on spec.md §4.5's "RF
// Device" description (generalized from the reference simulator, which
// has no standalone RF-only peer — there, RF traffic only ever
// originates from an NCI-speaking Device).
type RFDevice struct {
	base
	*rfInbox
	conn   Conn
	fabric fabric
}

// NewRFDevice returns a Builder usable with Scene.AddDevice.
func NewRFDevice(conn Conn, fab fabric, logger *log.Logger) func(id uint16) *RFDevice {
	return func(id uint16) *RFDevice {
		d := &RFDevice{base: newBase(id), rfInbox: newRFInbox(), conn: conn, fabric: fab}
		go d.run(logger)
		return d
	}
}

func (d *RFDevice) run(logger *log.Logger) {
	defer d.conn.Close()
	defer d.rfInbox.close()
	if logger == nil {
		logger = log.Default()
	}

	writer := rf.NewWriter(d.conn)
	outboundErr := make(chan error, 1)
	go func() {
		for p := range d.rfInbox.ch {
			if err := writer.Write(p.Bytes()); err != nil {
				outboundErr <- err
				return
			}
		}
		outboundErr <- nil
	}()

	err := d.readLoop(logger)
	d.rfInbox.close()
	if outErr := <-outboundErr; err == nil {
		err = outErr
	}

	logger.Printf("[rfdevice %d] exiting: %v", d.id, err)
	d.finish(err)
}

// readLoop consumes inbound RF frames from the socket, rewrites their
// sender field to this device's slot id (the only authority binding
// sender to identity, per spec.md §4.5/§8), and submits them to the
// fabric. It returns on the first transport or protocol error.
func (d *RFDevice) readLoop(logger *log.Logger) error {
	reader := rf.NewReader(d.conn)
	for {
		body, err := reader.Read()
		if err != nil {
			return err
		}
		rewritten := rf.WithSender(body, d.id)
		packet, err := rf.ParsePacket(rewritten)
		if err != nil {
			logger.Printf("[rfdevice %d] dropping malformed rf frame: %v", d.id, err)
			continue
		}
		d.fabric.Send(packet)
	}
}
