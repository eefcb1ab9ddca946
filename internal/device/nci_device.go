package device

import (
	"context"
	"log"

	"github.com/dotside-studios/nci-simulator/internal/controller"
	"github.com/dotside-studios/nci-simulator/internal/nci"
)

// NCIDevice owns one NCI client connection. It constructs C1's
// Reader/Writer over the socket and runs the Controller Engine (C4)
// against them until an I/O or protocol error ends the connection. It
// also holds a Scene slot so RF frames addressed to it (e.g. from an RF
// Device acting as a peer endpoint) reach the running controller.
type NCIDevice struct {
	base
	*rfInbox
	conn Conn
}

// NewNCIDevice returns a Builder usable with Scene.AddDevice: it accepts
// the slot id assigned by the Scene and spawns the device's goroutine.
func NewNCIDevice(conn Conn, logger *log.Logger) func(id uint16) *NCIDevice {
	return func(id uint16) *NCIDevice {
		d := &NCIDevice{base: newBase(id), rfInbox: newRFInbox(), conn: conn}
		go d.run(logger)
		return d
	}
}

func (d *NCIDevice) run(logger *log.Logger) {
	defer d.conn.Close()
	defer d.rfInbox.close()
	if logger == nil {
		logger = log.Default()
	}

	ctrl := controller.New(d.id, nci.NewWriter(d.conn), logger)
	reader := nci.NewReader(d.conn)

	rawIngress := make(chan []byte, rfIngressCapacity)
	go func() {
		for p := range d.rfInbox.ch {
			rawIngress <- p.Bytes()
		}
		close(rawIngress)
	}()

	err := ctrl.Run(context.Background(), reader, rawIngress)
	logger.Printf("[device %d] nci device exiting: %v", d.id, err)
	d.finish(err)
}
