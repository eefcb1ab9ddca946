// Package mdns implements the optional discovery advertisement (A5),
// adapted from the teacher's server.startMDNS.
package mdns

import (
	"fmt"
	"log"

	"github.com/grandcat/zeroconf"
)

const (
	ServiceName = "nci-simulator"
	ServiceType = "_nci-sim._tcp"
	Domain      = "local."
)

// Advertiser wraps the registered zeroconf service so it can be shut down
// on simulator exit.
type Advertiser struct {
	server *zeroconf.Server
	log    *log.Logger
}

// Register advertises this instance on the local network. nciPort and
// rfPort are published as TXT records so discovering clients know which
// ports to dial without a separate lookup.
func Register(nciPort, rfPort int, version string, logger *log.Logger) (*Advertiser, error) {
	if logger == nil {
		logger = log.Default()
	}
	txtRecords := []string{
		fmt.Sprintf("nci-port=%d", nciPort),
		fmt.Sprintf("rf-port=%d", rfPort),
		fmt.Sprintf("version=%s", version),
	}

	server, err := zeroconf.Register(ServiceName, ServiceType, Domain, nciPort, txtRecords, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns: register: %w", err)
	}

	logger.Printf("[mdns] advertising %s on nci-port=%d rf-port=%d", ServiceType, nciPort, rfPort)
	return &Advertiser{server: server, log: logger}, nil
}

// Shutdown withdraws the advertisement. Safe to call on a nil Advertiser.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.log.Printf("[mdns] advertisement withdrawn")
}
