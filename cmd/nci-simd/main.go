// Command nci-simd runs the NFC controller simulator: an NCI listener,
// an RF listener, the legacy host transport, and optionally an admin
// surface and mDNS advertisement, all sharing one Scene.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/dotside-studios/nci-simulator/internal/config"
	"github.com/dotside-studios/nci-simulator/internal/device"
	"github.com/dotside-studios/nci-simulator/internal/legacyhost"
	"github.com/dotside-studios/nci-simulator/internal/mdns"
	"github.com/dotside-studios/nci-simulator/internal/metrics"
	"github.com/dotside-studios/nci-simulator/internal/monitor"
	"github.com/dotside-studios/nci-simulator/internal/scene"
)

// version is overwritten at build time via -ldflags.
var version = "dev"

func main() {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:           "nci-simd",
		Short:         "NFC controller simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configFlag := config.BindFlags(rootCmd, v)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, *configFlag)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("nci-simd: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.Default()
	m := metrics.New()
	sc := scene.New(logger)

	nciListener, err := net.Listen("tcp", addr(cfg.NCIPort))
	if err != nil {
		return err
	}
	rfListener, err := net.Listen("tcp", addr(cfg.RFPort))
	if err != nil {
		return err
	}
	legacy, err := legacyhost.Listen(legacyhost.DefaultAddr, logger)
	if err != nil {
		return err
	}

	var admin *monitor.Server
	if cfg.EnableAdmin {
		admin = monitor.New(addr(cfg.AdminPort), m, logger)
	}

	var advertiser *mdns.Advertiser
	if cfg.Advertise {
		advertiser, err = mdns.Register(cfg.NCIPort, cfg.RFPort, version, logger)
		if err != nil {
			logger.Printf("[nci-simd] mdns registration failed, continuing without it: %v", err)
		}
	}
	defer advertiser.Shutdown()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return acceptNCI(gctx, nciListener, sc, m, logger) })
	group.Go(func() error { return acceptRF(gctx, rfListener, sc, m, logger) })
	group.Go(func() error { return legacy.Serve(gctx) })
	group.Go(func() error { sc.Supervise(gctx); return nil })
	if admin != nil {
		group.Go(func() error { return admin.ListenAndServe(gctx) })
	}

	<-gctx.Done()
	logger.Println("[nci-simd] shutting down")

	if err := group.Wait(); err != nil && ctx.Err() != nil {
		// an accept loop returning because its listener was closed during
		// shutdown is expected, not a failure.
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func addr(port int) string {
	return fmt.Sprintf("0.0.0.0:%d", port)
}

func acceptNCI(ctx context.Context, l net.Listener, sc *scene.Scene, m *metrics.Metrics, logger *log.Logger) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		build := device.NewNCIDevice(conn, logger)
		if _, err := sc.AddDevice(func(id uint16) scene.Device { return build(id) }); err != nil {
			logger.Printf("[nci-simd] rejecting nci connection: %v", err)
			conn.Close()
			continue
		}
		m.DeviceConnected("nci")
	}
}

func acceptRF(ctx context.Context, l net.Listener, sc *scene.Scene, m *metrics.Metrics, logger *log.Logger) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		build := device.NewRFDevice(conn, sc, logger)
		if _, err := sc.AddDevice(func(id uint16) scene.Device { return build(id) }); err != nil {
			logger.Printf("[nci-simd] rejecting rf connection: %v", err)
			conn.Close()
			continue
		}
		m.DeviceConnected("rf")
	}
}
