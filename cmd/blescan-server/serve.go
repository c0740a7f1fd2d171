package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/blescan/internal/ble"
	"github.com/muurk/blescan/internal/config"
	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/scan"
	"github.com/muurk/blescan/internal/server"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/muurk/blescan/internal/version"
)

// Serve command flags
var (
	configPath  string
	host        string
	port        int
	interval    time.Duration
	adapterID   string
	services    []string
	logLevel    string
	noAdvertise bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start scanning and serve the device list",
	Long: `Start the BLE scan loop and the HTTP server.

The server refuses to start when no Bluetooth adapter is available or the
adapter rejects the scan; in both cases it exits before binding the port.

Settings are read from the config file, then BLESCAN_* environment variables,
then the flags below. Only flags given on the command line override.`,
	Example: `  # Serve on port 3000 with a 2s scan interval
  blescan-server serve

  # Custom port and faster refresh
  blescan-server serve --port 8080 --interval 1s

  # Only report heart-rate monitors, without mDNS advertisement
  blescan-server serve --service 180d --no-advertise

  # Use a specific config file with debug logging
  blescan-server serve --config ./blescan.yaml --log-level debug`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")
	flags.StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	flags.IntVar(&port, "port", 3000, "Listen port")
	flags.DurationVar(&interval, "interval", scan.DefaultInterval, "Scan interval")
	flags.StringVar(&adapterID, "adapter", "", "Bluetooth adapter ID (empty = first available)")
	flags.StringSliceVar(&services, "service", nil, "Only report peripherals advertising this service UUID (repeatable)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.BoolVar(&noAdvertise, "no-advertise", false, "Disable mDNS advertisement")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	logging.Info("Starting blescan-server",
		zap.String("version", version.Version),
		zap.String("addr", cfg.Addr()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := ble.NewPlatformGateway(ble.PlatformConfig{
		StaleAfter: cfg.Scan.StaleAfter,
		StartGrace: ble.DefaultStartGrace,
	})
	return serve(ctx, cfg, gateway)
}

// applyFlags overrides cfg with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("interval") {
		cfg.Scan.Interval = interval
	}
	if flags.Changed("adapter") {
		cfg.Scan.Adapter = adapterID
	}
	if flags.Changed("service") {
		cfg.Scan.Services = services
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("no-advertise") {
		cfg.Advertise.Enabled = !noAdvertise
	}
}

// serve runs the scan loop and the HTTP server until ctx is cancelled.
// Adapter and scan-start failures are returned before the listener binds.
func serve(ctx context.Context, cfg *config.Config, gateway ble.Gateway) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := snapshot.NewStore()
	loop := scan.New(gateway, store, scan.Config{
		Interval:  cfg.Scan.Interval,
		AdapterID: cfg.Scan.Adapter,
		Filter:    ble.Filter{Services: cfg.Scan.Services},
		Breaker: scan.BreakerConfig{
			MaxFailures: cfg.Scan.Breaker.MaxFailures,
			Cooldown:    cfg.Scan.Breaker.Cooldown,
		},
	})

	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scanning: %w", err)
	}

	srv, err := server.New(&server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Advertise:       cfg.Advertise.Enabled,
		Instance:        cfg.Advertise.Instance,
	}, store, loop)
	if err == nil {
		err = srv.Listen()
	}
	if err != nil {
		_ = gateway.StopScan(loop.Adapter())
		return err
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
	}()

	serveErr := srv.Serve(ctx)

	// Serve also returns when the listener fails; stop the loop either way.
	cancel()
	if err := <-loopDone; err != nil {
		logging.Error("Scan loop failed", zap.Error(err))
	}

	if serveErr == nil {
		logging.Info("blescan-server stopped")
	}
	return serveErr
}
