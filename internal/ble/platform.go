package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/blescan/internal/logging"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

const (
	// DefaultAdapterID names the platform default adapter
	DefaultAdapterID = "default"

	// DefaultStaleAfter is how long a silent peripheral stays visible
	DefaultStaleAfter = 30 * time.Second

	// DefaultStartGrace is how long StartScan waits for an early scan failure
	DefaultStartGrace = 500 * time.Millisecond
)

// errScanEnded is reported when the platform scan returns right after start.
var errScanEnded = errors.New("scan ended immediately")

// PlatformConfig configures PlatformGateway.
type PlatformConfig struct {
	// StaleAfter evicts peripherals that have not advertised for this long.
	// Zero keeps them until the scan stops.
	StaleAfter time.Duration

	// StartGrace is how long StartScan waits for the platform to reject the
	// scan before reporting success.
	StartGrace time.Duration
}

// DefaultPlatformConfig returns the default platform settings
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		StaleAfter: DefaultStaleAfter,
		StartGrace: DefaultStartGrace,
	}
}

type platformAdapter struct {
	id string
}

func (a platformAdapter) ID() string { return a.id }

type platformPeripheral struct {
	address string
}

func (p platformPeripheral) ID() string { return p.address }

// PlatformGateway implements Gateway with tinygo.org/x/bluetooth.
// Only the platform default adapter is supported.
type PlatformGateway struct {
	adapter *bluetooth.Adapter
	config  PlatformConfig
	cache   *peripheralCache
	now     func() time.Time

	// scan and stopScan drive the radio; they default to the adapter methods
	scan     func(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	stopScan func() error

	mu       sync.Mutex
	enabled  bool
	scanning bool
	scanDone chan struct{}
}

// NewPlatformGateway creates a gateway bound to the platform default adapter.
func NewPlatformGateway(config PlatformConfig) *PlatformGateway {
	if config.StartGrace <= 0 {
		config.StartGrace = DefaultStartGrace
	}
	adapter := bluetooth.DefaultAdapter
	return &PlatformGateway{
		adapter:  adapter,
		config:   config,
		cache:    newPeripheralCache(config.StaleAfter),
		now:      time.Now,
		scan:     adapter.Scan,
		stopScan: adapter.StopScan,
	}
}

// Adapters enables the default adapter and returns it.
func (g *PlatformGateway) Adapters(ctx context.Context) ([]Adapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.enabled {
		if err := g.adapter.Enable(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoAdapterFound, err)
		}
		g.enabled = true
		logging.Info("Bluetooth adapter enabled", zap.String("adapter", DefaultAdapterID))
	}

	return []Adapter{platformAdapter{id: DefaultAdapterID}}, nil
}

// StartScan runs the platform scan in the background. Advertisements that
// pass filter are recorded in the peripheral cache.
func (g *PlatformGateway) StartScan(ctx context.Context, adapter Adapter, filter Filter) error {
	uuids, err := parseFilter(filter)
	if err != nil {
		return &ScanStartError{Adapter: adapter.ID(), Err: err}
	}

	g.mu.Lock()
	if !g.enabled {
		g.mu.Unlock()
		return &ScanStartError{Adapter: adapter.ID(), Err: errors.New("adapter not enabled")}
	}
	if g.scanning {
		g.mu.Unlock()
		return &ScanStartError{Adapter: adapter.ID(), Err: errors.New("scan already running")}
	}
	g.scanning = true
	g.scanDone = make(chan struct{})
	done := g.scanDone
	g.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		defer close(done)
		errCh <- g.scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matchesFilter(result, uuids) {
				return
			}
			g.cache.observe(result.Address.String(), result.LocalName(), result.RSSI, g.now())
		})
	}()

	timer := time.NewTimer(g.config.StartGrace)
	defer timer.Stop()

	select {
	case err := <-errCh:
		g.markStopped()
		if err == nil {
			err = errScanEnded
		}
		return &ScanStartError{Adapter: adapter.ID(), Err: err}
	case <-ctx.Done():
		_ = g.StopScan(adapter)
		return &ScanStartError{Adapter: adapter.ID(), Err: ctx.Err()}
	case <-timer.C:
	}

	// Late failures end the scan; enumeration then reports ErrNotScanning.
	go func() {
		if err := <-errCh; err != nil {
			logging.Error("Bluetooth scan stopped with error",
				zap.String("adapter", adapter.ID()),
				zap.Error(err),
			)
		}
		g.markStopped()
	}()

	logging.Info("Bluetooth scan started",
		zap.String("adapter", adapter.ID()),
		zap.String("filter", filter.String()),
	)
	return nil
}

// Peripherals returns the peripherals seen within StaleAfter.
func (g *PlatformGateway) Peripherals(ctx context.Context, adapter Adapter) ([]Peripheral, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EnumerationError{Adapter: adapter.ID(), Err: err}
	}
	if !g.isScanning() {
		return nil, &EnumerationError{Adapter: adapter.ID(), Err: ErrNotScanning}
	}

	addrs := g.cache.visible(g.now())
	peripherals := make([]Peripheral, len(addrs))
	for i, addr := range addrs {
		peripherals[i] = platformPeripheral{address: addr}
	}
	return peripherals, nil
}

// Properties returns the cached advertisement for p. It reports false when
// p was evicted since it was enumerated.
func (g *PlatformGateway) Properties(ctx context.Context, p Peripheral) (Properties, bool, error) {
	if err := ctx.Err(); err != nil {
		return Properties{}, false, &PropertiesReadError{Peripheral: p.ID(), Err: err}
	}

	e, ok := g.cache.lookup(p.ID())
	if !ok {
		return Properties{}, false, nil
	}

	props := Properties{
		Address: e.address,
		RSSI:    e.rssi,
	}
	if e.name != "" {
		name := e.name
		props.Name = &name
	}
	return props, true, nil
}

// StopScan stops the platform scan and waits for it to return.
func (g *PlatformGateway) StopScan(adapter Adapter) error {
	g.mu.Lock()
	if !g.scanning {
		g.mu.Unlock()
		return nil
	}
	done := g.scanDone
	g.mu.Unlock()

	if err := g.stopScan(); err != nil {
		return fmt.Errorf("failed to stop scan on adapter %s: %w", adapter.ID(), err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logging.Warn("Timed out waiting for scan to stop", zap.String("adapter", adapter.ID()))
	}

	g.markStopped()
	g.cache.reset()
	logging.Info("Bluetooth scan stopped", zap.String("adapter", adapter.ID()))
	return nil
}

func (g *PlatformGateway) isScanning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scanning
}

func (g *PlatformGateway) markStopped() {
	g.mu.Lock()
	g.scanning = false
	g.mu.Unlock()
}

func parseFilter(filter Filter) ([]bluetooth.UUID, error) {
	uuids := make([]bluetooth.UUID, 0, len(filter.Services))
	for _, s := range filter.Services {
		uuid, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid service UUID %q: %w", s, err)
		}
		uuids = append(uuids, uuid)
	}
	return uuids, nil
}

func matchesFilter(result bluetooth.ScanResult, uuids []bluetooth.UUID) bool {
	if len(uuids) == 0 {
		return true
	}
	for _, uuid := range uuids {
		if result.HasServiceUUID(uuid) {
			return true
		}
	}
	return false
}

var _ Gateway = (*PlatformGateway)(nil)
