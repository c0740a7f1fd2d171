// Package bletest provides a scripted in-memory ble.Gateway for tests.
package bletest

import (
	"context"
	"sync"

	"github.com/muurk/blescan/internal/ble"
)

// Adapter is a fake adapter handle.
type Adapter string

// ID implements ble.Adapter.
func (a Adapter) ID() string { return string(a) }

// Peripheral is a fake peripheral handle identified by address.
type Peripheral string

// ID implements ble.Peripheral.
func (p Peripheral) ID() string { return string(p) }

// Device is one scripted peripheral.
type Device struct {
	Name    *string
	Address string

	// ReadErr makes the properties read for this device fail
	ReadErr error

	// Missing makes the properties read report nothing available
	Missing bool
}

// Tick is the scripted outcome of one Peripherals call.
type Tick struct {
	Devices []Device

	// Err makes Peripherals fail for this call
	Err error
}

// Gateway is a ble.Gateway driven by a script of ticks. Each Peripherals call
// consumes the next tick; once the script is exhausted the last tick repeats.
type Gateway struct {
	mu sync.Mutex

	// AdapterIDs are returned by Adapters; empty means ErrNoAdapterFound
	AdapterIDs []string

	// AdaptersErr makes Adapters fail
	AdaptersErr error

	// StartErr makes StartScan fail
	StartErr error

	ticks   []Tick
	current map[string]Device

	started         bool
	stopped         bool
	startCalls      int
	peripheralCalls int
	lastFilter      ble.Filter

	// calls receives a value after every Peripherals call, if non-nil
	calls chan int
}

// NewGateway returns a gateway with one adapter named "hci0" and the given script.
func NewGateway(ticks ...Tick) *Gateway {
	return &Gateway{
		AdapterIDs: []string{"hci0"},
		ticks:      ticks,
		current:    make(map[string]Device),
	}
}

// Name returns a pointer to name, for building scripted devices
func Name(name string) *string {
	return &name
}

// Notify returns a channel that receives the call count after every
// Peripherals call.
func (g *Gateway) Notify() <-chan int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(chan int, 64)
	}
	return g.calls
}

// SetTicks replaces the remaining script.
func (g *Gateway) SetTicks(ticks ...Tick) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ticks = ticks
}

// Adapters implements ble.Gateway.
func (g *Gateway) Adapters(ctx context.Context) ([]ble.Adapter, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.AdaptersErr != nil {
		return nil, g.AdaptersErr
	}
	if len(g.AdapterIDs) == 0 {
		return nil, ble.ErrNoAdapterFound
	}
	adapters := make([]ble.Adapter, len(g.AdapterIDs))
	for i, id := range g.AdapterIDs {
		adapters[i] = Adapter(id)
	}
	return adapters, nil
}

// StartScan implements ble.Gateway.
func (g *Gateway) StartScan(ctx context.Context, adapter ble.Adapter, filter ble.Filter) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.startCalls++
	g.lastFilter = filter
	if g.StartErr != nil {
		return &ble.ScanStartError{Adapter: adapter.ID(), Err: g.StartErr}
	}
	g.started = true
	return nil
}

// Peripherals implements ble.Gateway.
func (g *Gateway) Peripherals(ctx context.Context, adapter ble.Adapter) ([]ble.Peripheral, error) {
	g.mu.Lock()
	defer func() {
		n := g.peripheralCalls
		calls := g.calls
		g.mu.Unlock()
		if calls != nil {
			select {
			case calls <- n:
			default:
			}
		}
	}()

	g.peripheralCalls++
	if !g.started {
		return nil, &ble.EnumerationError{Adapter: adapter.ID(), Err: ble.ErrNotScanning}
	}

	var tick Tick
	switch {
	case len(g.ticks) == 0:
	case len(g.ticks) == 1:
		tick = g.ticks[0]
	default:
		tick = g.ticks[0]
		g.ticks = g.ticks[1:]
	}

	if tick.Err != nil {
		return nil, &ble.EnumerationError{Adapter: adapter.ID(), Err: tick.Err}
	}

	g.current = make(map[string]Device, len(tick.Devices))
	peripherals := make([]ble.Peripheral, len(tick.Devices))
	for i, d := range tick.Devices {
		g.current[d.Address] = d
		peripherals[i] = Peripheral(d.Address)
	}
	return peripherals, nil
}

// Properties implements ble.Gateway.
func (g *Gateway) Properties(ctx context.Context, p ble.Peripheral) (ble.Properties, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d, ok := g.current[p.ID()]
	if !ok || d.Missing {
		return ble.Properties{}, false, nil
	}
	if d.ReadErr != nil {
		return ble.Properties{}, false, &ble.PropertiesReadError{Peripheral: p.ID(), Err: d.ReadErr}
	}
	return ble.Properties{Name: d.Name, Address: d.Address}, true, nil
}

// StopScan implements ble.Gateway.
func (g *Gateway) StopScan(adapter ble.Adapter) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started = false
	g.stopped = true
	return nil
}

// Stopped reports whether StopScan was called.
func (g *Gateway) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// StartCalls returns how many times StartScan was called.
func (g *Gateway) StartCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startCalls
}

// PeripheralCalls returns how many times Peripherals was called.
func (g *Gateway) PeripheralCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peripheralCalls
}

// LastFilter returns the filter passed to the last StartScan call.
func (g *Gateway) LastFilter() ble.Filter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFilter
}

var _ ble.Gateway = (*Gateway)(nil)
