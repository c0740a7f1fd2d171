package ble

import (
	"context"
	"strings"
)

// Adapter is a handle to one local Bluetooth radio.
type Adapter interface {
	// ID identifies the adapter (e.g., "hci0" or "default")
	ID() string
}

// Peripheral is a handle to one remote device seen by a scan.
type Peripheral interface {
	// ID identifies the peripheral within its adapter, usually the address
	ID() string
}

// Properties holds what a peripheral advertises about itself.
type Properties struct {
	// Name is the advertised local name, nil when the peripheral sends none
	Name *string

	// Address is the text form of the BLE address (e.g., "AA:BB:CC:DD:EE:01")
	Address string

	// RSSI is the last received signal strength in dBm
	RSSI int16
}

// Filter restricts which advertisements a scan accepts.
// The zero value accepts every advertising peripheral.
type Filter struct {
	// Services lists service UUIDs; a peripheral must advertise at least one
	Services []string
}

// IsEmpty reports whether the filter accepts everything.
func (f Filter) IsEmpty() bool {
	return len(f.Services) == 0
}

// String returns a short description of the filter for logging
func (f Filter) String() string {
	if f.IsEmpty() {
		return "none"
	}
	return "services=" + strings.Join(f.Services, ",")
}

// Gateway is the capability blescan needs from the platform BLE stack.
type Gateway interface {
	// Adapters lists local radios. It fails with ErrNoAdapterFound when
	// there are none.
	Adapters(ctx context.Context) ([]Adapter, error)

	// StartScan begins discovery on adapter. It fails with *ScanStartError.
	StartScan(ctx context.Context, adapter Adapter, filter Filter) error

	// Peripherals returns the peripherals currently visible to adapter.
	// It fails with *EnumerationError.
	Peripherals(ctx context.Context, adapter Adapter) ([]Peripheral, error)

	// Properties reads the advertised properties of p. The boolean is false
	// when the platform currently has nothing for p. It fails with
	// *PropertiesReadError.
	Properties(ctx context.Context, p Peripheral) (Properties, bool, error)

	// StopScan ends the scan started by StartScan.
	StopScan(adapter Adapter) error
}
