package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Device is one peripheral visible in a scan tick.
type Device struct {
	// Name is the advertised local name, nil if the peripheral sent none
	Name *string `json:"name"`

	// Address is the BLE address (e.g., "AA:BB:CC:DD:EE:01")
	Address string `json:"address"`
}

// NewDevice builds a Device that owns its own copy of name.
func NewDevice(name *string, address string) Device {
	d := Device{Address: address}
	if name != nil {
		n := *name
		d.Name = &n
	}
	return d
}

// DisplayName returns the advertised name or a placeholder
func (d Device) DisplayName() string {
	if d.Name == nil {
		return "(unnamed)"
	}
	return *d.Name
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s [%s]", d.DisplayName(), d.Address)
}

// Encode serializes devices as a JSON array. A nil or empty list encodes
// as [] rather than null.
func Encode(devices []Device) ([]byte, error) {
	if devices == nil {
		devices = []Device{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(devices); err != nil {
		return nil, fmt.Errorf("failed to encode devices: %w", err)
	}
	return buf.Bytes(), nil
}
