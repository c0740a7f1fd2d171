package ble

import (
	"errors"
	"fmt"
)

// ErrNoAdapterFound is returned when the host has no usable Bluetooth adapter.
var ErrNoAdapterFound = errors.New("no bluetooth adapter found")

// ErrNotScanning is returned when peripherals are requested before a scan
// was started on the adapter.
var ErrNotScanning = errors.New("adapter is not scanning")

// ScanStartError indicates the adapter refused to start discovery.
type ScanStartError struct {
	Adapter string
	Err     error
}

func (e *ScanStartError) Error() string {
	return fmt.Sprintf("failed to start scan on adapter %s: %v", e.Adapter, e.Err)
}

func (e *ScanStartError) Unwrap() error {
	return e.Err
}

// EnumerationError indicates the adapter could not list its peripherals.
type EnumerationError struct {
	Adapter string
	Err     error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate peripherals on adapter %s: %v", e.Adapter, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// PropertiesReadError indicates one peripheral's properties could not be read.
type PropertiesReadError struct {
	Peripheral string
	Err        error
}

func (e *PropertiesReadError) Error() string {
	return fmt.Sprintf("failed to read properties of peripheral %s: %v", e.Peripheral, e.Err)
}

func (e *PropertiesReadError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err prevents the service from running at all.
// Missing adapters and scan start failures are fatal; everything else is
// treated as transient.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoAdapterFound) {
		return true
	}
	var startErr *ScanStartError
	return errors.As(err, &startErr)
}
