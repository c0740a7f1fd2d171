// Package ble is the gateway between blescan and the platform Bluetooth Low
// Energy stack.
//
// The rest of the program never talks to the radio directly. It consumes the
// Gateway interface, which exposes exactly four capabilities:
//   - list the adapters present on the host
//   - start a scan on one adapter
//   - enumerate the peripherals that are currently visible
//   - read the advertised name and address of one peripheral
//
// # Platform Gateway
//
// PlatformGateway implements Gateway on top of tinygo.org/x/bluetooth. The
// underlying scan is callback driven, so the gateway keeps an address-keyed
// cache of advertisements and answers enumeration requests from it. Entries
// that have not advertised within PlatformConfig.StaleAfter are evicted.
//
//	gw := ble.NewPlatformGateway(ble.DefaultPlatformConfig())
//	adapters, err := gw.Adapters(ctx)
//	if err != nil {
//	    return err // ble.ErrNoAdapterFound when no radio is present
//	}
//	if err := gw.StartScan(ctx, adapters[0], ble.Filter{}); err != nil {
//	    return err // *ble.ScanStartError
//	}
//
// # Errors
//
// Each gateway operation fails with its own error type so callers can decide
// what is fatal (no adapter, scan start) and what is transient (enumeration,
// properties read). All of them work with errors.Is and errors.As.
//
// # Testing
//
// Package bletest provides a scripted in-memory Gateway for tests.
package ble
