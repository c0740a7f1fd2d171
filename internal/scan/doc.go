// Package scan runs the background loop that keeps the device snapshot
// current.
//
// # Lifecycle
//
// A Loop moves through three states:
//  1. Init: pick an adapter from the gateway. No adapter is fatal.
//  2. ScanStart: start an unfiltered scan on it. Failure is fatal.
//  3. Tick: on a fixed interval, enumerate visible peripherals, read each
//     one's properties and replace the snapshot with the fresh list.
//
// Start performs Init and ScanStart synchronously so the caller can refuse to
// serve when the radio is missing. Run performs the ticks until its context is
// cancelled, then stops the scan.
//
//	loop := scan.New(gateway, store, scan.DefaultConfig())
//	if err := loop.Start(ctx); err != nil {
//	    return err
//	}
//	go loop.Run(ctx)
//
// # Failure Policy
//
// A peripheral whose properties cannot be read is left out of that tick. A
// failed enumeration skips the tick and leaves the snapshot untouched. Neither
// stops the loop.
//
// Enumeration calls go through a circuit breaker. After
// BreakerConfig.MaxFailures consecutive failures the loop stops calling the
// adapter for BreakerConfig.Cooldown and then probes it once. Ticks keep their
// cadence throughout so the snapshot recovers one interval after the radio
// does. Failure warnings are rate limited.
package scan
