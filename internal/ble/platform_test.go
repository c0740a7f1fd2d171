package ble

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tinygo.org/x/bluetooth"
)

// fakeRadio stands in for the adapter scan. Scan blocks until release
// receives the value it should return; StopScan releases it with nil.
type fakeRadio struct {
	release chan error
	stops   atomic.Int32
}

func newFakeRadio() *fakeRadio {
	return &fakeRadio{release: make(chan error, 1)}
}

func (r *fakeRadio) scan(func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	return <-r.release
}

func (r *fakeRadio) stop() error {
	r.stops.Add(1)
	select {
	case r.release <- nil:
	default:
	}
	return nil
}

func newTestPlatformGateway(radio *fakeRadio, grace time.Duration) *PlatformGateway {
	g := NewPlatformGateway(PlatformConfig{StaleAfter: DefaultStaleAfter, StartGrace: grace})
	g.enabled = true
	g.scan = radio.scan
	g.stopScan = radio.stop
	return g
}

func TestPlatformGateway_StartScan(t *testing.T) {
	radioOff := errors.New("radio off")
	adapter := platformAdapter{id: DefaultAdapterID}

	tests := []struct {
		name      string
		grace     time.Duration
		setup     func(r *fakeRadio)
		cancelled bool
		wantErr   error // nil means StartScan succeeds
		wantStops int32
	}{
		{
			name:    "scan rejected at start",
			grace:   5 * time.Second,
			setup:   func(r *fakeRadio) { r.release <- radioOff },
			wantErr: radioOff,
		},
		{
			name:    "scan returns at once without error",
			grace:   5 * time.Second,
			setup:   func(r *fakeRadio) { r.release <- nil },
			wantErr: errScanEnded,
		},
		{
			name:      "context cancelled during grace",
			grace:     5 * time.Second,
			cancelled: true,
			wantErr:   context.Canceled,
			wantStops: 1,
		},
		{
			name:  "scan still running after grace",
			grace: 10 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radio := newFakeRadio()
			if tt.setup != nil {
				tt.setup(radio)
			}
			g := newTestPlatformGateway(radio, tt.grace)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancelled {
				cancel()
			}

			err := g.StartScan(ctx, adapter, Filter{})

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("StartScan() error = %v, want nil", err)
				}
				if !g.isScanning() {
					t.Error("isScanning() = false after successful start, want true")
				}
				if err := g.StopScan(adapter); err != nil {
					t.Errorf("StopScan() error = %v", err)
				}
				if g.isScanning() {
					t.Error("isScanning() = true after StopScan, want false")
				}
				return
			}

			var startErr *ScanStartError
			if !errors.As(err, &startErr) {
				t.Fatalf("StartScan() error = %v, want *ScanStartError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("StartScan() error = %v, want wrapping %v", err, tt.wantErr)
			}
			if g.isScanning() {
				t.Error("isScanning() = true after failed start, want false")
			}
			if got := radio.stops.Load(); got != tt.wantStops {
				t.Errorf("StopScan calls = %d, want %d", got, tt.wantStops)
			}
		})
	}
}

func TestPlatformGateway_LateScanFailure(t *testing.T) {
	radio := newFakeRadio()
	g := newTestPlatformGateway(radio, 10*time.Millisecond)
	adapter := platformAdapter{id: DefaultAdapterID}

	if err := g.StartScan(context.Background(), adapter, Filter{}); err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	if _, err := g.Peripherals(context.Background(), adapter); err != nil {
		t.Fatalf("Peripherals() error = %v while scanning", err)
	}

	radio.release <- errors.New("adapter removed")

	deadline := time.Now().Add(5 * time.Second)
	for g.isScanning() {
		if time.Now().After(deadline) {
			t.Fatal("gateway still scanning after the scan failed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := g.Peripherals(context.Background(), adapter)
	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("Peripherals() error = %v, want *EnumerationError", err)
	}
	if !errors.Is(err, ErrNotScanning) {
		t.Errorf("Peripherals() error = %v, want wrapping ErrNotScanning", err)
	}
}

func TestPlatformGateway_StartScanRequiresEnable(t *testing.T) {
	g := newTestPlatformGateway(newFakeRadio(), time.Second)
	g.enabled = false

	err := g.StartScan(context.Background(), platformAdapter{id: DefaultAdapterID}, Filter{})
	var startErr *ScanStartError
	if !errors.As(err, &startErr) {
		t.Errorf("StartScan() error = %v, want *ScanStartError", err)
	}
}
