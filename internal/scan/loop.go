package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/blescan/internal/ble"
	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultInterval is the time between scan ticks
	DefaultInterval = 2 * time.Second

	// DefaultMaxFailures is the number of consecutive enumeration failures
	// that opens the circuit breaker
	DefaultMaxFailures uint32 = 5

	// DefaultCooldown is how long the breaker stays open
	DefaultCooldown = 30 * time.Second

	// warnEvery bounds how often per-tick failures are logged at warn level
	warnEvery = 30 * time.Second
)

// ErrNotStarted is returned by Run when Start has not succeeded.
var ErrNotStarted = errors.New("scan loop not started")

// BreakerConfig configures the enumeration circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the breaker opens
	MaxFailures uint32

	// Cooldown is how long the breaker stays open before a probe
	Cooldown time.Duration
}

// Config configures a Loop.
type Config struct {
	// Interval is the time between ticks
	Interval time.Duration

	// AdapterID selects an adapter by ID; empty selects the first
	AdapterID string

	// Filter is passed to StartScan; the zero value accepts everything
	Filter ble.Filter

	Breaker BreakerConfig
}

// DefaultConfig returns the default loop settings
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Breaker: BreakerConfig{
			MaxFailures: DefaultMaxFailures,
			Cooldown:    DefaultCooldown,
		},
	}
}

// TickResult describes the outcome of one tick.
type TickResult struct {
	// Published is true when the snapshot was replaced
	Published bool

	// Generation is the store generation after the tick
	Generation uint64

	// Devices is the number of devices published
	Devices int

	// Skipped is the number of peripherals left out
	Skipped int

	// Err is the enumeration error when the tick was skipped
	Err error

	Duration time.Duration
}

// Stats are counters kept across ticks.
type Stats struct {
	Ticks               uint64
	FailedTicks         uint64
	ConsecutiveFailures uint64
	SkippedPeripherals  uint64
	LastTick            time.Time
	LastSuccess         time.Time
}

// Loop keeps a snapshot.Store current from a ble.Gateway.
type Loop struct {
	gateway ble.Gateway
	store   *snapshot.Store
	config  Config

	adapter ble.Adapter
	breaker *gobreaker.CircuitBreaker[[]ble.Peripheral]
	warn    *rate.Limiter

	mu    sync.Mutex
	stats Stats
}

// New creates a Loop. Zero values in config fall back to the defaults.
func New(gateway ble.Gateway, store *snapshot.Store, config Config) *Loop {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Breaker.MaxFailures == 0 {
		config.Breaker.MaxFailures = DefaultMaxFailures
	}
	if config.Breaker.Cooldown <= 0 {
		config.Breaker.Cooldown = DefaultCooldown
	}

	l := &Loop{
		gateway: gateway,
		store:   store,
		config:  config,
		warn:    rate.NewLimiter(rate.Every(warnEvery), 1),
	}

	maxFailures := config.Breaker.MaxFailures
	l.breaker = gobreaker.NewCircuitBreaker[[]ble.Peripheral](gobreaker.Settings{
		Name:        "ble-enumeration",
		MaxRequests: 1,
		Timeout:     config.Breaker.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fields := []zap.Field{
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			}
			if to == gobreaker.StateOpen {
				logging.Error("BLE enumeration failing repeatedly, pausing adapter calls",
					append(fields, zap.Duration("cooldown", config.Breaker.Cooldown))...)
				return
			}
			logging.Warn("Circuit breaker state change", fields...)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return l
}

// Adapter returns the adapter chosen by Start, or nil.
func (l *Loop) Adapter() ble.Adapter {
	return l.adapter
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// BreakerState returns the enumeration circuit breaker state.
func (l *Loop) BreakerState() gobreaker.State {
	return l.breaker.State()
}

// Start selects an adapter and starts the scan. Both failures are fatal
// and are returned as ble.ErrNoAdapterFound or *ble.ScanStartError.
func (l *Loop) Start(ctx context.Context) error {
	adapter, err := l.selectAdapter(ctx)
	if err != nil {
		return err
	}

	if err := l.gateway.StartScan(ctx, adapter, l.config.Filter); err != nil {
		var startErr *ble.ScanStartError
		if !errors.As(err, &startErr) {
			err = &ble.ScanStartError{Adapter: adapter.ID(), Err: err}
		}
		return err
	}

	l.adapter = adapter
	logging.Info("Scanning for devices",
		zap.String("adapter", adapter.ID()),
		zap.Duration("interval", l.config.Interval),
	)
	return nil
}

func (l *Loop) selectAdapter(ctx context.Context) (ble.Adapter, error) {
	adapters, err := l.gateway.Adapters(ctx)
	if err != nil {
		if errors.Is(err, ble.ErrNoAdapterFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list adapters: %w: %v", ble.ErrNoAdapterFound, err)
	}
	if len(adapters) == 0 {
		return nil, ble.ErrNoAdapterFound
	}

	if l.config.AdapterID == "" {
		return adapters[0], nil
	}
	for _, a := range adapters {
		if a.ID() == l.config.AdapterID {
			return a, nil
		}
	}
	return nil, fmt.Errorf("adapter %q: %w", l.config.AdapterID, ble.ErrNoAdapterFound)
}

// Run ticks immediately and then every interval until ctx is cancelled.
// On return the scan has been stopped.
func (l *Loop) Run(ctx context.Context) error {
	if l.adapter == nil {
		return ErrNotStarted
	}
	defer l.stop()

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		l.Tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) stop() {
	if err := l.gateway.StopScan(l.adapter); err != nil {
		logging.Warn("Failed to stop scan",
			zap.String("adapter", l.adapter.ID()),
			zap.Error(err),
		)
		return
	}
	logging.Info("Scan loop stopped", zap.String("adapter", l.adapter.ID()))
}

// Tick runs one enumeration and publishes the result. A failed enumeration
// leaves the snapshot as it was. A tick interrupted by ctx publishes nothing.
func (l *Loop) Tick(ctx context.Context) TickResult {
	start := time.Now()
	result := l.tick(ctx)
	result.Duration = time.Since(start)
	l.record(result, start)

	if result.Published {
		logging.LogScanTick(result.Generation, result.Devices, result.Skipped, result.Duration)
	}
	return result
}

func (l *Loop) tick(ctx context.Context) TickResult {
	peripherals, err := l.breaker.Execute(func() ([]ble.Peripheral, error) {
		return l.gateway.Peripherals(ctx, l.adapter)
	})
	if err != nil {
		l.logTickFailure(err)
		return TickResult{Err: err, Generation: l.store.Generation()}
	}

	devices := make([]snapshot.Device, 0, len(peripherals))
	skipped := 0
	for _, p := range peripherals {
		props, ok, err := l.gateway.Properties(ctx, p)
		if err != nil || !ok {
			skipped++
			logging.LogPeripheralSkipped(p.ID(), err)
			continue
		}
		devices = append(devices, snapshot.NewDevice(props.Name, props.Address))
	}

	if ctx.Err() != nil {
		return TickResult{Err: ctx.Err(), Skipped: skipped, Generation: l.store.Generation()}
	}

	l.store.Replace(devices)
	return TickResult{
		Published:  true,
		Generation: l.store.Generation(),
		Devices:    len(devices),
		Skipped:    skipped,
	}
}

func (l *Loop) record(result TickResult, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Ticks++
	l.stats.LastTick = at
	l.stats.SkippedPeripherals += uint64(result.Skipped)
	if result.Published {
		l.stats.ConsecutiveFailures = 0
		l.stats.LastSuccess = at
		return
	}
	l.stats.FailedTicks++
	l.stats.ConsecutiveFailures++
}

func (l *Loop) logTickFailure(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Debug("Scan tick skipped, circuit open", zap.String("adapter", l.adapter.ID()))
		return
	}
	if l.warn.Allow() {
		logging.Warn("Scan tick skipped, enumeration failed",
			zap.String("adapter", l.adapter.ID()),
			zap.Uint64("consecutive_failures", l.Stats().ConsecutiveFailures+1),
			zap.Error(err),
		)
		return
	}
	logging.Debug("Scan tick skipped, enumeration failed", zap.Error(err))
}
