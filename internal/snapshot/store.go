package snapshot

import (
	"sync"
	"time"
)

// Snapshot is one consistent view of the store.
type Snapshot struct {
	Devices    []Device
	Generation uint64
	UpdatedAt  time.Time
}

// Store is the shared container for the current device list.
type Store struct {
	mu         sync.RWMutex
	devices    []Device
	generation uint64
	updatedAt  time.Time
	changed    chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		devices: []Device{},
		changed: make(chan struct{}),
	}
}

// Replace installs devices as the current list, discarding the old one.
func (s *Store) Replace(devices []Device) {
	next := make([]Device, len(devices))
	copy(next, devices)

	s.mu.Lock()
	s.devices = next
	s.generation++
	s.updatedAt = time.Now()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Read returns a copy of the current list. It is never nil.
func (s *Store) Read() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Snapshot returns the current list together with its generation.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return Snapshot{
		Devices:    out,
		Generation: s.generation,
		UpdatedAt:  s.updatedAt,
	}
}

// Generation returns the number of completed Replace calls.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// UpdatedAt returns the time of the last Replace, or the zero time before
// the first one.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Changed returns a channel that is closed by the next Replace.
func (s *Store) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}
