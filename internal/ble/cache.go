package ble

import (
	"sort"
	"sync"
	"time"
)

// cacheEntry is the last advertisement seen from one address.
type cacheEntry struct {
	name      string
	address   string
	rssi      int16
	firstSeen time.Time
	lastSeen  time.Time
	seq       uint64
}

// peripheralCache collects advertisements delivered by a callback-driven scan
// so they can be enumerated on demand. Entries keep the order in which their
// address was first seen.
type peripheralCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	staleAfter time.Duration
	nextSeq    uint64
}

func newPeripheralCache(staleAfter time.Duration) *peripheralCache {
	return &peripheralCache{
		entries:    make(map[string]*cacheEntry),
		staleAfter: staleAfter,
	}
}

// observe records an advertisement. An empty name never overwrites a name
// already learned for the address, since scan responses and plain
// advertisements arrive separately.
func (c *peripheralCache) observe(address, name string, rssi int16, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[address]
	if !ok {
		c.nextSeq++
		e = &cacheEntry{
			address:   address,
			firstSeen: now,
			seq:       c.nextSeq,
		}
		c.entries[address] = e
	}
	if name != "" {
		e.name = name
	}
	e.rssi = rssi
	e.lastSeen = now
}

// visible evicts stale entries and returns the addresses still visible,
// in first-seen order.
func (c *peripheralCache) visible(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make([]*cacheEntry, 0, len(c.entries))
	for addr, e := range c.entries {
		if c.staleAfter > 0 && now.Sub(e.lastSeen) > c.staleAfter {
			delete(c.entries, addr)
			continue
		}
		live = append(live, e)
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].seq < live[j].seq
	})

	addrs := make([]string, len(live))
	for i, e := range live {
		addrs[i] = e.address
	}
	return addrs
}

// lookup returns a copy of the entry for address.
func (c *peripheralCache) lookup(address string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[address]
	if !ok {
		return cacheEntry{}, false
	}
	return *e, true
}

// reset drops every entry
func (c *peripheralCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
