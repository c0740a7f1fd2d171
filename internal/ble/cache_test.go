package ble

import (
	"testing"
	"time"
)

func TestPeripheralCache_VisibleOrder(t *testing.T) {
	c := newPeripheralCache(30 * time.Second)
	now := time.Now()

	c.observe("AA:BB:CC:DD:EE:02", "", -60, now)
	c.observe("AA:BB:CC:DD:EE:01", "Sensor-A", -50, now.Add(time.Second))
	c.observe("AA:BB:CC:DD:EE:02", "", -61, now.Add(2*time.Second))

	got := c.visible(now.Add(3 * time.Second))
	want := []string{"AA:BB:CC:DD:EE:02", "AA:BB:CC:DD:EE:01"}

	if len(got) != len(want) {
		t.Fatalf("visible() returned %d addresses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visible()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPeripheralCache_EvictsStale(t *testing.T) {
	c := newPeripheralCache(10 * time.Second)
	now := time.Now()

	c.observe("old", "", -70, now)
	c.observe("fresh", "", -70, now.Add(9*time.Second))

	got := c.visible(now.Add(15 * time.Second))
	if len(got) != 1 || got[0] != "fresh" {
		t.Errorf("visible() = %v, want [fresh]", got)
	}

	if _, ok := c.lookup("old"); ok {
		t.Error("lookup(old) found an evicted entry")
	}
}

func TestPeripheralCache_ZeroStaleAfterKeepsEverything(t *testing.T) {
	c := newPeripheralCache(0)
	now := time.Now()

	c.observe("a", "", -70, now)

	if got := c.visible(now.Add(24 * time.Hour)); len(got) != 1 {
		t.Errorf("visible() = %v, want one entry", got)
	}
}

func TestPeripheralCache_KeepsLearnedName(t *testing.T) {
	c := newPeripheralCache(time.Minute)
	now := time.Now()

	c.observe("a", "Thermo", -40, now)
	c.observe("a", "", -45, now.Add(time.Second))

	e, ok := c.lookup("a")
	if !ok {
		t.Fatal("lookup(a) = not found, want entry")
	}
	if e.name != "Thermo" {
		t.Errorf("entry.name = %q, want %q", e.name, "Thermo")
	}
	if e.rssi != -45 {
		t.Errorf("entry.rssi = %v, want %v", e.rssi, -45)
	}
}

func TestPeripheralCache_Reset(t *testing.T) {
	c := newPeripheralCache(time.Minute)
	c.observe("a", "", -40, time.Now())
	c.reset()

	if got := c.visible(time.Now()); len(got) != 0 {
		t.Errorf("visible() after reset = %v, want empty", got)
	}
}
