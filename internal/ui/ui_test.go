package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/blescan/internal/discovery"
	"github.com/muurk/blescan/internal/snapshot"
)

func strPtr(s string) *string { return &s }

func TestRenderDeviceTable(t *testing.T) {
	devices := []snapshot.Device{
		snapshot.NewDevice(strPtr("Sensor-A"), "AA:BB:CC:DD:EE:01"),
		snapshot.NewDevice(nil, "AA:BB:CC:DD:EE:02"),
	}

	out := RenderDeviceTable(devices)

	for _, want := range []string{"NAME", "ADDRESS", "Sensor-A", "AA:BB:CC:DD:EE:01", "(unnamed)", "AA:BB:CC:DD:EE:02", "2 devices"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDeviceTable() missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "Sensor-A") > strings.Index(out, "(unnamed)") {
		t.Error("RenderDeviceTable() does not keep scan order")
	}
}

func TestRenderDeviceTable_Empty(t *testing.T) {
	out := RenderDeviceTable(nil)
	if !strings.Contains(out, "0 devices") {
		t.Errorf("RenderDeviceTable(nil) = %q, want 0 devices", out)
	}
}

func TestDeviceCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 devices"},
		{1, "1 device"},
		{12, "12 devices"},
	}

	for _, tt := range tests {
		if got := DeviceCount(tt.n); got != tt.want {
			t.Errorf("DeviceCount(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRenderServerTable(t *testing.T) {
	services := []*discovery.Service{{
		Instance: "kitchen-pi",
		Hostname: "kitchen-pi.local.",
		IP:       "192.168.1.20",
		Port:     3000,
		Metadata: map[string]string{discovery.TxtVersion: "1.2.0"},
	}}

	out := RenderServerTable(services)

	for _, want := range []string{"kitchen-pi", "http://192.168.1.20:3000", "kitchen-pi.local", "1.2.0", "1 server(s) found"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderServerTable() missing %q in:\n%s", want, out)
		}
	}
}

func TestHeader_Render(t *testing.T) {
	h := NewHeader("Nearby devices", "blescan list",
		Param{Key: "Server", Value: "http://localhost:3000"},
		Param{Key: "Generation", Value: "7"},
	).SetWidth(80)

	out := h.Render()

	for _, want := range []string{"NEARBY DEVICES", "blescan list", "Server:", "http://localhost:3000", "Generation:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "Server:") > strings.Index(out, "Generation:") {
		t.Error("Render() does not keep parameter order")
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(20)

	if p.Width() != MinTerminalWidth {
		t.Errorf("Width() = %d, want %d", p.Width(), MinTerminalWidth)
	}

	p.PrintError("Could not fetch devices", errors.New("connection refused"), "Is blescan-server running?")
	p.PrintServers(nil)

	out := buf.String()
	for _, want := range []string{"Could not fetch devices", "Error: connection refused", "Is blescan-server running?", "No blescan servers found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q in:\n%s", want, out)
		}
	}
}
