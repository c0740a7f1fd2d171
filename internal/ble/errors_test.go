package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypes_Unwrap(t *testing.T) {
	cause := errors.New("radio off")

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "scan start",
			err:     &ScanStartError{Adapter: "hci0", Err: cause},
			message: "failed to start scan on adapter hci0",
		},
		{
			name:    "enumeration",
			err:     &EnumerationError{Adapter: "hci0", Err: cause},
			message: "failed to enumerate peripherals on adapter hci0",
		},
		{
			name:    "properties read",
			err:     &PropertiesReadError{Peripheral: "AA:BB", Err: cause},
			message: "failed to read properties of peripheral AA:BB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, cause) {
				t.Errorf("errors.Is(%v, cause) = false, want true", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.message) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.message)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no adapter", ErrNoAdapterFound, true},
		{"wrapped no adapter", fmt.Errorf("init: %w", ErrNoAdapterFound), true},
		{"scan start", &ScanStartError{Adapter: "default", Err: context.Canceled}, true},
		{"wrapped scan start", fmt.Errorf("start: %w", &ScanStartError{Adapter: "default"}), true},
		{"enumeration", &EnumerationError{Adapter: "default"}, false},
		{"properties", &PropertiesReadError{Peripheral: "x"}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFilter_String(t *testing.T) {
	if got := (Filter{}).String(); got != "none" {
		t.Errorf("Filter{}.String() = %q, want %q", got, "none")
	}

	f := Filter{Services: []string{"180d", "180f"}}
	if got := f.String(); got != "services=180d,180f" {
		t.Errorf("Filter.String() = %q, want %q", got, "services=180d,180f")
	}
	if f.IsEmpty() {
		t.Error("Filter.IsEmpty() = true, want false")
	}
}

func TestParseFilter_InvalidUUID(t *testing.T) {
	if _, err := parseFilter(Filter{Services: []string{"not-a-uuid"}}); err == nil {
		t.Error("parseFilter() error = nil, want error for invalid UUID")
	}
}
