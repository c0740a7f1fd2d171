package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/blescan/internal/version"
)

const mockDevicesResponse = `[{"name":"Sensor-A","address":"AA:BB:CC:DD:EE:01"},{"name":null,"address":"AA:BB:CC:DD:EE:02"}]`

func TestNew(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://192.168.1.20:3000", "http://192.168.1.20:3000"},
		{"http://192.168.1.20:3000/", "http://192.168.1.20:3000"},
		{"localhost:3000", "http://localhost:3000"},
		{"https://scanner.lan", "https://scanner.lan"},
	}

	for _, tt := range tests {
		c := New(tt.in)
		if c.BaseURL != tt.want {
			t.Errorf("New(%q).BaseURL = %v, want %v", tt.in, c.BaseURL, tt.want)
		}
		if c.HTTPClient == nil || c.HTTPClient.Timeout != DefaultTimeout {
			t.Errorf("New(%q) HTTPClient timeout not %v", tt.in, DefaultTimeout)
		}
	}
}

func TestSetTimeoutAndRetry(t *testing.T) {
	c := New("localhost:3000")
	c.SetTimeout(time.Second)
	c.SetRetry(5, 2*time.Second)

	if c.HTTPClient.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", c.HTTPClient.Timeout)
	}
	if c.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", c.MaxRetries)
	}
	if c.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", c.RetryDelay)
	}
}

func TestDevices(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices" {
			http.NotFound(w, r)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mockDevicesResponse + "\n"))
	}))
	defer srv.Close()

	devices, err := New(srv.URL).Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if devices[0].Name == nil || *devices[0].Name != "Sensor-A" {
		t.Errorf("devices[0].Name = %v, want Sensor-A", devices[0].Name)
	}
	if devices[1].Name != nil {
		t.Errorf("devices[1].Name = %v, want nil", *devices[1].Name)
	}
	if devices[1].Address != "AA:BB:CC:DD:EE:02" {
		t.Errorf("devices[1].Address = %v, want AA:BB:CC:DD:EE:02", devices[1].Address)
	}
	if gotUA != version.UserAgent() {
		t.Errorf("User-Agent = %v, want %v", gotUA, version.UserAgent())
	}
}

func TestDevices_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]\n"))
	}))
	defer srv.Close()

	devices, err := New(srv.URL).Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("Devices() = %v, want empty non-nil slice", devices)
	}
}

func TestDevices_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  Kind
		wantCalls int32
	}{
		{"not found is not retried", http.StatusNotFound, "", KindHTTP, 1},
		{"server error is retried", http.StatusInternalServerError, "", KindHTTP, 3},
		{"invalid JSON", http.StatusOK, "<html>", KindParse, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			c.SetRetry(2, time.Millisecond)

			_, err := c.Devices(context.Background())
			if err == nil {
				t.Fatal("Devices() error = nil, want error")
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.wantKind)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestDevices_RetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(mockDevicesResponse))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetRetry(2, time.Millisecond)

	devices, err := c.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("len(devices) = %d, want 2", len(devices))
	}
}

func TestDevices_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	c.SetRetry(0, 0)

	_, err := c.Devices(context.Background())
	if err == nil {
		t.Fatal("Devices() error = nil, want error")
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Kind != KindConnectionRefused {
		t.Errorf("Kind = %v, want %v", e.Kind, KindConnectionRefused)
	}
	if Hint(err) == "" {
		t.Error("Hint() is empty for connection refused")
	}
}

func TestDevices_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetRetry(3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Devices(ctx)
	if err == nil {
		t.Fatal("Devices() error = nil, want error")
	}
	if IsRetryable(err) {
		t.Errorf("IsRetryable(%v) = true, want false", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Devices() did not stop on context cancel")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"degraded","version":"1.2.0","generation":7,"devices":3,"updated_at":null,"scan":{"ticks":9,"failed_ticks":2,"consecutive_failures":2,"skipped_peripherals":0,"last_success":null}}`))
	}))
	defer srv.Close()

	health, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if health.Status != "degraded" {
		t.Errorf("Status = %v, want degraded", health.Status)
	}
	if health.Generation != 7 || health.Devices != 3 {
		t.Errorf("Generation/Devices = %d/%d, want 7/3", health.Generation, health.Devices)
	}
	if health.Scan == nil || health.Scan.ConsecutiveFailures != 2 {
		t.Errorf("Scan = %+v, want consecutive_failures 2", health.Scan)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNetwork, "network error"},
		{KindTimeout, "timeout"},
		{KindConnectionRefused, "connection refused"},
		{KindHTTP, "HTTP error"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %v, want %v", int(tt.kind), got, tt.want)
		}
	}
}

func TestError_Message(t *testing.T) {
	err := newHTTPError(http.StatusTeapot)
	if !strings.Contains(err.Error(), "418") {
		t.Errorf("Error() = %v, want status code", err.Error())
	}
	if err.Retryable {
		t.Error("4xx error should not be retryable")
	}
}
