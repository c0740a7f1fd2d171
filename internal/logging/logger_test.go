package logging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentWithoutLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger enabled at error level, want silent nop logger")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info enabled, want only warn and above")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn disabled, want enabled")
	}
}

func TestDomainHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogHTTPRequest("127.0.0.1:5000", "GET", "/devices", 200, 3, time.Millisecond)
	LogScanTick(4, 2, 1, time.Millisecond)
	LogPeripheralSkipped("AA:BB", errors.New("gone"))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}

	if got := entries[0].ContextMap()["path"]; got != "/devices" {
		t.Errorf("path field = %v, want /devices", got)
	}
	if got := entries[1].ContextMap()["generation"]; got != uint64(4) {
		t.Errorf("generation field = %v, want 4", got)
	}
	if got := entries[2].ContextMap()["error"]; got != "gone" {
		t.Errorf("error field = %v, want gone", got)
	}
}

func TestSetLogger_ConcurrentUse(t *testing.T) {
	defer SetLogger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetLogger(zap.NewNop())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				LogConnection("127.0.0.1:5000", "stream_opened")
				Sync()
			}
		}()
	}
	wg.Wait()

	SetLogger(nil)
	if GetLogger() == nil {
		t.Error("GetLogger() = nil after SetLogger(nil), want nop logger")
	}
}
