package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !contains(configDir, "blescan") {
		t.Errorf("GetConfigDir() = %v, should contain 'blescan'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "blescan") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/blescan", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("Default().Server.Port = %v, want 3000", cfg.Server.Port)
	}
	if cfg.Server.Host != "" {
		t.Errorf("Default().Server.Host = %q, want all interfaces", cfg.Server.Host)
	}
	if cfg.Scan.Interval != 2*time.Second {
		t.Errorf("Default().Scan.Interval = %v, want 2s", cfg.Scan.Interval)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Default().Addr() = %v, want :3000", cfg.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero interval", func(c *Config) { c.Scan.Interval = 0 }, "scan.interval"},
		{"negative stale", func(c *Config) { c.Scan.StaleAfter = -time.Second }, "scan.stale_after"},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown_timeout"},
		{"bad version", func(c *Config) { c.Version = 2 }, "unsupported config version"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Errorf("Validate() error type = %T, want ValidationErrors", err)
			}
			if !contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Scan.Interval = 0

	var verrs ValidationErrors
	if !errors.As(cfg.Validate(), &verrs) {
		t.Fatal("Validate() did not return ValidationErrors")
	}
	if len(verrs) != 2 {
		t.Errorf("len(ValidationErrors) = %v, want 2", len(verrs))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `version: 1
server:
  port: 8080
scan:
  interval: 500ms
  adapter: hci1
  breaker:
    max_failures: 3
advertise:
  enabled: false
log_level: debug
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Scan.Interval != 500*time.Millisecond {
		t.Errorf("Scan.Interval = %v, want 500ms", cfg.Scan.Interval)
	}
	if cfg.Scan.Adapter != "hci1" {
		t.Errorf("Scan.Adapter = %v, want hci1", cfg.Scan.Adapter)
	}
	if cfg.Scan.Breaker.MaxFailures != 3 {
		t.Errorf("Scan.Breaker.MaxFailures = %v, want 3", cfg.Scan.Breaker.MaxFailures)
	}
	// Unset keys keep their defaults
	if cfg.Scan.Breaker.Cooldown != 30*time.Second {
		t.Errorf("Scan.Breaker.Cooldown = %v, want default 30s", cfg.Scan.Breaker.Cooldown)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want default 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Advertise.Enabled {
		t.Error("Advertise.Enabled = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	badVersion := filepath.Join(dir, "v2.yaml")
	if err := os.WriteFile(badVersion, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(badVersion); err == nil || !contains(err.Error(), "unsupported config version") {
		t.Errorf("LoadFile(version 2) error = %v, want unsupported version", err)
	}

	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("server: [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(badYAML); err == nil {
		t.Error("LoadFile(bad yaml) error = nil, want parse error")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOCALAPPDATA", t.TempDir())
	t.Setenv(EnvPort, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %v, want 3000", cfg.Server.Port)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing explicit path) error = nil, want error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvHost:         "127.0.0.1",
		EnvPort:         "9000",
		EnvScanInterval: "5s",
		EnvAdapter:      "hci2",
		EnvAdvertise:    "false",
		EnvLogLevel:     "WARN",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %v, want 127.0.0.1:9000", cfg.Addr())
	}
	if cfg.Scan.Interval != 5*time.Second {
		t.Errorf("Scan.Interval = %v, want 5s", cfg.Scan.Interval)
	}
	if cfg.Scan.Adapter != "hci2" {
		t.Errorf("Scan.Adapter = %v, want hci2", cfg.Scan.Adapter)
	}
	if cfg.Advertise.Enabled {
		t.Error("Advertise.Enabled = true, want false")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvPort, "eighty"},
		{EnvScanInterval, "soon"},
		{EnvAdvertise, "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				if key == tt.key {
					return tt.value, true
				}
				return "", false
			}
			if err := Default().ApplyEnv(lookup); err == nil {
				t.Errorf("ApplyEnv(%s=%s) error = nil, want error", tt.key, tt.value)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Server.Port = 4000
	cfg.Scan.Interval = 3 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after Save()")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Server.Port != 4000 || loaded.Scan.Interval != 3*time.Second {
		t.Errorf("loaded port/interval = %v/%v, want 4000/3s", loaded.Server.Port, loaded.Scan.Interval)
	}
}
