package config

import (
	"fmt"
	"strings"
	"time"
)

// CurrentVersion is the only supported config file version
const CurrentVersion = 1

// Config is the complete blescan-server configuration.
type Config struct {
	Version   int       `yaml:"version"`
	Server    Server    `yaml:"server"`
	Scan      Scan      `yaml:"scan"`
	Advertise Advertise `yaml:"advertise"`
	LogLevel  string    `yaml:"log_level"`
}

// Server configures the HTTP listener.
type Server struct {
	Host            string        `yaml:"host"` // Empty listens on all interfaces
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Scan configures the scan loop and the platform gateway.
type Scan struct {
	Interval time.Duration `yaml:"interval"`

	// Adapter is the preferred adapter ID, empty selects the first
	Adapter string `yaml:"adapter,omitempty"`

	// Services filters advertisements by service UUID, empty accepts all
	Services []string `yaml:"services,omitempty"`

	// StaleAfter evicts peripherals that stopped advertising
	StaleAfter time.Duration `yaml:"stale_after"`

	Breaker Breaker `yaml:"breaker"`
}

// Breaker configures the enumeration circuit breaker.
type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// Advertise configures mDNS advertisement of the HTTP endpoint.
type Advertise struct {
	Enabled bool `yaml:"enabled"`

	// Instance is the mDNS instance name, defaults to the hostname
	Instance string `yaml:"instance,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: Server{
			Port:            3000,
			ShutdownTimeout: 10 * time.Second,
		},
		Scan: Scan{
			Interval:   2 * time.Second,
			StaleAfter: 30 * time.Second,
			Breaker: Breaker{
				MaxFailures: 5,
				Cooldown:    30 * time.Second,
			},
		},
		Advertise: Advertise{
			Enabled: true,
		},
		LogLevel: "info",
	}
}

// Addr returns the listen address in host:port form
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ValidationErrors collects every problem found by Validate.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "invalid configuration: " + strings.Join(v, "; ")
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration and returns ValidationErrors if
// anything is wrong.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Sprintf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if c.Scan.Interval <= 0 {
		errs = append(errs, "scan.interval must be positive")
	}
	if c.Scan.StaleAfter < 0 {
		errs = append(errs, "scan.stale_after must not be negative")
	}
	if c.Scan.Breaker.Cooldown < 0 {
		errs = append(errs, "scan.breaker.cooldown must not be negative")
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
