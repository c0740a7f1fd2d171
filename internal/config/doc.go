// Package config loads the blescan-server configuration.
//
// Settings come from four layers, later layers winning:
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. BLESCAN_* environment variables
//  4. command-line flags, applied by the caller
//
// # Configuration File Location
//
// Without an explicit path the file is looked up in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/blescan/config.yaml or $HOME/.config/blescan/config.yaml
//   - macOS: $HOME/.config/blescan/config.yaml
//   - Windows: %LOCALAPPDATA%\blescan\config.yaml
//
// A missing file is not an error; the defaults are used.
//
// # File Format
//
//	version: 1
//	server:
//	  host: ""
//	  port: 3000
//	  shutdown_timeout: 10s
//	scan:
//	  interval: 2s
//	  adapter: ""
//	  stale_after: 30s
//	  breaker:
//	    max_failures: 5
//	    cooldown: 30s
//	advertise:
//	  enabled: true
//	log_level: info
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
