package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service is a blescan server found on the network
type Service struct {
	// Instance is the mDNS instance name (e.g., "kitchen-pi")
	Instance string

	// Hostname is the mDNS hostname (e.g., "kitchen-pi.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record (e.g., "path=/devices")
	Metadata map[string]string

	// DiscoveredAt is when the service was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("blescan %s (%s) at %s", s.Instance, s.Hostname, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// BaseURL returns the HTTP base URL for the service
func (s *Service) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// DevicesURL returns the URL of the device list
func (s *Service) DevicesURL() string {
	path := s.GetMetadata(TxtPath)
	if path == "" {
		path = DefaultDevicesPath
	}
	return s.BaseURL() + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
