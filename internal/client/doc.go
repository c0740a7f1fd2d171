// Package client talks to a running blescan-server.
//
// It fetches the device snapshot from GET /devices and the service status
// from GET /healthz, retrying transient network failures with exponential
// backoff. Failures are returned as *Error values classified by Kind so the
// CLI can print a short hint.
package client
