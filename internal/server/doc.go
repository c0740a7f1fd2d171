// Package server implements the blescan HTTP API.
//
// # Endpoints
//
//	GET /devices         JSON array of the devices in the current snapshot
//	GET /devices/stream  WebSocket; the same array on connect and after every tick
//	GET /healthz         Snapshot generation and scan loop counters
//
// /devices never fails. Before the first scan tick completes it returns an
// empty array, and when the radio misbehaves it keeps returning the last
// complete snapshot:
//
//	[{"name":"Sensor-A","address":"AA:BB:CC:DD:EE:01"},{"name":null,"address":"AA:BB:CC:DD:EE:02"}]
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Port: 3000}, store, loop)
//	if err != nil {
//	    return err
//	}
//	// Start blocks until ctx is cancelled, then shuts down gracefully
//	return srv.Start(ctx)
//
// # Graceful Shutdown
//
// When the context passed to Start or Serve is cancelled:
//  1. The mDNS advertisement is withdrawn
//  2. The listener stops accepting connections
//  3. Open streams receive a close frame
//  4. In-flight requests finish, bounded by Config.ShutdownTimeout
//
// # Thread Safety
//
// Handlers run concurrently. They only read from the snapshot store.
package server
