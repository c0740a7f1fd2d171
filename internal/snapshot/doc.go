// Package snapshot holds the most recent list of discovered BLE devices.
//
// A Store has one writer (the scan loop) and many readers (HTTP handlers).
// Every Replace installs a complete new list; readers see either the list
// before a Replace or the list after it, never a mixture. Reads never block
// each other.
//
//	store := snapshot.NewStore()
//	store.Replace([]snapshot.Device{{Address: "AA:BB:CC:DD:EE:01"}})
//	devices := store.Read() // a private copy
//
// Published device records are never modified. Replace copies the slice it
// is given and Read hands out copies, so callers may modify what they hold.
package snapshot
