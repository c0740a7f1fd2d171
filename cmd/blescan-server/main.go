// Blescan-server scans for nearby Bluetooth Low Energy peripherals and
// publishes the current device list over HTTP.
//
// A background loop refreshes the list every scan interval (2s by default)
// and GET /devices returns the latest snapshot as JSON. The server also
// offers a WebSocket stream at /devices/stream, a status report at
// /healthz, and advertises itself as _blescan._tcp via mDNS.
//
// Usage:
//
//	blescan-server serve [flags]
//
// See 'blescan-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/blescan/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blescan-server",
	Short: "BLE scanner HTTP service",
	Long: `A service that keeps scanning for nearby Bluetooth Low Energy peripherals
and serves the current device list over HTTP for polling clients.

Use the separate 'blescan' utility to list, watch or discover servers.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blescan-server %s\n", version.Full())
	},
}
