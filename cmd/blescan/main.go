// Blescan is the command-line client for blescan-server.
//
// It lists the devices a server currently sees, watches them live in a
// terminal UI, and discovers servers on the local network via mDNS.
//
// Usage:
//
//	blescan [command] [flags]
//
// Running without arguments discovers servers and opens the live view.
// See 'blescan --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/version"
)

// EnvServer sets the default for --server
const EnvServer = "BLESCAN_SERVER"

var serverURL string

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blescan",
	Short: "BLE scanner client",
	Long: `A client for blescan-server.

Lists the Bluetooth Low Energy devices a server currently sees, watches them
live, and discovers servers on the local network.

If no command is specified, the live view opens, starting with discovery
unless --server is given.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless BLESCAN_LOG_LEVEL is set, so logs don't mix with output.
		return logging.InitializeFromEnv()
	},
	RunE: runWatch,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", os.Getenv(EnvServer),
		"Server address, e.g. http://192.168.1.20:3000 (env "+EnvServer+")")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blescan %s\n", version.Full())
	},
}
