package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/blescan/internal/client"
	"github.com/muurk/blescan/internal/discovery"
	"github.com/muurk/blescan/internal/server"
	"github.com/muurk/blescan/internal/tui"
	"github.com/muurk/blescan/internal/ui"
)

var (
	jsonOutput   bool
	watchEvery   time.Duration
	scanTimeout  time.Duration
	fetchTimeout time.Duration
)

// errSilent marks failures that were already reported to the user
var errSilent = errors.New("command failed")

func init() {
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON array")
	listCmd.Flags().DurationVar(&fetchTimeout, "timeout", client.DefaultTimeout, "Request timeout")

	watchCmd.Flags().DurationVar(&watchEvery, "every", tui.DefaultPollInterval, "Poll interval")
	rootCmd.Flags().DurationVar(&watchEvery, "every", tui.DefaultPollInterval, "Poll interval")

	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for servers")
	discoverCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print servers as JSON")
	watchCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long discovery listens for servers")

	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw status JSON")
}

// resolveServer returns --server, or the only server found via mDNS
func resolveServer(ctx context.Context) (string, error) {
	if serverURL != "" {
		return tui.NormalizeServerURL(serverURL)
	}

	services, err := tui.ScanMDNS(ctx, discovery.DefaultScanTimeout)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	switch len(services) {
	case 0:
		return "", fmt.Errorf("no blescan server found; pass --server")
	case 1:
		return services[0].BaseURL(), nil
	default:
		return "", fmt.Errorf("%d blescan servers found; pick one with --server (see 'blescan discover')", len(services))
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the devices a server currently sees",
	Long: `Fetch GET /devices once and print the snapshot in scan order.

Without --server the local network is searched and the single server found
is used.`,
	Example: `  # Table output
  blescan list --server 192.168.1.20:3000

  # Raw JSON for scripting
  blescan list -s http://192.168.1.20:3000 --json | jq '.[].address'`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	base, err := resolveServer(ctx)
	if err != nil {
		return err
	}

	c := client.New(base)
	c.SetTimeout(fetchTimeout)

	devices, err := c.Devices(ctx)
	if err != nil {
		if jsonOutput {
			return err
		}
		p := ui.NewPrinter(cmd.ErrOrStderr())
		p.PrintError("Could not fetch devices from "+base, err, client.Hint(err))
		return errSilent
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		return enc.Encode(devices)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Nearby devices", "blescan list", ui.Param{Key: "Server", Value: base})
	p.PrintDevices(devices)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the device list live",
	Long: `Open a terminal view that polls GET /devices and redraws the table.

Without --server, servers are discovered first and one can be picked from a
list or entered by hand.`,
	Example: `  # Pick a server from the network
  blescan watch

  # Watch one server, refreshing every second
  blescan watch --server 192.168.1.20:3000 --every 1s`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the live view needs a terminal; use 'blescan list' instead")
	}

	opts := tui.Options{
		Interval:    watchEvery,
		ScanTimeout: scanTimeout,
	}
	if serverURL != "" {
		base, err := tui.NormalizeServerURL(serverURL)
		if err != nil {
			return err
		}
		opts.ServerURL = base
	}
	return tui.Run(opts)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find blescan servers on the local network",
	Long: `Browse mDNS for _blescan._tcp services and print every server found.

Servers advertise themselves unless started with --no-advertise.`,
	Example: `  # Listen for 3 seconds (default)
  blescan discover

  # Longer scan on busy networks
  blescan discover --timeout 10s`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	services, err := tui.ScanMDNS(ctx, scanTimeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if jsonOutput {
		type entry struct {
			Instance string `json:"instance"`
			URL      string `json:"url"`
			Host     string `json:"host"`
			Version  string `json:"version,omitempty"`
		}
		out := make([]entry, 0, len(services))
		for _, s := range services {
			out = append(out, entry{
				Instance: s.Instance,
				URL:      s.BaseURL(),
				Host:     s.Hostname,
				Version:  s.GetMetadata(discovery.TxtVersion),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("blescan servers", "blescan discover", ui.Param{Key: "Timeout", Value: scanTimeout.String()})
	p.PrintServers(services)
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a server's scan status",
	Long:  `Fetch GET /healthz and print the snapshot generation and scan counters.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	base, err := resolveServer(ctx)
	if err != nil {
		return err
	}

	health, err := client.New(base).Health(ctx)
	if err != nil {
		if jsonOutput {
			return err
		}
		ui.NewPrinter(cmd.ErrOrStderr()).PrintError("Could not reach "+base, err, client.Hint(err))
		return errSilent
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(health)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("Server status", "blescan status", statusParams(base, health)...)
	return nil
}

// statusParams flattens a health report into header lines
func statusParams(base string, h *server.HealthResponse) []ui.Param {
	status := ui.StatusOKStyle.Render(h.Status)
	if h.Status != server.StatusOK {
		status = ui.StatusDegradedStyle.Render(h.Status)
	}

	updated := "never"
	if h.UpdatedAt != nil {
		updated = h.UpdatedAt.Local().Format(time.RFC3339)
	}

	params := []ui.Param{
		{Key: "Server", Value: base},
		{Key: "Status", Value: status},
		{Key: "Version", Value: h.Version},
		{Key: "Devices", Value: strconv.Itoa(h.Devices)},
		{Key: "Generation", Value: strconv.FormatUint(h.Generation, 10)},
		{Key: "Updated", Value: updated},
	}
	if h.Scan != nil {
		params = append(params,
			ui.Param{Key: "Ticks", Value: strconv.FormatUint(h.Scan.Ticks, 10)},
			ui.Param{Key: "Failed ticks", Value: strconv.FormatUint(h.Scan.FailedTicks, 10)},
			ui.Param{Key: "Failing now", Value: strconv.FormatUint(h.Scan.ConsecutiveFailures, 10)},
		)
	}
	return params
}
