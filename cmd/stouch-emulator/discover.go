package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/ui"
)

// Discover command flags
var (
	discoverMDNS    bool
	discoverJSON    bool
	discoverTargets []string
	mdnsTimeout     int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the network for controllers",
	Long: `Search the local network for controllers by UDP broadcast.

Every controller that answers is queried for its S-Touch port and UDP
password. Controllers without S-Touch support are listed but cannot be
connected.

With --mdns the command also browses for running emulator front-ends
started with 'stouch-emulator serve --advertise'.`,
	Example: `  # Broadcast on every local interface
  stouch-emulator discover

  # Broadcast to one subnet only
  stouch-emulator discover --target 192.168.11.255

  # Also list emulator front-ends, as JSON
  stouch-emulator discover --mdns --json`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverMDNS, "mdns", false, "Also browse for emulator front-ends via mDNS")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print results as JSON")
	discoverCmd.Flags().StringSliceVar(&discoverTargets, "target", nil, "Broadcast address to search (repeatable, default all interfaces)")
	discoverCmd.Flags().IntVar(&mdnsTimeout, "mdns-timeout", 3, "mDNS browse timeout in seconds")

	rootCmd.AddCommand(discoverCmd)
}

// discoverOutput is the --json document
type discoverOutput struct {
	Controllers []*discovery.DeviceInfo `json:"controllers"`
	Emulators   []*discovery.Emulator   `json:"emulators,omitempty"`
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	searcher := cfg.Searcher()
	searcher.Targets = discoverTargets

	p := ui.NewPrinter(nil)
	if !discoverJSON {
		p.PrintHeader("Discover", "stouch-emulator discover",
			ui.Param{Key: "Broadcast port", Value: strconv.Itoa(searcher.BroadcastPort)},
			ui.Param{Key: "Reply timeout", Value: searcher.Timeout.String()},
		)
		p.PrintPleaseWait("Searching for controllers", "a few seconds")
		p.Newline()
	}

	devices, err := searcher.Search(ctx)
	if err != nil {
		if !discoverJSON {
			p.PrintError("Search failed", err,
				"Check that a network interface with an IPv4 broadcast address is up",
				"Use --target to name the broadcast address explicitly",
			)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	out := discoverOutput{Controllers: devices}
	if discoverMDNS {
		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(mdnsTimeout) * time.Second
		if !discoverJSON {
			p.PrintPleaseWait("Browsing for emulator front-ends", scanner.Timeout.String())
			p.Newline()
		}
		emulators, err := scanner.Scan(ctx)
		if err != nil {
			return fmt.Errorf("mDNS browse failed: %w", err)
		}
		out.Emulators = emulators
	}

	if discoverJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printControllers(p, devices)
	if discoverMDNS {
		printEmulators(p, out.Emulators)
	}
	return nil
}

func printControllers(p *ui.Printer, devices []*discovery.DeviceInfo) {
	if len(devices) == 0 {
		p.Println(ui.NewFailureResult("No controllers found", nil,
			"Ensure the controller is powered on and on the same subnet",
			"Broadcasts do not cross routers, use --target for other subnets",
			"Check that no firewall blocks UDP port 8001",
			"Use --device to specify the controller address manually",
		).SetWidth(p.Width()).Render())
		return
	}

	for _, d := range devices {
		details := []ui.Param{
			{Key: "Address", Value: d.IP},
			{Key: "Unit ID", Value: d.ID},
			{Key: "Version", Value: d.Version},
			{Key: "MAC", Value: d.MAC},
		}
		if !d.STouchSupported {
			p.PrintWarning(d.Name+" (no S-Touch support)", details...)
			continue
		}
		details = append(details, ui.Param{Key: "S-Touch port", Value: strconv.Itoa(d.Port)})
		p.PrintSuccess(d.Name, details...)
	}
	p.Newline()
	p.Println(ui.HintStyle.Render("Use 'stouch-emulator connect --device <address>' to open the panel"))
}

func printEmulators(p *ui.Printer, emulators []*discovery.Emulator) {
	p.Newline()
	if len(emulators) == 0 {
		p.PrintWarning("No emulator front-ends found")
		return
	}
	for _, e := range emulators {
		details := []ui.Param{
			{Key: "URL", Value: e.BaseURL()},
			{Key: "Host", Value: e.Hostname},
		}
		if v := e.GetMetadata("version"); v != "" {
			details = append(details, ui.Param{Key: "Version", Value: v})
		}
		p.PrintSuccess(e.Instance, details...)
	}
}
