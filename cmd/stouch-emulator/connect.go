package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/wizard/tui"
)

var noAutoConnect bool

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open the interactive panel console",
	Long: `Open a full-screen console showing the emulated panel.

Without a configured device address the console first searches the network
and lists the controllers found; pick one to open the panel. With --device
the panel opens directly.

The console shows the buttons, texts and rectangles on screen and accepts
commands such as 'button 5', 'touch 120,80' or 'text Menu'.`,
	Example: `  # Search the network and pick a controller
  stouch-emulator connect

  # Connect to a known controller, prompting for the password
  stouch-emulator connect --device 192.168.11.23

  # Open the panel without connecting, then type 'connect'
  stouch-emulator connect --device 192.168.11.23 --password 1234 --no-auto-connect`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().BoolVar(&noAutoConnect, "no-auto-connect", false, "Do not connect when the panel screen opens")

	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if err := promptPassword(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	panel := newSession(nil)
	opts := tui.Options{
		Password:    cfg.Device.Password,
		AutoConnect: !noAutoConnect,
	}
	if cfg.Device.Address == "" {
		opts.Finder = cfg.Searcher()
		opts.SearchTimeout = cfg.Discovery.Timeout * 3
	}

	err := tui.Run(ctx, panel, opts)

	// the console may be left while connected
	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dcancel()
	if panel.Status().State != session.Disconnected {
		confirmed := panel.Disconnect(dctx)
		logging.Info("Panel disconnected")
		if !confirmed {
			logging.Warn("Controller did not confirm the disconnect")
		}
	}

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
