package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/metrics"
	"github.com/muurk/stouch/internal/server"
)

// Serve command flags
var (
	serveHost      string
	servePort      int
	serveAdvertise bool
	serveMetrics   bool
	serveInstance  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST front-end",
	Long: `Start the REST front-end of one emulated panel.

The panel connects to the controller on GET /api/touch/connect and is then
driven through the touch, automation and export endpoints. A websocket at
/api/touch/stream pushes the screen after every change.

With --advertise the front-end registers itself via mDNS so that
'stouch-emulator discover --mdns' can find it.`,
	Example: `  # Serve on the configured host and port (default 0.0.0.0:1337)
  stouch-emulator serve

  # Fixed controller, debug logging
  stouch-emulator serve --device 192.168.11.23 --password 1234 --log-level debug

  # Advertise via mDNS and disable /metrics
  stouch-emulator serve --advertise --metrics=false`,
	Annotations: map[string]string{defaultLogLevel: "info"},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (default from config, 0.0.0.0)")
	serveCmd.Flags().IntVar(&servePort, "listen-port", 0, "HTTP port (default from config, 1337)")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Advertise the front-end via mDNS")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "Serve Prometheus metrics on /metrics")
	serveCmd.Flags().StringVar(&serveInstance, "instance", "", "mDNS instance name (default derived from the hostname)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("listen-port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("advertise") {
		cfg.Server.Advertise = serveAdvertise
	}
	if flags.Changed("metrics") {
		cfg.Server.Metrics = serveMetrics
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server settings: %w", err)
	}

	m := metrics.New()
	panel := newSession(m)

	srv := server.New(&server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Advertise: cfg.Server.Advertise,
		Instance:  serveInstance,
		Metrics:   cfg.Server.Metrics,
		StepDelay: cfg.Automation.StepDelay,
		MaxLoops:  cfg.Automation.MaxLoops,
	}, panel, server.WithFinder(cfg.Searcher()), server.WithMetrics(m))

	return srv.Start()
}
