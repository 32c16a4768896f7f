// Stouch-emulator emulates an S-Touch touch panel for heating controllers.
//
// The controller drives the panel over UDP. The emulator keeps a model of
// the screen, answers every command the way the real panel does, and lets
// you press buttons from the command line, a terminal console, automation
// sequences or a REST front-end.
//
// Usage:
//
//	stouch-emulator [command] [flags]
//
// See 'stouch-emulator --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/config"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath     string
	logLevel       string
	deviceAddress  string
	devicePort     int
	devicePassword string
	debugPackets   bool
)

// defaultLogLevel is the annotation key of a command's log level when
// neither --log-level nor STOUCH_LOG_LEVEL is set. Commands without it are
// silent.
const defaultLogLevel = "default-log-level"

// cfg is the loaded configuration with flag overrides applied
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stouch-emulator",
	Short: "S-Touch Touch Panel Emulator",
	Long: `Emulates an S-Touch touch panel attached to a heating controller.

The controller draws its menus on the emulated panel over UDP. Screens can be
inspected and buttons pressed from the interactive console, automation
sequences or the REST front-end.

Without a configured device address the controller is located by a UDP
broadcast search on the local network.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
			level = cmd.Annotations[defaultLogLevel]
		}
		if err := logging.Initialize(level); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty reads STOUCH_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&deviceAddress, "device", "", "Controller IP address (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 0, "Controller S-Touch UDP port (default 3477)")
	rootCmd.PersistentFlags().StringVar(&devicePassword, "password", "", "Controller S-Touch UDP password")
	rootCmd.PersistentFlags().BoolVar(&debugPackets, "debug-packets", false, "Log every datagram (requires --log-level debug)")

	rootCmd.AddCommand(versionCmd)
}

// applyFlags overrides config values with flags the user set explicitly
func applyFlags(cmd *cobra.Command, c *config.Config) {
	if flagChanged(cmd, "device") {
		c.Device.Address = deviceAddress
	}
	if flagChanged(cmd, "port") {
		c.Device.Port = devicePort
	}
	if flagChanged(cmd, "password") {
		c.Device.Password = devicePassword
	}
	if flagChanged(cmd, "debug-packets") {
		c.Session.Debug = debugPackets
	}
}

// flagChanged looks up local and inherited flags
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("stouch-emulator %s (%s, %s)\n", version.Full(), info.GoVersion, info.Platform)
	},
}
