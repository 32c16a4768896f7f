package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/stouch/internal/config"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// config commands must work with a broken file
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			logging.Warn("Ignoring unreadable config file", zap.Error(err))
			loaded = config.Default()
		}
		applyFlags(cmd, loaded)
		cfg = loaded
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with defaults",
	Long: `Write a configuration file holding the defaults and any device flags
given on the command line. An existing file is only replaced after
confirmation, or with --force.`,
	Example: `  # Defaults at the user config dir
  stouch-emulator config init

  # Remember a controller and its password
  stouch-emulator config init --device 192.168.11.23 --password 1234`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Device.Password != "" {
			shown.Device.Password = "********"
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := effectiveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file without asking")

	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func effectiveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := effectiveConfigPath()
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if exists && !forceInit {
		if !ui.Confirm(os.Stdin, os.Stdout, "Overwrite configuration",
			path+" already exists",
			"Settings not given on the command line are reset to defaults",
		) {
			return errors.New("aborted, configuration left unchanged")
		}
	}

	fresh := config.Default()
	applyFlags(cmd, fresh)
	if err := fresh.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := fresh.Save(path); err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	details := []ui.Param{{Key: "File", Value: path}}
	if fresh.Device.Address != "" {
		details = append(details, ui.Param{Key: "Device", Value: fresh.Endpoint().String()})
	}
	p.PrintSuccess("Configuration written", details...)
	return nil
}
