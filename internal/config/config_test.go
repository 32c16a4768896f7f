package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(configDir, "stouch") {
		t.Errorf("GetConfigDir() = %v, should contain 'stouch'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Unix-like systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "stouch"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}

	path, _ := GetConfigPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", path)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	if cfg.Device.Port != 3477 {
		t.Errorf("Device.Port = %v, want 3477", cfg.Device.Port)
	}
	if cfg.Session.Retries != 10 || cfg.Session.ReceiveTimeout != time.Second {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Discovery.BroadcastPort != 8001 || cfg.Discovery.Timeout != time.Second {
		t.Errorf("Discovery = %+v", cfg.Discovery)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 1337 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Automation.StepDelay != 2*time.Second || cfg.Automation.MaxLoops != 100 {
		t.Errorf("Automation = %+v", cfg.Automation)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Port != 3477 {
		t.Errorf("Load() of missing file should return defaults, got %+v", cfg.Device)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
device:
  address: 192.168.1.50
  password: "1234"
session:
  receive_timeout: 250ms
  retries: 0
automation:
  step_delay: 0s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Address != "192.168.1.50" || cfg.Device.Password != "1234" {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.Port != 3477 {
		t.Errorf("Device.Port = %v, want default 3477", cfg.Device.Port)
	}
	if cfg.Session.ReceiveTimeout != 250*time.Millisecond {
		t.Errorf("Session.ReceiveTimeout = %v, want 250ms", cfg.Session.ReceiveTimeout)
	}
	if cfg.Session.Retries != 10 {
		t.Errorf("Session.Retries = %v, want default 10", cfg.Session.Retries)
	}
	// explicit zero delay falls back to the default
	if cfg.Automation.StepDelay != 2*time.Second {
		t.Errorf("Automation.StepDelay = %v", cfg.Automation.StepDelay)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "device: [unclosed"},
		{"wrong version", "version: 2\n"},
		{"port out of range", "device:\n  port: 70000\n"},
		{"bad duration", "session:\n  receive_timeout: soon\n"},
		{"negative loops", "automation:\n  max_loops: -3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Device.Address = "10.0.0.7"
	cfg.Device.LocalPort = 4000
	cfg.Session.Debug = true
	cfg.Server.Advertise = true
	cfg.Automation.StepDelay = 500 * time.Millisecond

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# S-Touch Emulator Configuration File") {
		t.Error("saved file lacks header comment")
	}
	if !strings.Contains(string(data), "step_delay: 500ms") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"ephemeral local port", func(c *Config) { c.Device.LocalPort = 0 }, false},
		{"zero device port", func(c *Config) { c.Device.Port = 0 }, true},
		{"negative local port", func(c *Config) { c.Device.LocalPort = -1 }, true},
		{"zero retries", func(c *Config) { c.Session.Retries = 0 }, true},
		{"zero timeout", func(c *Config) { c.Session.ReceiveTimeout = 0 }, true},
		{"zero discovery timeout", func(c *Config) { c.Discovery.Timeout = 0 }, true},
		{"server port", func(c *Config) { c.Server.Port = 65536 }, true},
		{"negative delay", func(c *Config) { c.Automation.StepDelay = -time.Second }, true},
		{"zero delay", func(c *Config) { c.Automation.StepDelay = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionConfig(t *testing.T) {
	cfg := Default()
	cfg.Device.Password = "pw"

	sc := cfg.SessionConfig()
	if sc.Locator == nil {
		t.Error("SessionConfig() without address should install a locator")
	}
	if sc.Endpoint.Password != "pw" || sc.Retries != 10 {
		t.Errorf("SessionConfig() = %+v", sc)
	}

	cfg.Device.Address = "192.168.1.50"
	sc = cfg.SessionConfig()
	if sc.Locator != nil {
		t.Error("SessionConfig() with address should not install a locator")
	}
	if got := sc.Endpoint.String(); got != "192.168.1.50:3477" {
		t.Errorf("Endpoint = %v", got)
	}
}
