package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/muurk/stouch/internal/automation"
	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/session"
)

// CurrentVersion is the schema version written by Save
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version    int              `yaml:"version"`
	Device     DeviceConfig     `yaml:"device"`
	Session    SessionConfig    `yaml:"session"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Server     ServerConfig     `yaml:"server"`
	Automation AutomationConfig `yaml:"automation"`
}

// DeviceConfig identifies the controller. An empty Address means the
// controller is located by broadcast search on connect.
type DeviceConfig struct {
	Address   string `yaml:"address,omitempty"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password,omitempty"`
	LocalPort int    `yaml:"local_port"` // 0 = ephemeral
	MAC       string `yaml:"mac,omitempty"`
}

// SessionConfig tunes the UDP handshake
type SessionConfig struct {
	Retries        int           `yaml:"retries"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
	Debug          bool          `yaml:"debug"` // log every datagram
}

// DiscoveryConfig tunes the broadcast search
type DiscoveryConfig struct {
	BroadcastPort int           `yaml:"broadcast_port"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ServerConfig configures the REST front-end
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Advertise bool   `yaml:"advertise"` // register via mDNS
	Metrics   bool   `yaml:"metrics"`   // expose /metrics
}

// AutomationConfig tunes sequence execution
type AutomationConfig struct {
	StepDelay time.Duration `yaml:"step_delay"`
	MaxLoops  int           `yaml:"max_loops"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Device: DeviceConfig{
			Port: session.DefaultPort,
		},
		Session: SessionConfig{
			Retries:        session.DefaultRetries,
			ReceiveTimeout: session.DefaultReceiveTimeout,
		},
		Discovery: DiscoveryConfig{
			BroadcastPort: discovery.DefaultBroadcastPort,
			Timeout:       discovery.DefaultSearchTimeout,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    discovery.DefaultServicePort,
			Metrics: true,
		},
		Automation: AutomationConfig{
			StepDelay: automation.DefaultStepDelay,
			MaxLoops:  automation.DefaultMaxLoops,
		},
	}
}

// fillDefaults replaces zero values left by a partial file
func (c *Config) fillDefaults() {
	d := Default()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Device.Port == 0 {
		c.Device.Port = d.Device.Port
	}
	if c.Session.Retries == 0 {
		c.Session.Retries = d.Session.Retries
	}
	if c.Session.ReceiveTimeout == 0 {
		c.Session.ReceiveTimeout = d.Session.ReceiveTimeout
	}
	if c.Discovery.BroadcastPort == 0 {
		c.Discovery.BroadcastPort = d.Discovery.BroadcastPort
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = d.Discovery.Timeout
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Automation.StepDelay == 0 {
		c.Automation.StepDelay = d.Automation.StepDelay
	}
	if c.Automation.MaxLoops == 0 {
		c.Automation.MaxLoops = d.Automation.MaxLoops
	}
}

func validPort(name string, port int, allowZero bool) error {
	if port == 0 && allowZero {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d out of range 1-65535", name, port)
	}
	return nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	for _, err := range []error{
		validPort("device.port", c.Device.Port, false),
		validPort("device.local_port", c.Device.LocalPort, true),
		validPort("discovery.broadcast_port", c.Discovery.BroadcastPort, false),
		validPort("server.port", c.Server.Port, false),
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if c.Session.Retries < 1 {
		errs = append(errs, fmt.Errorf("session.retries must be at least 1, got %d", c.Session.Retries))
	}
	if c.Session.ReceiveTimeout <= 0 {
		errs = append(errs, errors.New("session.receive_timeout must be positive"))
	}
	if c.Discovery.Timeout <= 0 {
		errs = append(errs, errors.New("discovery.timeout must be positive"))
	}
	if c.Automation.StepDelay < 0 {
		errs = append(errs, errors.New("automation.step_delay must not be negative"))
	}
	if c.Automation.MaxLoops < 1 {
		errs = append(errs, fmt.Errorf("automation.max_loops must be at least 1, got %d", c.Automation.MaxLoops))
	}
	return errors.Join(errs...)
}

// Endpoint returns the configured controller endpoint
func (c *Config) Endpoint() session.Endpoint {
	return session.Endpoint{
		Address:  c.Device.Address,
		Port:     c.Device.Port,
		Password: c.Device.Password,
	}
}

// SessionConfig builds a session configuration. When no address is set the
// broadcast searcher is installed as the locator.
func (c *Config) SessionConfig() session.Config {
	cfg := session.Config{
		Endpoint:       c.Endpoint(),
		LocalPort:      c.Device.LocalPort,
		Retries:        c.Session.Retries,
		ReceiveTimeout: c.Session.ReceiveTimeout,
		Debug:          c.Session.Debug,
	}
	if c.Device.Address == "" {
		cfg.Locator = c.Searcher()
	}
	return cfg
}

// Searcher builds a broadcast searcher from the discovery section
func (c *Config) Searcher() *discovery.Searcher {
	s := discovery.NewSearcher()
	s.BroadcastPort = c.Discovery.BroadcastPort
	s.Timeout = c.Discovery.Timeout
	return s
}
