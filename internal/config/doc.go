// Package config provides the emulator's YAML configuration.
//
// The file holds the controller endpoint, handshake tuning, broadcast
// search settings, the REST front-end listener and automation limits.
// Command-line flags override values read from it.
//
// # Configuration File Location
//
// The default file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/stouch/config.yaml or $HOME/.config/stouch/config.yaml
//   - macOS: $HOME/.config/stouch/config.yaml
//   - Windows: %LOCALAPPDATA%\stouch\config.yaml
//
// # Example
//
//	version: 1
//	device:
//	  address: 192.168.1.50
//	  port: 3477
//	  password: "1234"
//	session:
//	  retries: 10
//	  receive_timeout: 1s
//	server:
//	  port: 1337
//	  advertise: true
//	automation:
//	  step_delay: 2s
//	  max_loops: 100
//
// # Security
//
// The UDP password may be stored in the file. Save writes it with
// user-only permissions; leave it empty to be prompted instead.
package config
