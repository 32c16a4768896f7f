package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/urls"
)

// newSession builds a panel session from the loaded configuration
func newSession(observer session.Observer) *session.Session {
	sc := cfg.SessionConfig()
	sc.Observer = observer
	return session.New(sc)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// promptPassword asks for the UDP password when an address is configured
// without one. Discovery reads the password from the controller, so nothing
// is asked when no address is set or stdin is not a terminal.
func promptPassword() error {
	if cfg.Device.Address == "" || cfg.Device.Password != "" {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "S-Touch password for %s: ", cfg.Endpoint())
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	cfg.Device.Password = string(pw)
	return nil
}

// connectTips are shown when the handshake fails
func connectTips(result session.ConnectResult) []string {
	switch result {
	case session.WrongPassword:
		return []string{
			"Check the S-Touch password configured on the controller",
			"Pass it with --password or set device.password in the config file",
		}
	case session.DeviceAlreadyInUse:
		return []string{
			"Another panel or emulator is attached to the controller",
			"Disconnect it, or wait until its session expires",
		}
	case session.NoDeviceFound:
		return []string{
			"Ensure the controller is powered on and on the same network",
			"Run 'stouch-emulator discover' to check that it answers the broadcast search",
			"Use --device to specify the controller address manually",
		}
	default:
		return []string{
			"Verify the controller address and S-Touch port",
			"Check that no firewall blocks UDP port 3477 in either direction",
			"Report controllers that never answer at " + urls.Issues,
		}
	}
}
