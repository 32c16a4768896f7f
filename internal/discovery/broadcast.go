package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/session"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultBroadcastPort is where controllers listen for search messages
	DefaultBroadcastPort = 8001

	// DefaultSearchTimeout bounds each request/reply exchange
	DefaultSearchTimeout = time.Second

	maxReplySize = 1024
)

// Searcher finds controllers by UDP broadcast
type Searcher struct {
	// BroadcastPort is the controller's search port
	BroadcastPort int

	// Timeout is the wait for each reply
	Timeout time.Duration

	// Targets overrides the broadcast addresses derived from the local
	// interfaces
	Targets []string
}

// NewSearcher creates a searcher with default settings
func NewSearcher() *Searcher {
	return &Searcher{
		BroadcastPort: DefaultBroadcastPort,
		Timeout:       DefaultSearchTimeout,
	}
}

// target is one broadcast address and the local address it belongs to
type target struct {
	local     string
	broadcast string
}

// Search sends the search message to every target and returns one entry for
// each controller that answered. An interface without a controller is not an
// error.
func (s *Searcher) Search(ctx context.Context) ([]*DeviceInfo, error) {
	targets, err := s.targets()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New("no IPv4 broadcast capable interface found")
	}

	devices := make([]*DeviceInfo, 0)
	for _, t := range targets {
		if ctx.Err() != nil {
			return devices, ctx.Err()
		}
		d, err := s.searchTarget(ctx, t)
		if err != nil {
			logging.Debug("No controller on link",
				zap.String("broadcast", t.broadcast),
				zap.Error(err),
			)
			continue
		}
		logging.Info("Controller found", zap.Stringer("device", d))
		devices = append(devices, d)
	}
	return devices, nil
}

// Locate returns the endpoint of the first controller supporting S-Touch.
// It satisfies session.Locator.
func (s *Searcher) Locate(ctx context.Context) (session.Endpoint, error) {
	devices, err := s.Search(ctx)
	if err != nil {
		return session.Endpoint{}, fmt.Errorf("%w: %v", session.ErrNoDevice, err)
	}
	for _, d := range devices {
		if d.STouchSupported {
			return d.Endpoint(), nil
		}
	}
	return session.Endpoint{}, session.ErrNoDevice
}

func (s *Searcher) searchTarget(ctx context.Context, t target) (*DeviceInfo, error) {
	port := s.BroadcastPort
	if port == 0 {
		port = DefaultBroadcastPort
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(t.broadcast, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open search socket: %w", err)
	}
	defer conn.Close()

	reply, err := s.exchange(ctx, conn, addr, SearchMessage)
	if err != nil {
		return nil, err
	}
	d, err := ParseInfo(reply)
	if err != nil {
		return nil, err
	}
	d.LocalIP = t.local
	d.BroadcastIP = t.broadcast
	d.BroadcastPort = port
	if d.MAC == "" {
		return d, nil
	}

	// S-Touch support is optional; failures below leave it unsupported
	reply, err = s.exchange(ctx, conn, addr, PortRequest(d.MAC))
	if err != nil {
		logging.Debug("Port request failed", zap.String("mac", d.MAC), zap.Error(err))
		return d, nil
	}
	if d.Port, err = ParsePortReply(reply); err != nil || d.Port == 0 {
		d.Port = 0
		return d, nil
	}

	reply, err = s.exchange(ctx, conn, addr, PasswordRequest(d.MAC))
	if err != nil {
		logging.Debug("Password request failed", zap.String("mac", d.MAC), zap.Error(err))
		return d, nil
	}
	if d.Password, err = ParsePasswordReply(reply); err != nil {
		return d, nil
	}
	d.STouchSupported = true
	return d, nil
}

// exchange sends msg and waits for a single reply, decoded from Latin-1
func (s *Searcher) exchange(ctx context.Context, conn *net.UDPConn, addr *net.UDPAddr, msg string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if _, err := conn.WriteToUDP([]byte(msg), addr); err != nil {
		return "", fmt.Errorf("send %q: %w", msg, err)
	}
	_ = conn.SetReadDeadline(deadline)

	buf := make([]byte, maxReplySize)
	n, from, err := conn.ReadFromUDP(buf)
	if err != nil {
		return "", fmt.Errorf("no reply to %q: %w", msg, err)
	}
	reply, err := charmap.ISO8859_1.NewDecoder().Bytes(buf[:n])
	if err != nil {
		return "", err
	}
	logging.Debug("Search reply", zap.String("from", from.String()), zap.ByteString("reply", reply))
	return string(reply), nil
}

func (s *Searcher) targets() ([]target, error) {
	if len(s.Targets) > 0 {
		out := make([]target, 0, len(s.Targets))
		for _, b := range s.Targets {
			out = append(out, target{broadcast: b})
		}
		return out, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	var out []target
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if b := broadcastAddr(ipnet); b != nil {
				out = append(out, target{local: ipnet.IP.String(), broadcast: b.String()})
			}
		}
	}
	return out, nil
}

// broadcastAddr returns the directed broadcast address of an IPv4 network,
// or nil for IPv6 and loopback networks
func broadcastAddr(n *net.IPNet) net.IP {
	ip := n.IP.To4()
	if ip == nil || ip.IsLoopback() || len(n.Mask) != net.IPv4len {
		return nil
	}
	b := make(net.IP, net.IPv4len)
	for i := range ip {
		b[i] = ip[i] | ^n.Mask[i]
	}
	return b
}
