package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/stouch/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type of the emulator's REST front-end
	ServiceType = "_stouch._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for front-end discovery
	DefaultScanTimeout = 3 * time.Second

	// DefaultServicePort is the default REST port of the front-end
	DefaultServicePort = 1337
)

// Emulator is a running REST front-end found via mDNS
type Emulator struct {
	// Instance is the advertised instance name (e.g., "stouch-emulator")
	Instance string `json:"instance"`

	// Hostname is the mDNS hostname (e.g., "heatpump-pi.local.")
	Hostname string `json:"hostname"`

	// IP is the IPv4 address, or IPv6 when no IPv4 address was advertised
	IP string `json:"ip"`

	// Port is the REST port
	Port int `json:"port"`

	// Metadata contains the TXT record data, e.g. "version" and "device"
	Metadata map[string]string `json:"metadata,omitempty"`

	// DiscoveredAt is when the front-end was discovered
	DiscoveredAt time.Time `json:"discovered_at"`
}

// String returns a human-readable string representation of the front-end
func (e *Emulator) String() string {
	return fmt.Sprintf("S-Touch emulator %s (%s) at %s:%d", e.Instance, e.Hostname, e.IP, e.Port)
}

// BaseURL returns the HTTP base URL of the front-end
func (e *Emulator) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.IP, e.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Emulator) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}

// Advertiser publishes the REST front-end via mDNS
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on port with optional "key=value" TXT records
func Advertise(instance string, port int, txt []string) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising via mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}

// Scanner handles mDNS front-end discovery
type Scanner struct {
	// Timeout is the maximum time to wait for front-end discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all emulator front-ends on the local network
func (s *Scanner) Scan(ctx context.Context) ([]*Emulator, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu    sync.Mutex
		found = make([]*Emulator, 0)
		done  = make(chan struct{})
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			if e := s.parseServiceEntry(entry); e != nil {
				mu.Lock()
				found = append(found, e)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// the resolver closes entries once ctx is done
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	return dedupe(found), nil
}

// dedupe keeps the first sighting of each instance
func dedupe(in []*Emulator) []*Emulator {
	seen := make(map[string]bool, len(in))
	out := make([]*Emulator, 0, len(in))
	for _, e := range in {
		if seen[e.Instance] {
			continue
		}
		seen[e.Instance] = true
		out = append(out, e)
	}
	return out
}

// parseServiceEntry converts a zeroconf service entry to an Emulator
// Returns nil if the entry has no hostname or no address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Emulator {
	if entry == nil || entry.HostName == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultServicePort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Emulator{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
