package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func serviceEntry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "front-end with IPv4",
			entry:    serviceEntry("stouch-emulator", "heatpump-pi.local.", 1337, []net.IP{net.ParseIP("192.168.4.16")}, nil, "version=1.0"),
			wantIP:   "192.168.4.16",
			wantPort: 1337,
		},
		{
			name:     "no port specified (should default to 1337)",
			entry:    serviceEntry("stouch-emulator", "pi.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: DefaultServicePort,
		},
		{
			name:     "IPv6 only",
			entry:    serviceEntry("stouch-emulator", "pi.local.", 8080, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 8080,
		},
		{
			name:     "both IPv4 and IPv6 (should prefer IPv4)",
			entry:    serviceEntry("stouch-emulator", "pi.local.", 1337, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "192.168.1.50",
			wantPort: 1337,
		},
		{
			name:    "empty hostname",
			entry:   serviceEntry("stouch-emulator", "", 1337, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   serviceEntry("stouch-emulator", "pi.local.", 1337, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if e != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", e)
				}
				return
			}
			if e == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil emulator")
			}
			if e.IP != tt.wantIP {
				t.Errorf("emulator.IP = %v, want %v", e.IP, tt.wantIP)
			}
			if e.Port != tt.wantPort {
				t.Errorf("emulator.Port = %v, want %v", e.Port, tt.wantPort)
			}
			if e.Instance != "stouch-emulator" {
				t.Errorf("emulator.Instance = %v", e.Instance)
			}
			if time.Since(e.DiscoveredAt) > time.Second {
				t.Errorf("emulator.DiscoveredAt is not recent: %v", e.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()
	entry := serviceEntry("stouch-emulator", "pi.local.", 1337, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		"version=1.0", "device=192.168.11.23:3477", "metrics")

	e := scanner.parseServiceEntry(entry)
	if e == nil {
		t.Fatal("parseServiceEntry() = nil, want emulator")
	}

	expected := map[string]string{
		"version": "1.0",
		"device":  "192.168.11.23:3477",
		"metrics": "",
	}
	if len(e.Metadata) != len(expected) {
		t.Errorf("emulator.Metadata has %d entries, want %d", len(e.Metadata), len(expected))
	}
	for key, want := range expected {
		if got := e.GetMetadata(key); got != want {
			t.Errorf("GetMetadata(%q) = %q, want %q", key, got, want)
		}
	}
	if got := e.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q", got)
	}
}

func TestEmulator_Strings(t *testing.T) {
	e := &Emulator{Instance: "stouch-emulator", Hostname: "pi.local.", IP: "192.168.4.16", Port: 1337}

	if got, want := e.String(), "S-Touch emulator stouch-emulator (pi.local.) at 192.168.4.16:1337"; got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
	if got, want := e.BaseURL(), "http://192.168.4.16:1337"; got != want {
		t.Errorf("BaseURL() = %v, want %v", got, want)
	}
	if got := (&Emulator{}).GetMetadata("x"); got != "" {
		t.Errorf("GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestDedupe(t *testing.T) {
	in := []*Emulator{
		{Instance: "a", IP: "10.0.0.1"},
		{Instance: "b", IP: "10.0.0.2"},
		{Instance: "a", IP: "fe80::1"},
	}
	out := dedupe(in)
	if len(out) != 2 || out[0].IP != "10.0.0.1" || out[1].Instance != "b" {
		t.Errorf("dedupe() = %v", out)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiser_ShutdownNil(t *testing.T) {
	var a *Advertiser
	a.Shutdown()
	(&Advertiser{}).Shutdown()
}
