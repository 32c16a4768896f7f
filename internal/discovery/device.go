package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/stouch/internal/session"
)

// infoFields is the number of space separated fields in a search reply, e.g.
// "SC2 1 192.168.11.23 255.255.255.0 192.168.11.1 SystaComfort-II0 0809720001 0 V0.34 V1.00 2CBE9700BEE9"
const infoFields = 11

// DeviceInfo describes a controller that answered the broadcast search
type DeviceInfo struct {
	// Raw is the unparsed search reply
	Raw string `json:"raw"`

	// IP is the controller's IPv4 address as reported by itself
	IP string `json:"ip"`

	// Name is the controller's unit name (e.g., "SystaComfort-II")
	Name string `json:"name"`

	// ID is the 10 hex digit unit id encoding app, platform and version
	ID string `json:"id"`

	App         int    `json:"app"`
	Platform    int    `json:"platform"`
	Major       int    `json:"major"`
	Minor       int    `json:"minor"`
	Version     string `json:"version"`
	BaseVersion string `json:"base_version"`

	// MAC is the controller MAC in the bare 12 hex digit form used for addressing
	MAC string `json:"mac"`

	// LocalIP is the address of the interface the reply arrived on
	LocalIP string `json:"local_ip"`

	// BroadcastIP and BroadcastPort are where the search was sent
	BroadcastIP   string `json:"broadcast_ip"`
	BroadcastPort int    `json:"broadcast_port"`

	// Port is the S-Touch UDP port, 0 when the controller does not support it
	Port int `json:"port"`

	// Password is the S-Touch UDP password
	Password string `json:"password,omitempty"`

	// STouchSupported is true once port and password are known
	STouchSupported bool `json:"stouch_supported"`

	// DiscoveredAt is when the search reply arrived
	DiscoveredAt time.Time `json:"discovered_at"`
}

// String returns a human-readable string representation of the device
func (d *DeviceInfo) String() string {
	if d.STouchSupported {
		return fmt.Sprintf("%s %s (%s) at %s:%d", d.Name, d.Version, d.MAC, d.IP, d.Port)
	}
	return fmt.Sprintf("%s %s (%s) at %s, S-Touch not supported", d.Name, d.Version, d.MAC, d.IP)
}

// Endpoint returns the session endpoint for the device
func (d *DeviceInfo) Endpoint() session.Endpoint {
	return session.Endpoint{Address: d.IP, Port: d.Port, Password: d.Password}
}

// ParseInfo parses a search reply. It fails unless the reply has exactly
// eleven fields. App, platform and version are only decoded from a 10 digit
// unit id.
func ParseInfo(reply string) (*DeviceInfo, error) {
	reply = strings.TrimSpace(reply)
	fields := strings.Split(reply, " ")
	if len(fields) != infoFields {
		return nil, fmt.Errorf("search reply has %d fields, want %d", len(fields), infoFields)
	}

	d := &DeviceInfo{
		Raw:          reply,
		IP:           fields[2],
		Name:         strings.ReplaceAll(fields[5], "\x000", ""), // zero terminated on the wire
		ID:           fields[6],
		App:          -1,
		Platform:     -1,
		Major:        -1,
		Minor:        -1,
		DiscoveredAt: time.Now(),
	}
	if len(d.ID) != 10 {
		return d, nil
	}

	var err error
	if d.App, err = parseHex(d.ID[0:2]); err != nil {
		return nil, err
	}
	if d.Platform, err = parseHex(d.ID[2:4]); err != nil {
		return nil, err
	}
	// major is little-endian in the id
	if d.Major, err = parseHex(d.ID[6:8] + d.ID[4:6]); err != nil {
		return nil, err
	}
	if d.Minor, err = parseHex(d.ID[8:10]); err != nil {
		return nil, err
	}
	d.Version = strconv.FormatFloat(float64(d.Major)/100, 'f', -1, 64) + "." + strconv.Itoa(d.Minor)
	d.BaseVersion = fields[8]
	d.MAC = fields[10]
	return d, nil
}

func parseHex(s string) (int, error) {
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unit id digits %q: %w", s, err)
	}
	return int(v), nil
}

var nonAlnum = regexp.MustCompile(`[^0-9 a-zA-Z]`)

// ParsePortReply extracts the S-Touch port from a reply such as "0 7 3477\x00".
// It returns 0 for "unknown value" replies from controllers without S-Touch.
func ParsePortReply(reply string) (int, error) {
	reply = strings.TrimSpace(nonAlnum.ReplaceAllString(reply, ""))
	if strings.Contains(strings.ToLower(reply), "unknown value") {
		return 0, nil
	}
	fields := strings.Split(reply, " ")
	if len(fields) < 3 {
		return 0, fmt.Errorf("port reply %q too short", reply)
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, fmt.Errorf("invalid port in reply %q: %w", reply, err)
	}
	return port, nil
}

// ParsePasswordReply extracts the password from a reply such as "0 7 1234"
func ParsePasswordReply(reply string) (string, error) {
	fields := strings.Split(strings.TrimSpace(reply), " ")
	if len(fields) < 3 {
		return "", fmt.Errorf("password reply %q too short", reply)
	}
	return fields[2], nil
}

// SearchMessage is broadcast to make controllers announce themselves
const SearchMessage = "0 1 A"

// PortRequest asks the controller with the given MAC for its S-Touch port
func PortRequest(mac string) string {
	return mac + " 6 A R DISP Port"
}

// PasswordRequest asks the controller with the given MAC for its UDP password
func PasswordRequest(mac string) string {
	return mac + " 6 R UDP Pass"
}
