package discovery

import (
	"testing"

	"github.com/muurk/stouch/internal/session"
)

const sampleInfo = "SC2 1 192.168.11.23 255.255.255.0 192.168.11.1 SystaComfort-II\x000 0809720001 0 V0.34 V1.00 2CBE9700BEE9"

func TestParseInfo(t *testing.T) {
	d, err := ParseInfo(sampleInfo + "\r\n")
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}

	tests := []struct {
		field string
		got   any
		want  any
	}{
		{"IP", d.IP, "192.168.11.23"},
		{"Name", d.Name, "SystaComfort-II"},
		{"ID", d.ID, "0809720001"},
		{"App", d.App, 8},
		{"Platform", d.Platform, 9},
		{"Major", d.Major, 114},
		{"Minor", d.Minor, 1},
		{"Version", d.Version, "1.14.1"},
		{"BaseVersion", d.BaseVersion, "V0.34"},
		{"MAC", d.MAC, "2CBE9700BEE9"},
		{"STouchSupported", d.STouchSupported, false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("DeviceInfo.%s = %v, want %v", tt.field, tt.got, tt.want)
			}
		})
	}
}

func TestParseInfo_Errors(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
		wantMAC string
	}{
		{"too few fields", "SC2 1 192.168.11.23 255.255.255.0 192.168.11.1", true, ""},
		{"too many fields", sampleInfo + " extra", true, ""},
		{"bad hex in id", "SC2 1 10.0.0.2 255.0.0.0 10.0.0.1 Unit 08ZZ720001 0 V0.34 V1.00 2CBE9700BEE9", true, ""},
		{"short id keeps basics", "SC2 1 10.0.0.2 255.0.0.0 10.0.0.1 Unit 0809 0 V0.34 V1.00 2CBE9700BEE9", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseInfo(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d.MAC != tt.wantMAC || d.App != -1 || d.IP != "10.0.0.2" {
				t.Errorf("ParseInfo() = %+v", d)
			}
		})
	}
}

func TestParsePortReply(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr bool
	}{
		{"port with terminator", "0 7 3477\x00", 3477, false},
		{"plain port", "0 7 3478", 3478, false},
		{"unsupported", "0 7 unknown value:Uremoteportalde", 0, false},
		{"unsupported upper case", "0 7 Unknown Value", 0, false},
		{"too short", "0 7", 0, true},
		{"not a number", "0 7 port", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePortReply(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePortReply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePortReply() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParsePasswordReply(t *testing.T) {
	got, err := ParsePasswordReply("0 7 1234\n")
	if err != nil || got != "1234" {
		t.Errorf("ParsePasswordReply() = %q, %v, want 1234", got, err)
	}
	if _, err := ParsePasswordReply("0 7"); err == nil {
		t.Error("ParsePasswordReply(short) error = nil")
	}
}

func TestRequests(t *testing.T) {
	if got := PortRequest("2CBE9700BEE9"); got != "2CBE9700BEE9 6 A R DISP Port" {
		t.Errorf("PortRequest() = %q", got)
	}
	if got := PasswordRequest("2CBE9700BEE9"); got != "2CBE9700BEE9 6 R UDP Pass" {
		t.Errorf("PasswordRequest() = %q", got)
	}
}

func TestDeviceInfo_Endpoint(t *testing.T) {
	d := &DeviceInfo{IP: "192.168.11.23", Port: 3477, Password: "1234", STouchSupported: true,
		Name: "SystaComfort-II", Version: "1.14.1", MAC: "2CBE9700BEE9"}

	want := session.Endpoint{Address: "192.168.11.23", Port: 3477, Password: "1234"}
	if got := d.Endpoint(); got != want {
		t.Errorf("Endpoint() = %+v, want %+v", got, want)
	}
	if got := d.String(); got != "SystaComfort-II 1.14.1 (2CBE9700BEE9) at 192.168.11.23:3477" {
		t.Errorf("String() = %q", got)
	}
}
