package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if DebugEnabled() {
		t.Error("DebugEnabled() = true for silent logger")
	}
	// must not panic on a nop logger
	LogDatagram("recv", "127.0.0.1:1", []byte{1, 2, 3})
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer func() { logger = nil }()
	if !DebugEnabled() {
		t.Error("DebugEnabled() = false with STOUCH_LOG_LEVEL=debug")
	}
}

func TestDumps(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantHex   string
		wantASCII string
	}{
		{"empty", nil, "", ""},
		{"connect request", []byte{8, 0, 0, 0, 0, 1, 'p', 'w'}, "0800000000017077", "......pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hexDump(tt.data); got != tt.wantHex {
				t.Errorf("hexDump() = %q, want %q", got, tt.wantHex)
			}
			if got := asciiDump(tt.data); got != tt.wantASCII {
				t.Errorf("asciiDump() = %q, want %q", got, tt.wantASCII)
			}
		})
	}

	long := make([]byte, 300)
	if got := hexDump(long); len(got) != 2*maxDumpBytes+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("hexDump(300 bytes) has length %d", len(got))
	}
	if got := asciiDump(long); len(got) != maxDumpBytes {
		t.Errorf("asciiDump(300 bytes) has length %d, want %d", len(got), maxDumpBytes)
	}
}
