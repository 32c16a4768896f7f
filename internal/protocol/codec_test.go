package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestColorRGB565(t *testing.T) {
	tests := []struct {
		name string
		v    uint16
		want Color
	}{
		{"black", 0x0000, Color{0, 0, 0}},
		{"white", 0xFFFF, Color{255, 255, 255}},
		{"red", 0xF800, Color{255, 0, 0}},
		{"green", 0x07E0, Color{0, 255, 0}},
		{"blue", 0x001F, Color{0, 0, 255}},
		{"mid gray", 0x8410, Color{132, 130, 132}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColorFromRGB565(tt.v)
			if got != tt.want {
				t.Errorf("ColorFromRGB565(0x%04x) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestColorRGB565RoundTrip(t *testing.T) {
	// 565 -> 888 -> 565 keeps every bit
	for v := 0; v <= 0xFFFF; v++ {
		got := ColorFromRGB565(uint16(v)).RGB565()
		if got != uint16(v) {
			t.Fatalf("round trip of 0x%04x = 0x%04x", v, got)
		}
	}

	// 888 -> 565 -> 888 drops low bits
	c := Color{R: 0x07, G: 0x03, B: 0x07}
	back := ColorFromRGB565(c.RGB565())
	if back != (Color{}) {
		t.Errorf("lossy round trip of %v = %v, want black", c, back)
	}
}

func TestReaderPrimitives(t *testing.T) {
	buf := []byte{
		0xAB,       // byte
		0x34, 0x12, // short 0x1234
		0xFE, 0xFF, 0xFF, 0xFF, // int32 -2
		0x00, 0x1A, 0x2B, 0x3C, 0x4D, 0x5E, // MAC
		0x90, // command id
	}
	r := NewReader(buf)

	b, err := r.Uint8()
	if err != nil || b != 0xAB {
		t.Fatalf("Uint8() = %d, %v, want 171", b, err)
	}
	s, err := r.Uint16()
	if err != nil || s != 0x1234 {
		t.Fatalf("Uint16() = 0x%x, %v, want 0x1234", s, err)
	}
	i, err := r.Int32()
	if err != nil || i != -2 {
		t.Fatalf("Int32() = %d, %v, want -2", i, err)
	}
	m, err := r.MAC()
	if err != nil || m.String() != "00:1a:2b:3c:4d:5e" {
		t.Fatalf("MAC() = %s, %v", m, err)
	}
	id, err := r.CommandID()
	if err != nil || id != CmdSetButton {
		t.Fatalf("CommandID() = %v, %v, want %v", id, err, CmdSetButton)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}

	_, err = r.Uint8()
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("read past end error = %v, want Truncated", err)
	}
}

func TestReaderTruncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		read func(r *Reader) error
	}{
		{"short", []byte{1}, func(r *Reader) error { _, err := r.Uint16(); return err }},
		{"int32", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.Int32(); return err }},
		{"coordinates", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.Coordinates(); return err }},
		{"rectangle", make([]byte, 7), func(r *Reader) error { _, err := r.Rectangle(); return err }},
		{"round rectangle", make([]byte, 9), func(r *Reader) error { _, err := r.RoundRectangle(); return err }},
		{"circle", make([]byte, 5), func(r *Reader) error { _, err := r.Circle(); return err }},
		{"symbol", make([]byte, 5), func(r *Reader) error { _, err := r.Symbol(); return err }},
		{"button", make([]byte, 8), func(r *Reader) error { _, err := r.Button(); return err }},
		{"char rotated", []byte{0, 0}, func(r *Reader) error { _, err := r.CharRotated(); return err }},
		{"mac", make([]byte, 5), func(r *Reader) error { _, err := r.MAC(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.buf)
			err := tt.read(r)
			if !IsTruncated(err) {
				t.Errorf("error = %v, want Truncated", err)
			}
			if r.Offset() != 0 {
				t.Errorf("offset after failed read = %d, want 0", r.Offset())
			}
		})
	}
}

func TestReaderText(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    string
		wantOff int
		wantErr bool
	}{
		{"plain", []byte("Heizung\x00"), "Heizung", 8, false},
		{"blanks kept", []byte("  21.5 \x00"), "  21.5 ", 8, false},
		{"degree sign", []byte{'2', '0', 0xB0, 'C', 0}, "20°C", 5, false},
		{"euro sign", []byte{0x80, 0}, "€", 2, false},
		{"empty", []byte{0}, "", 1, false},
		{"stops at first terminator", []byte("ab\x00cd\x00"), "ab", 3, false},
		{"no terminator", []byte("abc"), "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.buf)
			got, err := r.Text()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Text() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsMalformed(err) {
					t.Errorf("error = %v, want Malformed", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
			if r.Offset() != tt.wantOff {
				t.Errorf("offset = %d, want %d", r.Offset(), tt.wantOff)
			}
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	t.Run("shorts", func(t *testing.T) {
		for _, v := range []int{0, 1, 255, 256, 0x7FFF, 0x8000, 0xFFFF} {
			w := NewWriter(2)
			w.PutUint16(v)
			got, err := NewReader(w.Bytes()).Uint16()
			if err != nil || got != v {
				t.Errorf("short %d round trip = %d, %v", v, got, err)
			}
		}
	})

	t.Run("negative short wraps", func(t *testing.T) {
		w := NewWriter(2)
		w.PutUint16(-1)
		if !bytes.Equal(w.Bytes(), []byte{0xFF, 0xFF}) {
			t.Errorf("PutUint16(-1) = % x, want ff ff", w.Bytes())
		}
	})

	t.Run("int32", func(t *testing.T) {
		for _, v := range []int32{0, 1, -1, 0x7FFFFFFF, -0x80000000, -1254018474} {
			w := NewWriter(4)
			w.PutInt32(v)
			got, err := NewReader(w.Bytes()).Int32()
			if err != nil || got != v {
				t.Errorf("int32 %d round trip = %d, %v", v, got, err)
			}
		}
	})

	t.Run("mac", func(t *testing.T) {
		m := MAC{0x00, 0x1A, 0x2B, 0x3C, 0x4D, 0x5E}
		w := NewWriter(6)
		w.PutMAC(m)
		got, err := NewReader(w.Bytes()).MAC()
		if err != nil || got != m {
			t.Errorf("mac round trip = %v, %v", got, err)
		}
	})

	t.Run("button", func(t *testing.T) {
		b := Button{ID: 7, XMin: 10, YMin: 20, XMax: 300, YMax: 239}
		w := NewWriter(9)
		w.PutButton(b)
		if w.Len() != 9 {
			t.Fatalf("button length = %d, want 9", w.Len())
		}
		got, err := NewReader(w.Bytes()).Button()
		if err != nil || got != b {
			t.Errorf("button round trip = %v, %v", got, err)
		}
	})

	t.Run("round rectangle", func(t *testing.T) {
		rr := RoundRectangle{Rectangle: Rectangle{1, 2, 3, 4}, Curvature: 5}
		w := NewWriter(10)
		w.PutRoundRectangle(rr)
		got, err := NewReader(w.Bytes()).RoundRectangle()
		if err != nil || got != rr {
			t.Errorf("round rectangle round trip = %v, %v", got, err)
		}
	})

	t.Run("text at", func(t *testing.T) {
		ta := TextAt{X: 0, Y: 0, Text: " Warmwasser 45°C "}
		w := NewWriter(32)
		if err := w.PutTextAt(ta); err != nil {
			t.Fatalf("PutTextAt() error = %v", err)
		}
		got, err := NewReader(w.Bytes()).TextAt()
		if err != nil || got != ta {
			t.Errorf("text round trip = %+v, %v", got, err)
		}
	})

	t.Run("unencodable text", func(t *testing.T) {
		w := NewWriter(8)
		err := w.PutString("温度")
		if !errors.Is(err, ErrEncode) {
			t.Errorf("PutString() error = %v, want Encode Error", err)
		}
	})
}

func TestParseMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"001a2b3c4d5e", "00:1a:2b:3c:4d:5e", false},
		{"00:1A:2B:3C:4D:5E", "00:1a:2b:3c:4d:5e", false},
		{"00-1a-2b-3c-4d-5e", "00:1a:2b:3c:4d:5e", false},
		{"nonsense", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMAC(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMAC(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && m.String() != tt.want {
				t.Errorf("ParseMAC(%q) = %s, want %s", tt.in, m, tt.want)
			}
		})
	}
}
