package protocol

import (
	"fmt"
	"net"
)

// Coordinates is a point on the 320x240 panel
type Coordinates struct {
	X int
	Y int
}

// Rectangle is an axis-aligned box. Callers expect XMin <= XMax and
// YMin <= YMax but the wire does not enforce it.
type Rectangle struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// Contains reports whether (x, y) lies inside the rectangle, borders included
func (r Rectangle) Contains(x, y int) bool {
	return x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

func (r Rectangle) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.XMin, r.YMin, r.XMax, r.YMax)
}

// RoundRectangle is a rectangle with rounded corners
type RoundRectangle struct {
	Rectangle
	Curvature int
}

// Circle is drawn by DISPLAY_DRAWARC
type Circle struct {
	X      int
	Y      int
	Radius int
}

// Symbol references a built-in glyph from the resource area
type Symbol struct {
	X  int
	Y  int
	ID int
}

// TextAt is a string anchored at a panel position
type TextAt struct {
	X    int
	Y    int
	Text string
}

// TextRotated is a string drawn at the cursor with a rotation angle
type TextRotated struct {
	Angle int
	Text  string
}

// Button is a touch-sensitive area registered by the controller
type Button struct {
	ID   int
	XMin int
	YMin int
	XMax int
	YMax int
}

// Box returns the button's bounding rectangle
func (b Button) Box() Rectangle {
	return Rectangle{XMin: b.XMin, YMin: b.YMin, XMax: b.XMax, YMax: b.YMax}
}

func (b Button) String() string {
	return fmt.Sprintf("Button %d (%d, %d, %d, %d)", b.ID, b.XMin, b.YMin, b.XMax, b.YMax)
}

// MAC is a 6-byte hardware address as carried on the wire
type MAC [6]byte

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// ParseMAC accepts the usual colon/dash notations and the bare 12 hex digit
// form used by the controller's discovery replies.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	if len(s) == 12 {
		s = fmt.Sprintf("%s:%s:%s:%s:%s:%s", s[0:2], s[2:4], s[4:6], s[6:8], s[8:10], s[10:12])
	}
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return m, fmt.Errorf("invalid MAC address %q: %d bytes (expected 6)", s, len(hw))
	}
	copy(m[:], hw)
	return m, nil
}
