package protocol

import "fmt"

// Color is a 24-bit color decoded from the panel's RGB565 values.
// It satisfies image/color.Color so renderers can use it directly.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Colors used by the display model defaults and the touch marker
var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
	Green = Color{0, 255, 0}
)

// ColorFromRGB565 expands 5/6/5 bit channels to 8 bits each, replicating the
// high bits into the low bits so full intensity maps to 255.
func ColorFromRGB565(v uint16) Color {
	r := uint8((v >> 11) & 0x1F)
	g := uint8((v >> 5) & 0x3F)
	b := uint8(v & 0x1F)
	return Color{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
	}
}

// RGB565 packs the color back into 16 bits. The low channel bits are
// dropped, so Color -> RGB565 -> Color is not an identity.
func (c Color) RGB565() uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

// RGBA implements image/color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xFFFF
}

// Hex returns the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
