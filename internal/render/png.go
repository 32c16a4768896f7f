package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/protocol"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Panel size in pixels
const (
	Width  = 320
	Height = 240
)

var face = basicfont.Face7x13

// Image paints every object of the snapshot in insertion order on a white
// panel. Objects use the colors that were current when they were drawn.
func Image(s display.Snapshot) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(protocol.White), image.Point{}, draw.Src)

	for _, e := range s.Entries {
		fg, bg := protocol.Black, protocol.White
		if e.Foreground != nil {
			fg = *e.Foreground
		}
		if e.Background != nil {
			bg = *e.Background
		}

		switch o := e.Object.(type) {
		case display.ButtonObject:
			drawButton(img, o.Button, fg, bg)
		case display.RectObject:
			strokeRect(img, o.Rectangle, bg)
		case display.TextObject:
			drawText(img, o, fg, bg)
		case display.TouchMarker:
			fillCircle(img, o.X, o.Y, o.Radius, fg)
		}
	}
	return img
}

// PNG writes the rendered snapshot to w
func PNG(w io.Writer, s display.Snapshot) error {
	return png.Encode(w, Image(s))
}

// PNGBytes returns the rendered snapshot as PNG data
func PNGBytes(s display.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := PNG(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawButton draws a sunken frame in the background color with the button id
// in the foreground color
func drawButton(img *image.RGBA, b protocol.Button, fg, bg protocol.Color) {
	r := b.Box()
	dark, light := shade(bg, 0.7), brighten(bg)
	hline(img, r.XMin, r.XMax, r.YMin, dark)
	vline(img, r.XMin, r.YMin, r.YMax, dark)
	hline(img, r.XMin, r.XMax, r.YMax, light)
	vline(img, r.XMax, r.YMin, r.YMax, light)
	drawString(img, strconv.Itoa(b.ID), r.XMin+5, r.YMin+20, fg)
}

// drawText fills the text's bounds with the background color and draws the
// text on top. Alignment shifts the text left of its anchor.
func drawText(img *image.RGBA, t display.TextObject, fg, bg protocol.Color) {
	width := font.MeasureString(face, t.Text).Ceil()
	offset := 0
	switch t.Align {
	case display.AlignCenter:
		offset = -width / 2
	case display.AlignLeft:
		offset = -width
	}
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	height := m.Height.Ceil()
	box := image.Rect(t.X+offset, t.Y-ascent, t.X+offset+width, t.Y-ascent+height)
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)
	drawString(img, t.Text, t.X+offset, t.Y, fg)
}

func drawString(img *image.RGBA, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func strokeRect(img *image.RGBA, r protocol.Rectangle, c color.Color) {
	hline(img, r.XMin, r.XMax, r.YMin, c)
	hline(img, r.XMin, r.XMax, r.YMax, c)
	vline(img, r.XMin, r.YMin, r.YMax, c)
	vline(img, r.XMax, r.YMin, r.YMax, c)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.Color) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}
}

func shade(c protocol.Color, f float64) protocol.Color {
	return protocol.Color{R: uint8(float64(c.R) * f), G: uint8(float64(c.G) * f), B: uint8(float64(c.B) * f)}
}

func brighten(c protocol.Color) protocol.Color {
	up := func(v uint8) uint8 {
		if v > 255-64 {
			return 255
		}
		return v + 64
	}
	return protocol.Color{R: up(c.R), G: up(c.G), B: up(c.B)}
}
