package render

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/protocol"
)

var (
	red    = protocol.Color{R: 255}
	blue   = protocol.Color{B: 255}
	yellow = protocol.Color{R: 255, G: 255}
)

// sampleScreen draws a red button, a text on yellow, a blue rectangle and a
// touch inside the button
func sampleScreen() display.Snapshot {
	m := display.New()
	m.SetBackground(red)
	m.AddButton(protocol.Button{ID: 7, XMin: 20, YMin: 20, XMax: 100, YMax: 60})
	m.SetBackground(yellow)
	m.AddText(protocol.TextAt{X: 150, Y: 100, Text: "Hi"})
	m.SetBackground(blue)
	m.DrawRect(protocol.Rectangle{XMin: 200, YMin: 150, XMax: 300, YMax: 200})
	m.SetTouchAt(50, 40)
	return m.Snapshot()
}

func rgb(img image.Image, x, y int) protocol.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return protocol.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

func TestPNG(t *testing.T) {
	data, err := PNGBytes(sampleScreen())
	if err != nil {
		t.Fatalf("PNGBytes() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Fatalf("bounds = %v, want %dx%d", b, Width, Height)
	}

	tests := []struct {
		name string
		x, y int
		want protocol.Color
	}{
		{"background", 5, 5, protocol.White},
		{"button top edge", 60, 20, protocol.Color{R: 178}},
		{"button bottom edge", 80, 60, protocol.Color{R: 255, G: 64, B: 64}},
		{"rectangle edge", 250, 150, blue},
		{"rectangle inside untouched", 250, 175, protocol.White},
		{"touch marker", 50, 40, protocol.Green},
		{"touch marker rim", 60, 40, protocol.Green},
		{"outside marker", 50, 52, protocol.White},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rgb(img, tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	// text box: yellow background with black glyphs
	var bg, fg int
	for y := 89; y < 102; y++ {
		for x := 150; x < 164; x++ {
			switch rgb(img, x, y) {
			case yellow:
				bg++
			case protocol.Black:
				fg++
			}
		}
	}
	if bg == 0 || fg == 0 {
		t.Errorf("text box has %d background and %d glyph pixels", bg, fg)
	}
}

func TestTextAlignment(t *testing.T) {
	tests := []struct {
		style int
		minX  int // leftmost black pixel expected at or after
		maxX  int // and before
	}{
		{-1, 100, 114},
		{display.StyleCenter, 93, 107},
		{display.StyleLeft, 86, 100},
	}
	for _, tt := range tests {
		t.Run(display.AlignmentFor(tt.style).String(), func(t *testing.T) {
			m := display.New()
			m.SetStyle(tt.style)
			m.AddText(protocol.TextAt{X: 100, Y: 100, Text: "WW"})
			img := Image(m.Snapshot())

			left := -1
			for x := 0; x < Width && left < 0; x++ {
				for y := 85; y < 105; y++ {
					if rgb(img, x, y) == protocol.Black {
						left = x
						break
					}
				}
			}
			if left < tt.minX || left >= tt.maxX {
				t.Errorf("leftmost glyph pixel at x=%d, want in [%d, %d)", left, tt.minX, tt.maxX)
			}
		})
	}
}

func TestExcalidraw(t *testing.T) {
	scene := Excalidraw(sampleScreen())

	want := []Element{
		{Type: "rectangle", X: 20, Y: 20, Width: 80, Height: 40, StrokeColor: buttonStroke},
		{Type: "text", X: 22, Y: 20, Width: 20, Height: 20, Text: "7", FontSize: 20, StrokeColor: buttonStroke},
		{Type: "text", X: 150, Y: 90, Width: 40, Height: 20, Text: "Hi", FontSize: 20},
		{Type: "rectangle", X: 200, Y: 150, Width: 100, Height: 50, StrokeColor: rectangleStroke},
		{Type: "ellipse", X: 45, Y: 35, Width: 10, Height: 10, StrokeColor: markerStroke, BackgroundColor: markerFill, FillStyle: "solid"},
	}
	if len(scene.Elements) != len(want) {
		t.Fatalf("got %d elements, want %d: %+v", len(scene.Elements), len(want), scene.Elements)
	}
	for i := range want {
		if scene.Elements[i] != want[i] {
			t.Errorf("element %d = %+v, want %+v", i, scene.Elements[i], want[i])
		}
	}
	if scene.Type != "excalidraw" || scene.Version != 2 || scene.Source != Source {
		t.Errorf("scene header = %s/%d/%s", scene.Type, scene.Version, scene.Source)
	}
}

func TestExcalidrawJSON(t *testing.T) {
	data, err := ExcalidrawJSON(display.New().Snapshot())
	if err != nil {
		t.Fatalf("ExcalidrawJSON() error = %v", err)
	}
	for _, s := range []string{`"gridSize": null`, `"viewBackgroundColor": "#ffffff"`, `"files": {}`, `"elements": []`} {
		if !strings.Contains(string(data), s) {
			t.Errorf("JSON missing %s:\n%s", s, data)
		}
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if doc["type"] != "excalidraw" {
		t.Errorf("type = %v", doc["type"])
	}
}

func TestExcalidraw_ButtonLabelWidth(t *testing.T) {
	m := display.New()
	m.AddButton(protocol.Button{ID: 123, XMin: 0, YMin: 0, XMax: 10, YMax: 10})
	scene := Excalidraw(m.Snapshot())
	if len(scene.Elements) != 2 || scene.Elements[1].Width != 60 {
		t.Errorf("button id label = %+v", scene.Elements)
	}
}
