package display

import (
	"fmt"

	"github.com/muurk/stouch/internal/protocol"
)

// Alignment of a text relative to its anchor point
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Style codes the controller sends before PRINTXY. Anything else leaves the
// text unaligned.
const (
	StyleRight  = 131
	StyleLeft   = 147
	StyleCenter = 97
)

// AlignmentFor maps a SETSTYLE code to an alignment
func AlignmentFor(style int) Alignment {
	switch style {
	case StyleRight:
		return AlignRight
	case StyleLeft:
		return AlignLeft
	case StyleCenter:
		return AlignCenter
	default:
		return AlignNone
	}
}

func (a Alignment) String() string {
	switch a {
	case AlignNone:
		return "ALIGN_NONE"
	case AlignLeft:
		return "ALIGN_LEFT"
	case AlignCenter:
		return "ALIGN_CENTER"
	case AlignRight:
		return "ALIGN_RIGHT"
	default:
		return "unknown"
	}
}

// MarshalText makes alignments readable in JSON snapshots
func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// The painted objects below are stored in the containment tree. They are
// comparable values so equal objects at equal boxes collapse to one node.

// ButtonObject is a touch area registered with SETBUTTON
type ButtonObject struct {
	protocol.Button
}

func (b ButtonObject) String() string {
	return fmt.Sprintf("Button ID: %d (%d, %d)/(%d, %d)", b.ID, b.XMin, b.YMin, b.XMax, b.YMax)
}

// TextObject is a string pinned at a coordinate
type TextObject struct {
	protocol.TextAt
	Style int
	Align Alignment
}

func (t TextObject) String() string {
	return fmt.Sprintf("Text: %s (%d, %d)[%s]", t.Text, t.X, t.Y, t.Align)
}

// RectObject is an outline drawn with DRAWRECT or DRAWROUNDRECT
type RectObject struct {
	protocol.Rectangle
}

func (r RectObject) String() string {
	return fmt.Sprintf("Rectangle (%d, %d)/(%d, %d)", r.XMin, r.YMin, r.XMax, r.YMax)
}

// TouchMarker marks the last simulated touch
type TouchMarker struct {
	protocol.Circle
}

func (c TouchMarker) String() string {
	return fmt.Sprintf("Circle: (%d, %d) - %d", c.X, c.Y, c.Radius)
}

// TouchMarkerRadius is the radius of the painted touch marker
const TouchMarkerRadius = 10
