package render

import (
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/muurk/stouch/internal/display"
)

// Source is the producer recorded in exported scenes
const Source = "https://github.com/muurk/stouch"

// Excalidraw stroke colors
const (
	buttonStroke    = "#e03131"
	rectangleStroke = "#313131"
	markerStroke    = "#2f9e44"
	markerFill      = "#b2f2bb"

	fontSize = 20
)

// Element is one Excalidraw shape
type Element struct {
	Type            string `json:"type"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Text            string `json:"text,omitempty"`
	FontSize        int    `json:"fontSize,omitempty"`
	StrokeColor     string `json:"strokeColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FillStyle       string `json:"fillStyle,omitempty"`
}

// AppState holds the scene settings Excalidraw needs to open the file
type AppState struct {
	GridSize            *int   `json:"gridSize"`
	ViewBackgroundColor string `json:"viewBackgroundColor"`
}

// Scene is an Excalidraw document
type Scene struct {
	Type     string         `json:"type"`
	Version  int            `json:"version"`
	Source   string         `json:"source"`
	Elements []Element      `json:"elements"`
	AppState AppState       `json:"appState"`
	Files    map[string]any `json:"files"`
}

// Excalidraw describes the snapshot as an Excalidraw scene. Elements follow
// the tree's insertion order.
func Excalidraw(s display.Snapshot) Scene {
	scene := Scene{
		Type:     "excalidraw",
		Version:  2,
		Source:   Source,
		Elements: make([]Element, 0, len(s.Entries)),
		AppState: AppState{ViewBackgroundColor: "#ffffff"},
		Files:    map[string]any{},
	}

	for _, e := range s.Entries {
		switch o := e.Object.(type) {
		case display.ButtonObject:
			id := strconv.Itoa(o.ID)
			scene.Elements = append(scene.Elements,
				Element{
					Type:        "rectangle",
					X:           o.XMin,
					Y:           o.YMin,
					Width:       o.XMax - o.XMin,
					Height:      o.YMax - o.YMin,
					StrokeColor: buttonStroke,
				},
				Element{
					Type:        "text",
					X:           o.XMin + 2,
					Y:           o.YMin,
					Width:       len(id) * fontSize,
					Height:      fontSize,
					Text:        id,
					FontSize:    fontSize,
					StrokeColor: buttonStroke,
				},
			)
		case display.RectObject:
			scene.Elements = append(scene.Elements, Element{
				Type:        "rectangle",
				X:           o.XMin,
				Y:           o.YMin,
				Width:       o.XMax - o.XMin,
				Height:      o.YMax - o.YMin,
				StrokeColor: rectangleStroke,
			})
		case display.TextObject:
			scene.Elements = append(scene.Elements, Element{
				Type:     "text",
				X:        o.X,
				Y:        o.Y - 10,
				Width:    utf8.RuneCountInString(o.Text) * fontSize,
				Height:   fontSize,
				Text:     o.Text,
				FontSize: fontSize,
			})
		case display.TouchMarker:
			scene.Elements = append(scene.Elements, Element{
				Type:            "ellipse",
				X:               o.X - o.Radius/2,
				Y:               o.Y - o.Radius/2,
				Width:           o.Radius,
				Height:          o.Radius,
				StrokeColor:     markerStroke,
				BackgroundColor: markerFill,
				FillStyle:       "solid",
			})
		}
	}
	return scene
}

// ExcalidrawJSON returns the indented scene document
func ExcalidrawJSON(s display.Snapshot) ([]byte, error) {
	return json.MarshalIndent(Excalidraw(s), "", "  ")
}
