package display

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/muurk/stouch/internal/protocol"
	"github.com/muurk/stouch/internal/spatial"
)

// Resource area figures reported by GETRESOURCEINFO
const (
	ResourceID       = 0
	FontsUsed        = 3
	FontsAvailable   = 7
	SymbolsUsed      = 3
	SymbolsAvailable = 17
)

// NoButton is the selected button id when no button is touched
const NoButton = -1

// Touch is the last simulated touch. X, Y and Button are -1 until the first
// touch.
type Touch struct {
	X      int
	Y      int
	Button int
}

// Settings holds panel state the controller sets but which has no visible
// effect in the emulation
type Settings struct {
	On          bool
	Inverse     int
	FontType    int
	Backlight   int
	Click       int
	Buzzer      int
	SyncNow     int
	TempOffsets protocol.Coordinates
}

// Model is the emulated screen: the UI collections, the containment tree
// holding every painted object and the current drawing state. All methods
// are safe for concurrent use.
type Model struct {
	mu sync.Mutex

	tree    *spatial.Tree
	buttons map[int]protocol.Button
	texts   []TextObject
	rects   []RectObject
	symbols map[protocol.Symbol]struct{}

	fg       protocol.Color
	bg       protocol.Color
	style    int
	cursor   protocol.Coordinates
	touch    Touch
	settings Settings
	config   int32

	checksumPattern []byte
	checksum        int32

	intn func(n int) int

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// New returns a blank screen with black on white drawing colors
func New() *Model {
	m := &Model{
		tree:            spatial.New(),
		buttons:         make(map[int]protocol.Button),
		symbols:         make(map[protocol.Symbol]struct{}),
		fg:              protocol.Black,
		bg:              protocol.White,
		style:           -1,
		touch:           Touch{X: -1, Y: -1, Button: NoButton},
		checksumPattern: append([]byte(nil), defaultChecksumPattern...),
		intn:            rand.IntN,
		subs:            make(map[chan struct{}]struct{}),
	}
	m.checksum, _ = rollingSum(m.checksumPattern)
	return m
}

// Tree exposes the containment tree for export. Callers must not mutate it.
func (m *Model) Tree() *spatial.Tree {
	return m.tree
}

func (m *Model) colors() (*protocol.Color, *protocol.Color) {
	fg, bg := m.fg, m.bg
	return &fg, &bg
}

// AddButton registers b, replacing any button with the same id
func (m *Model) AddButton(b protocol.Button) {
	m.mu.Lock()
	m.addButton(b)
	m.mu.Unlock()
	m.notify()
}

func (m *Model) addButton(b protocol.Button) {
	if old, ok := m.buttons[b.ID]; ok {
		m.tree.Remove(ButtonObject{old}, spatial.RectBox(old.Box()))
	}
	m.buttons[b.ID] = b
	fg, bg := m.colors()
	m.tree.Insert(spatial.Entry{
		Object:     ButtonObject{b},
		Box:        spatial.RectBox(b.Box()),
		Foreground: fg,
		Background: bg,
	})
}

// DeleteButton removes one button. Ids -1 and 255 clear the whole screen.
func (m *Model) DeleteButton(id int) {
	m.mu.Lock()
	m.deleteButton(id)
	m.mu.Unlock()
	m.notify()
}

func (m *Model) deleteButton(id int) {
	if id == -1 || id == 255 {
		m.clearScreen()
		return
	}
	b, ok := m.buttons[id]
	if !ok {
		return
	}
	delete(m.buttons, id)
	m.tree.Remove(ButtonObject{b}, spatial.RectBox(b.Box()))
}

// ClearScreen drops buttons, texts, rectangles and every tree node
func (m *Model) ClearScreen() {
	m.mu.Lock()
	m.clearScreen()
	m.mu.Unlock()
	m.notify()
}

func (m *Model) clearScreen() {
	m.buttons = make(map[int]protocol.Button)
	m.texts = nil
	m.rects = nil
	m.symbols = make(map[protocol.Symbol]struct{})
	m.tree.Clear()
}

// AddText pins t at its coordinate. A text already pinned at exactly that
// corner is replaced. The text takes the current style.
func (m *Model) AddText(t protocol.TextAt) {
	m.mu.Lock()
	m.addText(t)
	m.mu.Unlock()
	m.notify()
}

func (m *Model) addText(t protocol.TextAt) {
	if e, ok := m.tree.FindNodeAtPos(t.X, t.Y); ok {
		if old, isText := e.Object.(TextObject); isText {
			m.tree.Remove(old, e.Box)
			m.removeText(old)
		}
	}
	obj := TextObject{TextAt: t, Style: m.style, Align: AlignmentFor(m.style)}
	fg, bg := m.colors()
	m.tree.Insert(spatial.Entry{
		Object:     obj,
		Box:        spatial.PointBox(t.X, t.Y),
		Foreground: fg,
		Background: bg,
	})
	m.texts = append(m.texts, obj)
}

func (m *Model) removeText(t TextObject) {
	for i, cur := range m.texts {
		if cur == t {
			m.texts = append(m.texts[:i], m.texts[i+1:]...)
			return
		}
	}
}

// DrawRect paints a rectangle. Texts anchored inside it are erased first.
func (m *Model) DrawRect(r protocol.Rectangle) {
	m.mu.Lock()
	m.drawRect(r)
	m.mu.Unlock()
	m.notify()
}

func (m *Model) drawRect(r protocol.Rectangle) {
	kept := m.texts[:0]
	for _, t := range m.texts {
		if r.Contains(t.X, t.Y) {
			m.tree.Remove(t, spatial.PointBox(t.X, t.Y))
			continue
		}
		kept = append(kept, t)
	}
	m.texts = kept

	obj := RectObject{r}
	fg, bg := m.colors()
	m.tree.Insert(spatial.Entry{
		Object:     obj,
		Box:        spatial.RectBox(r),
		Foreground: fg,
		Background: bg,
	})
	m.rects = append(m.rects, obj)
}

// SetTouch records a touch at (x, y) selecting button id and moves the
// touch marker there
func (m *Model) SetTouch(id, x, y int) {
	m.mu.Lock()
	m.setTouch(id, x, y)
	m.mu.Unlock()
	m.notify()
}

func (m *Model) setTouch(id, x, y int) {
	old := m.touch
	m.tree.Remove(TouchMarker{protocol.Circle{X: old.X, Y: old.Y, Radius: TouchMarkerRadius}}, spatial.PointBox(old.X, old.Y))

	fg, bg := protocol.Green, protocol.White
	m.tree.Insert(spatial.Entry{
		Object:     TouchMarker{protocol.Circle{X: x, Y: y, Radius: TouchMarkerRadius}},
		Box:        spatial.PointBox(x, y),
		Foreground: &fg,
		Background: &bg,
	})
	m.touch = Touch{X: x, Y: y, Button: id}
}

// SetTouchAt records a touch at (x, y), selecting whichever button contains
// the point
func (m *Model) SetTouchAt(x, y int) {
	m.mu.Lock()
	m.setTouch(m.findButtonPressed(x, y), x, y)
	m.mu.Unlock()
	m.notify()
}

// FindButtonPressed returns the id of the button containing (x, y), or
// NoButton
func (m *Model) FindButtonPressed(x, y int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findButtonPressed(x, y)
}

func (m *Model) findButtonPressed(x, y int) int {
	if x == -1 || y == -1 {
		return NoButton
	}
	if b, ok := spatial.FindContainingOf[ButtonObject](m.tree, x, y); ok {
		return b.ID
	}
	return NoButton
}

// PushButton touches a random point inside button id. It reports false if
// no such button exists.
func (m *Model) PushButton(id int) bool {
	m.mu.Lock()
	b, ok := m.buttons[id]
	if ok {
		x := m.pick(b.XMin, b.XMax)
		y := m.pick(b.YMin, b.YMax)
		m.setTouch(id, x, y)
	}
	m.mu.Unlock()
	if ok {
		m.notify()
	}
	return ok
}

// pick returns a value in [lo, hi), or lo for an empty range
func (m *Model) pick(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + m.intn(hi-lo)
}

// TouchText touches the anchor of the first text equal to s
func (m *Model) TouchText(s string) bool {
	m.mu.Lock()
	var found *TextObject
	for i := range m.texts {
		if m.texts[i].Text == s {
			found = &m.texts[i]
			break
		}
	}
	if found != nil {
		x, y := found.X, found.Y
		m.setTouch(m.findButtonPressed(x, y), x, y)
	}
	m.mu.Unlock()
	if found != nil {
		m.notify()
	}
	return found != nil
}

// HasText reports whether a text equal to s is currently shown
func (m *Model) HasText(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.texts {
		if t.Text == s {
			return true
		}
	}
	return false
}

// HasButton reports whether button id is currently registered
func (m *Model) HasButton(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buttons[id]
	return ok
}

// Touch returns the last simulated touch
func (m *Model) Touch() Touch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touch
}

// SetStyle sets the style applied to subsequent texts
func (m *Model) SetStyle(style int) {
	m.mu.Lock()
	m.style = style
	m.mu.Unlock()
}

// SetForeground sets the drawing color of subsequent objects
func (m *Model) SetForeground(c protocol.Color) {
	m.mu.Lock()
	m.fg = c
	m.mu.Unlock()
}

// SetBackground sets the fill color of subsequent objects
func (m *Model) SetBackground(c protocol.Color) {
	m.mu.Lock()
	m.bg = c
	m.mu.Unlock()
}

// SetConfig stores the config register. Only bit 0 is kept.
func (m *Model) SetConfig(v int32) {
	m.mu.Lock()
	m.config = v & 1
	m.mu.Unlock()
}

// Config returns the config register
func (m *Model) Config() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Sequenced reports whether config bit 0 (sequenced command mode) is set
func (m *Model) Sequenced() bool {
	return m.Config()&1 == 1
}

// ResourceInfo describes the resource area for GETRESOURCEINFO
func (m *Model) ResourceInfo() protocol.ResourceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return protocol.ResourceInfo{
		ResourceID:       ResourceID,
		FontsUsed:        FontsUsed,
		SymbolsUsed:      SymbolsUsed,
		FontsAvailable:   FontsAvailable,
		SymbolsAvailable: SymbolsAvailable,
		Checksum:         m.checksum,
	}
}

// Snapshot is a consistent copy of the screen for rendering and status
type Snapshot struct {
	Buttons    []protocol.Button
	Texts      []TextObject
	Rectangles []protocol.Rectangle
	Symbols    []protocol.Symbol
	Touch      Touch
	Foreground protocol.Color
	Background protocol.Color
	Style      int
	Config     int32
	Checksum   int32
	Settings   Settings

	// Entries are the tree nodes in insertion order, colors included
	Entries []spatial.Entry
	// Tree is the depth-indented object tree
	Tree string
}

// Snapshot copies the current screen
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Touch:      m.touch,
		Foreground: m.fg,
		Background: m.bg,
		Style:      m.style,
		Config:     m.config,
		Checksum:   m.checksum,
		Settings:   m.settings,
		Texts:      append([]TextObject(nil), m.texts...),
		Entries:    m.tree.Entries(),
		Tree:       m.tree.String(),
	}
	for _, b := range m.buttons {
		s.Buttons = append(s.Buttons, b)
	}
	sort.Slice(s.Buttons, func(i, j int) bool { return s.Buttons[i].ID < s.Buttons[j].ID })
	for _, r := range m.rects {
		s.Rectangles = append(s.Rectangles, r.Rectangle)
	}
	for sym := range m.symbols {
		s.Symbols = append(s.Symbols, sym)
	}
	sort.Slice(s.Symbols, func(i, j int) bool {
		a, b := s.Symbols[i], s.Symbols[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	return s
}
