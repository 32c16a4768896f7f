package spatial

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/muurk/stouch/internal/protocol"
)

// Box is an axis-aligned bounding box, borders included
type Box struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

// PointBox returns the degenerate box covering only (x, y)
func PointBox(x, y int) Box {
	return Box{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// RectBox converts a protocol rectangle
func RectBox(r protocol.Rectangle) Box {
	return Box{MinX: r.XMin, MinY: r.YMin, MaxX: r.XMax, MaxY: r.YMax}
}

// Contains reports whether o lies fully inside b
func (b Box) Contains(o Box) bool {
	return b.MinX <= o.MinX && b.MaxX >= o.MaxX && b.MinY <= o.MinY && b.MaxY >= o.MaxY
}

// ContainsPoint reports whether (x, y) lies inside b
func (b Box) ContainsPoint(x, y int) bool {
	return b.MinX <= x && b.MaxX >= x && b.MinY <= y && b.MaxY >= y
}

func (b Box) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Entry is a painted object together with its bounding box and colors.
// Object must be a comparable value; two entries are the same when both the
// box and the object are equal.
type Entry struct {
	Object     any
	Box        Box
	Foreground *protocol.Color
	Background *protocol.Color
}

type key struct {
	box    Box
	object any
}

const (
	rootIndex = 0
	noParent  = -1
)

type node struct {
	Entry
	parent   int
	children []int
	seq      uint64
	used     bool
}

// Tree is a containment hierarchy: every node's box contains the boxes of
// all its children and the root spans the whole coordinate space. It is not
// balanced. Nodes live in an arena and refer to each other by index.
type Tree struct {
	mu      sync.Mutex
	nodes   []node
	free    []int
	members map[key]int
	seq     uint64
}

// New returns an empty tree holding only the root
func New() *Tree {
	t := &Tree{}
	t.reset()
	return t
}

func (t *Tree) reset() {
	t.nodes = []node{{
		Entry:  Entry{Box: Box{MinX: math.MinInt, MinY: math.MinInt, MaxX: math.MaxInt, MaxY: math.MaxInt}},
		parent: noParent,
		used:   true,
	}}
	t.free = nil
	t.members = make(map[key]int)
	t.seq = 0
}

// Clear drops every node except the root
func (t *Tree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// Len returns the number of stored entries, excluding the root
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.members)
}

// Insert adds e below the first chain of containing nodes. Inserting an
// entry that is already present is a no-op and still reports success.
func (t *Tree) Insert(e Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{box: e.Box, object: e.Object}
	if _, ok := t.members[k]; ok {
		return true
	}

	idx := t.alloc(e)
	t.members[k] = idx
	t.attach(rootIndex, idx)
	return true
}

func (t *Tree) alloc(e Entry) int {
	t.seq++
	n := node{Entry: e, parent: noParent, used: true, seq: t.seq}
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// attach descends from start into the first child containing idx's box
// (ties go to the earliest inserted child, no backtracking) and appends idx
// to the deepest such node.
func (t *Tree) attach(start, idx int) {
	box := t.nodes[idx].Box
	cur := start
descend:
	for {
		for _, c := range t.nodes[cur].children {
			if t.nodes[c].Box.Contains(box) {
				cur = c
				continue descend
			}
		}
		break
	}
	t.nodes[idx].parent = cur
	t.nodes[cur].children = append(t.nodes[cur].children, idx)
}

// Remove deletes the entry matching object and box. Its former children are
// re-inserted from the root and may land on a different branch. It reports
// whether the entry was present.
func (t *Tree) Remove(object any, box Box) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{box: box, object: object}
	idx, ok := t.members[k]
	if !ok {
		return false
	}
	delete(t.members, k)

	n := &t.nodes[idx]
	siblings := t.nodes[n.parent].children
	for i, c := range siblings {
		if c == idx {
			t.nodes[n.parent].children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}

	orphans := n.children
	t.nodes[idx] = node{}
	t.free = append(t.free, idx)
	for _, c := range orphans {
		t.attach(rootIndex, c)
	}
	return true
}

// FindNodeAtPos returns the entry whose top-left corner is exactly (x, y).
// At each level only the first child containing the point is followed.
func (t *Tree) FindNodeAtPos(x, y int) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := rootIndex
	for {
		n := &t.nodes[cur]
		if cur != rootIndex && n.Box.MinX == x && n.Box.MinY == y {
			return n.Entry, true
		}
		if !n.Box.ContainsPoint(x, y) {
			return Entry{}, false
		}
		next := -1
		for _, c := range n.children {
			if t.nodes[c].Box.ContainsPoint(x, y) {
				next = c
				break
			}
		}
		if next < 0 {
			return Entry{}, false
		}
		cur = next
	}
}

// FindContaining performs a depth-first search for the first entry whose box
// contains (x, y) and whose object satisfies match. Children are searched
// even when their parent's box does not contain the point.
func (t *Tree) FindContaining(x, y int, match func(object any) bool) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.findContaining(rootIndex, x, y, match)
}

func (t *Tree) findContaining(idx, x, y int, match func(any) bool) (Entry, bool) {
	n := &t.nodes[idx]
	if n.Box.ContainsPoint(x, y) && n.Object != nil && match(n.Object) {
		return n.Entry, true
	}
	for _, c := range n.children {
		if e, ok := t.findContaining(c, x, y, match); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// FindContainingOf is FindContaining restricted to objects of type T
func FindContainingOf[T any](t *Tree, x, y int) (T, bool) {
	e, ok := t.FindContaining(x, y, func(o any) bool {
		_, is := o.(T)
		return is
	})
	if !ok {
		var zero T
		return zero, false
	}
	return e.Object.(T), true
}

// Entries returns every stored entry in insertion order
func (t *Tree) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := make([]int, 0, len(t.members))
	for _, i := range t.members {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return t.nodes[idx[a]].seq < t.nodes[idx[b]].seq })

	out := make([]Entry, len(idx))
	for i, n := range idx {
		out[i] = t.nodes[n].Entry
	}
	return out
}

// Walk visits entries depth-first in tree order. depth is 1 for children of
// the root.
func (t *Tree) Walk(fn func(depth int, e Entry)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.walk(rootIndex, 0, fn)
}

func (t *Tree) walk(idx, depth int, fn func(int, Entry)) {
	if idx != rootIndex {
		fn(depth, t.nodes[idx].Entry)
	}
	for _, c := range t.nodes[idx].children {
		t.walk(c, depth+1, fn)
	}
}

// RootChildren returns the number of direct children of the root
func (t *Tree) RootChildren() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes[rootIndex].children)
}

// Check verifies the structural invariants: children lie inside their
// parent, parent links match child lists, and the membership set matches
// the nodes reachable from the root.
func (t *Tree) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	reachable := 0
	var visit func(idx int) error
	visit = func(idx int) error {
		n := &t.nodes[idx]
		for _, c := range n.children {
			child := &t.nodes[c]
			if !child.used {
				return fmt.Errorf("node %d lists freed child %d", idx, c)
			}
			if child.parent != idx {
				return fmt.Errorf("node %d has parent %d, listed under %d", c, child.parent, idx)
			}
			if !n.Box.Contains(child.Box) {
				return fmt.Errorf("child %s not inside parent %s", child.Box, n.Box)
			}
			reachable++
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(rootIndex); err != nil {
		return err
	}
	if reachable != len(t.members) {
		return fmt.Errorf("%d nodes reachable, %d members", reachable, len(t.members))
	}
	return nil
}

// String renders the tree one node per line, children indented by depth
func (t *Tree) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("none")
	t.walk(rootIndex, 0, func(depth int, e Entry) {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", depth))
		sb.WriteString(describe(e))
	})
	return sb.String()
}

func describe(e Entry) string {
	if e.Object == nil {
		return "none"
	}
	return fmt.Sprintf("%v [%s/%s]", e.Object, colorName(e.Background), colorName(e.Foreground))
}

func colorName(c *protocol.Color) string {
	if c == nil {
		return "null"
	}
	return c.String()
}
