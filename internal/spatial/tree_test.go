package spatial

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/muurk/stouch/internal/protocol"
)

type label string

type marker struct{ id int }

func depths(t *Tree) map[any]int {
	out := make(map[any]int)
	t.Walk(func(depth int, e Entry) {
		out[e.Object] = depth
	})
	return out
}

func TestInsertIdempotent(t *testing.T) {
	tree := New()
	e := Entry{Object: label("a"), Box: Box{0, 0, 10, 10}}

	if !tree.Insert(e) {
		t.Fatal("first Insert() = false")
	}
	if !tree.Insert(e) {
		t.Fatal("second Insert() = false, want true for duplicate")
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
	if tree.RootChildren() != 1 {
		t.Errorf("RootChildren() = %d, want 1", tree.RootChildren())
	}

	// same object, different box is a different entry
	tree.Insert(Entry{Object: label("a"), Box: Box{0, 0, 5, 5}})
	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tree.Len())
	}

	// colors do not take part in identity
	fg := protocol.Green
	tree.Insert(Entry{Object: label("a"), Box: Box{0, 0, 10, 10}, Foreground: &fg})
	if tree.Len() != 2 {
		t.Errorf("Len() after recolored duplicate = %d, want 2", tree.Len())
	}
}

func TestInsertNesting(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("outer"), Box: Box{0, 0, 100, 100}})
	tree.Insert(Entry{Object: label("left"), Box: Box{0, 0, 50, 100}})
	tree.Insert(Entry{Object: label("also fits outer"), Box: Box{10, 10, 20, 20}})
	tree.Insert(Entry{Object: label("outside"), Box: Box{200, 200, 210, 210}})

	got := depths(tree)
	want := map[any]int{
		label("outer"):           1,
		label("left"):            2,
		label("also fits outer"): 3, // first containing child is "left"
		label("outside"):         1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("depth(%v) = %d, want %d", k, got[k], v)
		}
	}
	if err := tree.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestInsertFirstContainingChildWins(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("a"), Box: Box{0, 0, 100, 100}})
	tree.Insert(Entry{Object: label("b"), Box: Box{0, 0, 100, 100}.grow()})
	tree.Insert(Entry{Object: label("p"), Box: PointBox(50, 50)})

	var parentOfP string
	tree.Walk(func(depth int, e Entry) {
		if depth == 2 && e.Object == label("p") {
			parentOfP = "found at depth 2"
		}
	})
	if parentOfP == "" {
		t.Fatal("point not nested under a containing node")
	}
}

func (b Box) grow() Box {
	return Box{b.MinX - 1, b.MinY - 1, b.MaxX + 1, b.MaxY + 1}
}

func TestRemoveReinsertsChildren(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("R"), Box: Box{0, 0, 100, 100}})
	tree.Insert(Entry{Object: label("S"), Box: Box{10, 10, 20, 20}})
	tree.Insert(Entry{Object: label("T"), Box: Box{12, 12, 14, 14}})
	// R2 contains R but arrives later, so it becomes R's sibling
	tree.Insert(Entry{Object: label("R2"), Box: Box{0, 0, 200, 200}})

	if d := depths(tree)[label("S")]; d != 2 {
		t.Fatalf("depth(S) before remove = %d, want 2", d)
	}

	if !tree.Remove(label("R"), Box{0, 0, 100, 100}) {
		t.Fatal("Remove(R) = false")
	}

	got := depths(tree)
	if got[label("S")] != 2 {
		t.Errorf("depth(S) after remove = %d, want 2 (under R2)", got[label("S")])
	}
	if got[label("T")] != 3 {
		t.Errorf("depth(T) after remove = %d, want 3 (still under S)", got[label("T")])
	}
	if tree.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tree.Len())
	}
	if err := tree.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestRemoveMissing(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("a"), Box: Box{0, 0, 1, 1}})
	if tree.Remove(label("a"), Box{0, 0, 2, 2}) {
		t.Error("Remove() with other box = true, want false")
	}
	if tree.Remove(label("b"), Box{0, 0, 1, 1}) {
		t.Error("Remove() with other object = true, want false")
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
}

func TestFindNodeAtPos(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("rect"), Box: Box{40, 40, 100, 100}})
	tree.Insert(Entry{Object: label("text"), Box: PointBox(50, 50)})

	e, ok := tree.FindNodeAtPos(50, 50)
	if !ok || e.Object != label("text") {
		t.Errorf("FindNodeAtPos(50, 50) = %v, %v, want text", e.Object, ok)
	}

	e, ok = tree.FindNodeAtPos(40, 40)
	if !ok || e.Object != label("rect") {
		t.Errorf("FindNodeAtPos(40, 40) = %v, %v, want rect", e.Object, ok)
	}

	// inside rect but not on any corner
	if _, ok := tree.FindNodeAtPos(60, 60); ok {
		t.Error("FindNodeAtPos(60, 60) found a node, want none")
	}
}

// Only the first child containing the point is followed. A sibling whose
// corner matches exactly is missed when an earlier sibling also covers it.
func TestFindNodeAtPosNoBacktracking(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("A"), Box: Box{0, 0, 60, 60}})
	tree.Insert(Entry{Object: label("B"), Box: Box{50, 50, 100, 100}})

	if _, ok := tree.FindNodeAtPos(50, 50); ok {
		t.Error("FindNodeAtPos(50, 50) found B through A, want miss")
	}

	tree2 := New()
	tree2.Insert(Entry{Object: label("B"), Box: Box{50, 50, 100, 100}})
	tree2.Insert(Entry{Object: label("A"), Box: Box{0, 0, 60, 60}})
	if e, ok := tree2.FindNodeAtPos(50, 50); !ok || e.Object != label("B") {
		t.Errorf("FindNodeAtPos(50, 50) = %v, %v, want B", e.Object, ok)
	}
}

func TestFindContaining(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("frame"), Box: Box{0, 0, 320, 240}})
	tree.Insert(Entry{Object: marker{1}, Box: Box{10, 10, 100, 100}})
	tree.Insert(Entry{Object: marker{2}, Box: Box{20, 20, 30, 30}})
	tree.Insert(Entry{Object: label("caption"), Box: PointBox(25, 25)})

	tests := []struct {
		name   string
		x, y   int
		want   marker
		wantOK bool
	}{
		{"outermost match wins", 25, 25, marker{1}, true},
		{"only outer", 50, 50, marker{1}, true},
		{"border inclusive", 100, 100, marker{1}, true},
		{"outside markers", 200, 200, marker{}, false},
		{"off screen", -5, -5, marker{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindContainingOf[marker](tree, tt.x, tt.y)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FindContainingOf(%d, %d) = %v, %v, want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	e, ok := tree.FindContaining(25, 25, func(o any) bool { return o == label("caption") })
	if !ok || e.Box != PointBox(25, 25) {
		t.Errorf("FindContaining(caption) = %v, %v", e, ok)
	}
}

func TestDegenerateBoxes(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("inverted"), Box: Box{10, 10, 5, 5}})
	tree.Insert(Entry{Object: label("normal"), Box: Box{6, 6, 7, 7}})
	tree.Insert(Entry{Object: label("point"), Box: PointBox(6, 6)})
	tree.Insert(Entry{Object: label("negative"), Box: Box{-100, -100, -50, -50}})

	if err := tree.Check(); err != nil {
		t.Fatalf("Check() = %v", err)
	}
	if _, ok := FindContainingOf[label](tree, 7, 7); !ok {
		t.Error("FindContainingOf(7, 7) found nothing")
	}
	tree.Remove(label("inverted"), Box{10, 10, 5, 5})
	if tree.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tree.Len())
	}
}

func TestContainmentInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := New()
	var live []Entry

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			j := rng.Intn(len(live))
			e := live[j]
			if !tree.Remove(e.Object, e.Box) {
				t.Fatalf("step %d: Remove(%v) = false", i, e.Box)
			}
			live = append(live[:j], live[j+1:]...)
		} else {
			x, y := rng.Intn(320), rng.Intn(240)
			e := Entry{
				Object: marker{i},
				Box:    Box{x, y, x + rng.Intn(320-x), y + rng.Intn(240-y)},
			}
			tree.Insert(e)
			live = append(live, e)
		}

		if err := tree.Check(); err != nil {
			t.Fatalf("step %d: Check() = %v", i, err)
		}
		if tree.Len() != len(live) {
			t.Fatalf("step %d: Len() = %d, want %d", i, tree.Len(), len(live))
		}
	}
}

func TestClear(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("a"), Box: Box{0, 0, 10, 10}})
	tree.Insert(Entry{Object: label("b"), Box: Box{1, 1, 2, 2}})
	tree.Clear()
	if tree.Len() != 0 || tree.RootChildren() != 0 {
		t.Errorf("after Clear() Len() = %d, RootChildren() = %d, want 0, 0", tree.Len(), tree.RootChildren())
	}
	if tree.String() != "none" {
		t.Errorf("String() = %q, want %q", tree.String(), "none")
	}
}

func TestEntriesInsertionOrder(t *testing.T) {
	tree := New()
	tree.Insert(Entry{Object: label("first"), Box: Box{0, 0, 100, 100}})
	tree.Insert(Entry{Object: label("second"), Box: Box{200, 0, 210, 10}})
	tree.Insert(Entry{Object: label("third"), Box: Box{1, 1, 2, 2}})
	tree.Remove(label("second"), Box{200, 0, 210, 10})
	tree.Insert(Entry{Object: label("fourth"), Box: Box{3, 3, 4, 4}})

	var got []string
	for _, e := range tree.Entries() {
		got = append(got, string(e.Object.(label)))
	}
	want := "first third fourth"
	if strings.Join(got, " ") != want {
		t.Errorf("Entries() = %v, want %s", got, want)
	}
}

func TestString(t *testing.T) {
	tree := New()
	fg, bg := protocol.Black, protocol.White
	tree.Insert(Entry{Object: label("outer"), Box: Box{0, 0, 100, 100}, Foreground: &fg, Background: &bg})
	tree.Insert(Entry{Object: label("inner"), Box: Box{1, 1, 2, 2}})

	want := "none\n outer [rgb(255,255,255)/rgb(0,0,0)]\n  inner [null/null]"
	if got := tree.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}
