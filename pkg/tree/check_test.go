package tree_test

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/treelist/pkg/testutil"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// box is a checkable kind.
type box string

func (b box) Text() string              { return string(b) }
func (box) IsCheckable(*tree.Node) bool { return true }

func boxed(text string, children ...*tree.Node) *tree.Node {
	n := tree.New(box(text))
	for _, c := range children {
		if err := n.AddChild(c); err != nil {
			panic(err)
		}
	}
	return n
}

func TestCheckAggregatesUpward(t *testing.T) {
	x, y := boxed("X"), boxed("Y")
	p := boxed("P", x, y)

	if err := x.SetChecked(tree.Checked); err != nil {
		t.Fatal(err)
	}
	if p.CheckState() != tree.Mixed {
		t.Fatalf("P = %v, want mixed", p.CheckState())
	}
	if err := y.SetChecked(tree.Checked); err != nil {
		t.Fatal(err)
	}
	if p.CheckState() != tree.Checked {
		t.Fatalf("P = %v, want checked", p.CheckState())
	}
	_ = x.SetChecked(tree.Unchecked)
	_ = y.SetChecked(tree.Unchecked)
	if p.CheckState() != tree.Unchecked {
		t.Fatalf("P = %v, want unchecked", p.CheckState())
	}
	testutil.AssertCheckConsistent(t, p)
}

func TestCheckPropagatesDownward(t *testing.T) {
	p := boxed("P", boxed("X", boxed("X1")), testutil.N("label", boxed("Y")))
	if err := p.SetChecked(tree.Checked); err != nil {
		t.Fatal(err)
	}
	for _, n := range p.DescendantsAndSelf() {
		if n.IsCheckable() && n.CheckState() != tree.Checked {
			t.Errorf("%s = %v, want checked", n.Text(), n.CheckState())
		}
	}
	if got := testutil.Find(p, "label").CheckState(); got != tree.Unchecked {
		t.Errorf("non-checkable node changed to %v", got)
	}
}

func TestCheckLooksThroughPlainNodes(t *testing.T) {
	x, y := boxed("X"), boxed("Y")
	p := boxed("P", testutil.N("group", x, y))
	root := boxed("R", p, boxed("Z"))

	_ = x.SetChecked(tree.Checked)
	if p.CheckState() != tree.Mixed || root.CheckState() != tree.Mixed {
		t.Fatalf("P = %v, R = %v, want mixed", p.CheckState(), root.CheckState())
	}
	_ = y.SetChecked(tree.Checked)
	if p.CheckState() != tree.Checked {
		t.Errorf("P = %v, want checked", p.CheckState())
	}
	if root.CheckState() != tree.Mixed {
		t.Errorf("R = %v, want mixed while Z is unchecked", root.CheckState())
	}
	testutil.AssertCheckConsistent(t, root)
}

func TestCheckWithoutCheckableChildren(t *testing.T) {
	leaf := boxed("leaf")
	p := boxed("P", testutil.N("plain"))
	_ = p.AddChild(leaf)
	_ = leaf.Detach()

	if err := p.SetChecked(tree.Checked); err != nil {
		t.Fatal(err)
	}
	if p.CheckState() != tree.Checked {
		t.Errorf("P = %v", p.CheckState())
	}
}

func TestMixedCannotBeSet(t *testing.T) {
	n := boxed("n")
	if err := n.SetChecked(tree.Mixed); !errors.Is(err, tree.ErrInvalidCheckState) {
		t.Fatalf("SetChecked(mixed) error = %v", err)
	}
	if n.CheckState() != tree.Unchecked {
		t.Error("state changed after rejected set")
	}
}

func TestCheckEventsOnlyOnChange(t *testing.T) {
	x, y := boxed("X"), boxed("Y")
	p := boxed("P", x, y)
	var events int
	p.Subscribe(func(_ *tree.Node, prop tree.Property) {
		if prop == tree.PropChecked {
			events++
		}
	})
	_ = x.SetChecked(tree.Checked) // P -> mixed
	_ = x.SetChecked(tree.Checked) // no-op
	_ = y.SetChecked(tree.Unchecked)
	if events != 1 {
		t.Errorf("PropChecked raised %d times, want 1", events)
	}
}

func TestCheckStateString(t *testing.T) {
	for s, want := range map[tree.CheckState]string{
		tree.Unchecked: "unchecked", tree.Checked: "checked", tree.Mixed: "mixed", tree.CheckState(7): "invalid",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
