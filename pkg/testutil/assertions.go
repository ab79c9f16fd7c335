package testutil

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/vanderheijden86/treelist/pkg/tree"
)

// Mirror is a flattener consumer that applies every batch to its own slice,
// the way a virtualizing list would. Batches with indices that do not fit the
// mirror are recorded in Errs.
type Mirror struct {
	Items   []*tree.Node
	Batches []Batch
	Errs    []error
}

// Batch is one recorded notification.
type Batch struct {
	Inserted bool
	Index    int
	Texts    []string
}

func (b Batch) String() string {
	verb := "remove"
	if b.Inserted {
		verb = "insert"
	}
	return fmt.Sprintf("%s %v at %d", verb, b.Texts, b.Index)
}

// NewMirror seeds a mirror with the current sequence of f and subscribes it.
func NewMirror(f *tree.Flattener) *Mirror {
	m := &Mirror{Items: f.Nodes()}
	f.Subscribe(m)
	return m
}

// OnInserted implements tree.Consumer.
func (m *Mirror) OnInserted(index int, nodes []*tree.Node) {
	m.Batches = append(m.Batches, Batch{Inserted: true, Index: index, Texts: Texts(nodes)})
	if index < 0 || index > len(m.Items) {
		m.Errs = append(m.Errs, fmt.Errorf("insert at %d into %d items", index, len(m.Items)))
		return
	}
	m.Items = slices.Insert(m.Items, index, nodes...)
}

// OnRemoved implements tree.Consumer.
func (m *Mirror) OnRemoved(index int, nodes []*tree.Node) {
	m.Batches = append(m.Batches, Batch{Index: index, Texts: Texts(nodes)})
	if index < 0 || index+len(nodes) > len(m.Items) {
		m.Errs = append(m.Errs, fmt.Errorf("remove %d at %d from %d items", len(nodes), index, len(m.Items)))
		return
	}
	for i, n := range nodes {
		if m.Items[index+i] != n {
			m.Errs = append(m.Errs, fmt.Errorf("remove at %d: mirror has %q, batch has %q",
				index+i, m.Items[index+i].Text(), n.Text()))
			return
		}
	}
	m.Items = slices.Delete(m.Items, index, index+len(nodes))
}

// Reset forgets recorded batches.
func (m *Mirror) Reset() {
	m.Batches = nil
}

// AssertMirrorMatches verifies that applying the batches reproduced the
// flattener's current sequence.
func AssertMirrorMatches(t testing.TB, m *Mirror, f *tree.Flattener) {
	t.Helper()
	if err := CheckMirror(m, f); err != nil {
		t.Fatal(err)
	}
}

// CheckMirror is the error returning form of AssertMirrorMatches.
func CheckMirror(m *Mirror, f *tree.Flattener) error {
	if err := errors.Join(m.Errs...); err != nil {
		return fmt.Errorf("invalid batches: %w", err)
	}
	if want := f.Nodes(); !slices.Equal(m.Items, want) {
		return fmt.Errorf("mirror = %v, want %v", Texts(m.Items), Texts(want))
	}
	return nil
}

// AssertSequence verifies the texts of the flattened sequence.
func AssertSequence(t testing.TB, f *tree.Flattener, want ...string) {
	t.Helper()
	got := Texts(f.Nodes())
	if !slices.Equal(got, want) {
		t.Errorf("sequence = %v, want %v", got, want)
	}
	if f.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", f.Len(), len(want))
	}
}

// AssertVisibility verifies that every node below root is visible exactly
// when it is not hidden and every ancestor is visible and expanded.
func AssertVisibility(t testing.TB, root *tree.Node) {
	t.Helper()
	if err := CheckVisibility(root); err != nil {
		t.Fatal(err)
	}
}

// CheckVisibility is the error returning form of AssertVisibility.
func CheckVisibility(root *tree.Node) error {
	var err error
	var visit func(n *tree.Node, inherited bool)
	visit = func(n *tree.Node, inherited bool) {
		want := inherited && !n.IsHidden()
		if n.IsVisible() != want && err == nil {
			err = fmt.Errorf("node %q visible = %v, want %v", n.Text(), n.IsVisible(), want)
		}
		for _, c := range n.Children().All() {
			visit(c, want && n.IsExpanded())
		}
	}
	inherited := true
	if p := root.Parent(); p != nil {
		inherited = p.IsVisible() && p.IsExpanded()
	}
	visit(root, inherited)
	return err
}

// AssertRoundTrip verifies NodeAt(IndexOf(n)) == n for every visible node.
func AssertRoundTrip(t testing.TB, f *tree.Flattener) {
	t.Helper()
	if err := CheckRoundTrip(f); err != nil {
		t.Fatal(err)
	}
}

// CheckRoundTrip is the error returning form of AssertRoundTrip. It also
// checks that Len agrees with the materialized sequence.
func CheckRoundTrip(f *tree.Flattener) error {
	nodes := f.Nodes()
	if f.Len() != len(nodes) {
		return fmt.Errorf("Len() = %d, sequence has %d nodes", f.Len(), len(nodes))
	}
	for i, n := range nodes {
		if got := f.IndexOf(n); got != i {
			return fmt.Errorf("IndexOf(%q) = %d, want %d", n.Text(), got, i)
		}
		at, err := f.NodeAt(i)
		if err != nil {
			return fmt.Errorf("NodeAt(%d): %w", i, err)
		}
		if at != n {
			return fmt.Errorf("NodeAt(%d) = %q, want %q", i, at.Text(), n.Text())
		}
	}
	return nil
}

// AssertCheckConsistent verifies that every checkable node with checkable
// nodes below it agrees with the aggregate of the nearest ones.
func AssertCheckConsistent(t testing.TB, root *tree.Node) {
	t.Helper()
	root.Walk(func(n *tree.Node) bool {
		if !n.IsCheckable() {
			return true
		}
		var states []tree.CheckState
		var collect func(*tree.Node)
		collect = func(p *tree.Node) {
			for _, c := range p.Children().All() {
				if c.IsCheckable() {
					states = append(states, c.CheckState())
				} else {
					collect(c)
				}
			}
		}
		collect(n)
		if len(states) == 0 {
			return true
		}
		want := tree.Mixed
		switch {
		case !slices.ContainsFunc(states, func(s tree.CheckState) bool { return s != tree.Checked }):
			want = tree.Checked
		case !slices.ContainsFunc(states, func(s tree.CheckState) bool { return s != tree.Unchecked }):
			want = tree.Unchecked
		}
		if n.CheckState() != want {
			t.Errorf("node %q is %v, children aggregate to %v", n.Text(), n.CheckState(), want)
		}
		return true
	})
}
