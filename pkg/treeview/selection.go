package treeview

import (
	"slices"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// SelectedItems returns the selected nodes. The first one is the primary
// selection.
func (v *View) SelectedItems() []*tree.Node {
	return slices.Clone(v.selection)
}

// SelectedItem returns the primary selection or nil.
func (v *View) SelectedItem() *tree.Node {
	if len(v.selection) == 0 {
		return nil
	}
	return v.selection[0]
}

// SelectedIndex returns the row of the primary selection or -1.
func (v *View) SelectedIndex() int {
	if n := v.SelectedItem(); n != nil {
		return v.IndexOf(n)
	}
	return -1
}

// SetSelectedIndex selects only the node in row i. An index outside the
// rows clears the selection.
func (v *View) SetSelectedIndex(i int) {
	n, err := v.At(i)
	if err != nil {
		v.setSelection(nil)
		return
	}
	v.setSelection([]*tree.Node{n})
}

// SetSelectedNodes replaces the selection.
func (v *View) SetSelectedNodes(nodes []*tree.Node) {
	v.setSelection(nodes)
}

// Select makes n the only selected node.
func (v *View) Select(n *tree.Node) {
	v.setSelection([]*tree.Node{n})
}

// ToggleSelect adds n to or removes it from the selection.
func (v *View) ToggleSelect(n *tree.Node) {
	if i := slices.Index(v.selection, n); i >= 0 {
		v.setSelection(slices.Delete(slices.Clone(v.selection), i, i+1))
		return
	}
	v.setSelection(append(slices.Clone(v.selection), n))
}

// setSelection stores nodes as the selection and mirrors the change into
// the nodes' selected flags. Duplicates and nil entries are dropped.
func (v *View) setSelection(nodes []*tree.Node) {
	var next []*tree.Node
	for _, n := range nodes {
		if n != nil && !slices.Contains(next, n) {
			next = append(next, n)
		}
	}
	for _, n := range v.selection {
		if !slices.Contains(next, n) {
			n.SetSelected(false)
		}
	}
	for _, n := range next {
		n.SetSelected(true)
	}
	v.selection = next
}

// TopLevelSelection returns the selected nodes that have no selected
// ancestor, in selection order.
func (v *View) TopLevelSelection() []*tree.Node {
	var out []*tree.Node
	for _, n := range v.selection {
		if !slices.ContainsFunc(n.Ancestors(), func(a *tree.Node) bool { return slices.Contains(v.selection, a) }) {
			out = append(out, n)
		}
	}
	return out
}

// updateFocusedNode applies a repaired selection. If nothing remains
// selected, the node in row top is selected and focused.
func (v *View) updateFocusedNode(selection []*tree.Node, top int) {
	if v.updatesLocked {
		return
	}
	v.setSelection(selection)
	if v.SelectedItem() == nil {
		v.SetSelectedIndex(top)
		if n := v.SelectedItem(); n != nil {
			if err := v.FocusNode(n); err != nil {
				debug.Log("treeview: focus %q: %v", n.Text(), err)
			}
		}
	}
}
