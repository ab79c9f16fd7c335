package treeview

import (
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// FocusNode brings n into view and makes it the only selection.
func (v *View) FocusNode(n *tree.Node) error {
	if err := v.ScrollIntoView(n); err != nil {
		return err
	}
	if v.IndexOf(n) >= 0 {
		v.Select(n)
	}
	return nil
}

// ScrollIntoView expands every ancestor of n and requests a scroll to it.
// The expansions do not trigger the expand-scroll behaviour.
func (v *View) ScrollIntoView(n *tree.Node) error {
	v.doNotScrollOnExpanding = true
	defer func() { v.doNotScrollOnExpanding = false }()
	for _, a := range n.Ancestors() {
		if err := a.SetExpanded(true); err != nil {
			return err
		}
	}
	v.scrollTo(n)
	return nil
}

func (v *View) scrollTo(n *tree.Node) {
	if v.IndexOf(n) >= 0 {
		v.scrollTarget = n
	}
}

// TakeScrollTarget returns and clears the row the renderer should bring
// into view, or -1 when there is none.
func (v *View) TakeScrollTarget() int {
	n := v.scrollTarget
	v.scrollTarget = nil
	if n == nil {
		return -1
	}
	return v.IndexOf(n)
}

// HandleExpanding scrolls so that the newly shown descendants of n are on
// screen, then queues a second scroll back to n itself so that n stays
// visible when the subtree is taller than the viewport.
func (v *View) HandleExpanding(n *tree.Node) {
	if v.doNotScrollOnExpanding {
		return
	}
	last := n
	for {
		var next *tree.Node
		for _, c := range last.Children().All() {
			if c.IsVisible() {
				next = c
			}
		}
		if next == nil {
			break
		}
		last = next
	}
	if last != n {
		v.scrollTo(last)
		v.deferred = append(v.deferred, func() { v.scrollTo(n) })
	}
}

// RunDeferred runs work queued for after the next render, such as the
// second half of HandleExpanding. It reports whether anything ran.
func (v *View) RunDeferred() bool {
	if len(v.deferred) == 0 {
		return false
	}
	queue := v.deferred
	v.deferred = nil
	for _, fn := range queue {
		fn()
	}
	return true
}

// SetExpanded expands or collapses n the way a click on its expander does.
func (v *View) SetExpanded(n *tree.Node, expanded bool) error {
	if n.IsExpanded() == expanded {
		return nil
	}
	if err := n.SetExpanded(expanded); err != nil {
		return err
	}
	if expanded && n.IsVisible() {
		v.HandleExpanding(n)
	}
	return nil
}

// ToggleExpanded flips the expanded state of n.
func (v *View) ToggleExpanded(n *tree.Node) error {
	return v.SetExpanded(n, !n.IsExpanded())
}

// ExpandRecursively expands n and every descendant that allows it. Lazy
// nodes are expanded but not descended into.
func (v *View) ExpandRecursively(n *tree.Node) error {
	if err := v.SetExpanded(n, true); err != nil {
		return err
	}
	return v.expandRecursively(n)
}

func (v *View) expandRecursively(n *tree.Node) error {
	if !n.CanExpandRecursively() {
		return nil
	}
	if err := n.SetExpanded(true); err != nil {
		return err
	}
	for _, c := range n.Children().All() {
		if err := v.expandRecursively(c); err != nil {
			return err
		}
	}
	return nil
}

// MoveBy moves the selection delta rows, clamped to the list.
func (v *View) MoveBy(delta int) {
	if v.Len() == 0 {
		return
	}
	cur := v.SelectedIndex()
	if cur < 0 {
		v.MoveTo(0)
		return
	}
	v.MoveTo(cur + delta)
}

// MoveTo selects row i, clamped to the list, and scrolls to it.
func (v *View) MoveTo(i int) {
	if v.Len() == 0 {
		return
	}
	i = min(max(i, 0), v.Len()-1)
	v.SetSelectedIndex(i)
	if n := v.SelectedItem(); n != nil {
		v.scrollTo(n)
	}
}

// Left collapses the focused node, or moves to its parent when it is
// already collapsed.
func (v *View) Left() error {
	n := v.SelectedItem()
	if n == nil {
		return nil
	}
	if n.IsExpanded() && v.ShowExpander(n) {
		return v.SetExpanded(n, false)
	}
	if p := n.Parent(); p != nil && v.IndexOf(p) >= 0 {
		return v.FocusNode(p)
	}
	return nil
}

// Right expands the focused node, or moves to its first child when it is
// already expanded.
func (v *View) Right() error {
	n := v.SelectedItem()
	if n == nil {
		return nil
	}
	if !n.IsExpanded() && v.ShowExpander(n) {
		return v.SetExpanded(n, true)
	}
	if n.HasChildren() {
		if i := v.IndexOf(n) + 1; i < v.Len() {
			if next, err := v.At(i); err == nil && next.Parent() == n {
				return v.FocusNode(next)
			}
		}
	}
	return nil
}

// Expand expands the focused node.
func (v *View) Expand() error {
	if n := v.SelectedItem(); n != nil {
		return v.SetExpanded(n, true)
	}
	return nil
}

// Collapse collapses the focused node.
func (v *View) Collapse() error {
	if n := v.SelectedItem(); n != nil {
		return v.SetExpanded(n, false)
	}
	return nil
}

// ExpandAll expands the focused node and its subtree.
func (v *View) ExpandAll() error {
	if n := v.SelectedItem(); n != nil {
		return v.ExpandRecursively(n)
	}
	return nil
}

// Activate activates the focused node when it is the only selection.
func (v *View) Activate() {
	if len(v.selection) == 1 {
		v.selection[0].Activate()
	}
}
