package treeview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// ErrNothingSelected is returned by commands that need a selection.
var ErrNothingSelected = errors.New("nothing selected")

// CanDelete reports whether Delete would succeed on the current selection.
func (v *View) CanDelete() bool {
	top := v.TopLevelSelection()
	return len(top) > 0 && !slices.ContainsFunc(top, func(n *tree.Node) bool { return !n.CanDelete() })
}

// Delete deletes every top level selected node. Selection repair is
// suspended while deleting; afterwards the row before the first deleted
// node is focused. The first failing node stops the loop and nodes deleted
// before it stay deleted.
func (v *View) Delete() error {
	top := v.TopLevelSelection()
	if len(top) == 0 {
		return ErrNothingSelected
	}
	unlock := v.LockUpdates()
	selectedIndex := -1
	defer func() {
		unlock()
		v.updateFocusedNode(nil, max(0, selectedIndex-1))
	}()

	for _, n := range top {
		if selectedIndex == -1 {
			selectedIndex = v.IndexOf(n)
		}
		if err := n.Delete(); err != nil {
			return fmt.Errorf("delete %q: %w", n.Text(), err)
		}
		debug.Log("treeview: deleted %q", n.Text())
	}
	return nil
}

// CanCopy reports whether Copy would succeed on the current selection.
func (v *View) CanCopy() bool {
	top := v.TopLevelSelection()
	return len(top) > 0 && !slices.ContainsFunc(top, func(n *tree.Node) bool { return !n.CanCopy() })
}

// Copy serializes the top level selection with the primary node's kind.
func (v *View) Copy() (tree.Payload, error) {
	top := v.TopLevelSelection()
	if len(top) == 0 {
		return nil, ErrNothingSelected
	}
	return top[0].Copy(top)
}

// CanCut is always false: cut is not offered by the control.
func (v *View) CanCut() bool { return false }

// CanPaste is always false: paste goes through drop targets instead.
func (v *View) CanPaste() bool { return false }
