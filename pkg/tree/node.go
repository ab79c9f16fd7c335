// Package tree is the view-model layer behind a tree-style list control.
//
// A Node owns an ordered Collection of children. Hidden and expanded flags
// decide which nodes are visible, and a Flattener presents the visible nodes
// in pre-order as one indexable sequence. Every mutation is reported to the
// Flattener's consumers as ordered insert and remove batches so that a list
// widget never has to re-read the whole tree.
//
// The package is single threaded: all mutations, notifications and queries
// are expected to run on one goroutine (the UI loop). Mutating a collection
// or the tree from inside one of its own notifications fails with
// ErrReentrancy.
package tree

import (
	"fmt"

	"github.com/vanderheijden86/treelist/pkg/metrics"
)

// countInvalid marks a cached subtree count that must be recomputed.
const countInvalid = -1

// Node is one vertex of the tree.
type Node struct {
	kind     Kind
	parent   *Node // non-owning back reference
	children *Collection

	hidden               bool
	expanded             bool
	visible              bool
	lazyLoading          bool
	canExpandRecursively bool
	checked              CheckState
	selected             bool
	editing              bool
	committing           bool

	// subtreeCount is the number of visible nodes in this subtree including
	// the node itself, or countInvalid.
	subtreeCount int

	// flattener is set on the node a Flattener projects from.
	flattener *Flattener

	subs      []propertySub
	nextSubID int
}

// New returns a detached, visible, collapsed node of the given kind.
func New(kind Kind) *Node {
	return &Node{
		kind:                 kind,
		visible:              true,
		canExpandRecursively: true,
		subtreeCount:         countInvalid,
	}
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.kind }

// Text returns the display text supplied by the kind.
func (n *Node) Text() string {
	if n.kind == nil {
		return ""
	}
	return n.kind.Text()
}

func (n *Node) String() string { return n.Text() }

// Parent returns the owning node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's child collection, creating it on first use.
func (n *Node) Children() *Collection {
	if n.children == nil {
		n.children = newCollection(n)
	}
	return n.children
}

func (n *Node) childList() []*Node {
	if n.children == nil {
		return nil
	}
	return n.children.list
}

// HasChildren reports whether the node has at least one child without
// allocating a collection.
func (n *Node) HasChildren() bool {
	return n.children != nil && len(n.children.list) > 0
}

// Level is the depth of the node; roots are at level 0.
func (n *Node) Level() int {
	level := 0
	for p := n.parent; p != nil; p = p.parent {
		level++
	}
	return level
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLast reports whether the node is a root or the last child of its parent.
func (n *Node) IsLast() bool {
	if n.parent == nil {
		return true
	}
	list := n.parent.children.list
	return list[len(list)-1] == n
}

// IsVisible reports whether the node is not hidden and every ancestor is
// visible and expanded.
func (n *Node) IsVisible() bool { return n.visible }

// IsHidden reports the node's own hidden flag.
func (n *Node) IsHidden() bool { return n.hidden }

// IsExpanded reports whether the node shows its children.
func (n *Node) IsExpanded() bool { return n.expanded }

// IsLazyLoading reports whether the children have yet to be loaded.
func (n *Node) IsLazyLoading() bool { return n.lazyLoading }

// CanExpandRecursively reports whether "expand all" may descend into n.
func (n *Node) CanExpandRecursively() bool { return n.canExpandRecursively }

// IsSelected reports the node level selection flag.
func (n *Node) IsSelected() bool { return n.selected }

// IsEditing reports whether an in-place edit is open on the node.
func (n *Node) IsEditing() bool { return n.editing }

// ShowExpander reports whether an expander should be drawn for the node.
func (n *Node) ShowExpander() bool {
	if n.lazyLoading {
		return true
	}
	if n.children == nil {
		return false
	}
	for _, c := range n.children.list {
		if !c.hidden {
			return true
		}
	}
	return false
}

// busy reports whether the flattener projecting n is dispatching a batch.
func (n *Node) busy() bool {
	f := n.listFlattener()
	return f != nil && f.dispatching
}

func (n *Node) checkBusy(op string) error {
	if n.busy() {
		return fmt.Errorf("%s on %q: %w", op, n.Text(), ErrReentrancy)
	}
	return nil
}

// SetHidden hides or shows the node. Hiding a visible node removes it and its
// visible descendants from the flattened sequence as one batch.
func (n *Node) SetHidden(hidden bool) error {
	if n.hidden == hidden {
		return nil
	}
	if err := n.checkBusy("set hidden"); err != nil {
		return err
	}
	n.hidden = hidden
	n.refreshVisibility()
	n.RaisePropertyChanged(PropHidden)
	if n.parent != nil {
		n.parent.RaisePropertyChanged(PropShowExpander)
	}
	return nil
}

// SetExpanded expands or collapses the node. Expanding a lazy node loads its
// children first. Collapsing keeps the children; only their visibility
// changes.
func (n *Node) SetExpanded(expanded bool) error {
	if n.expanded == expanded {
		return nil
	}
	if err := n.checkBusy("set expanded"); err != nil {
		return err
	}
	hooks, _ := n.kind.(ExpandHooks)
	if expanded {
		if err := n.EnsureLazyChildren(); err != nil {
			return err
		}
		if hooks != nil {
			hooks.OnExpanding(n)
		}
	} else if hooks != nil {
		hooks.OnCollapsing(n)
	}
	n.applyExpanded(expanded)
	n.RaisePropertyChanged(PropExpanded)
	return nil
}

// SetLazyLoading marks the node as having children that are loaded on first
// expansion. Turning it on collapses the node and disables recursive
// expansion.
func (n *Node) SetLazyLoading(lazy bool) error {
	if lazy {
		if err := n.SetExpanded(false); err != nil {
			return err
		}
	}
	n.lazyLoading = lazy
	if lazy && n.canExpandRecursively {
		n.canExpandRecursively = false
		n.RaisePropertyChanged(PropCanExpandRecursively)
	}
	n.RaisePropertyChanged(PropLazyLoading)
	n.RaisePropertyChanged(PropShowExpander)
	return nil
}

// SetCanExpandRecursively overrides whether "expand all" descends into n.
func (n *Node) SetCanExpandRecursively(v bool) {
	if n.canExpandRecursively != v {
		n.canExpandRecursively = v
		n.RaisePropertyChanged(PropCanExpandRecursively)
	}
}

// EnsureLazyChildren loads the children of a lazy node exactly once.
func (n *Node) EnsureLazyChildren() error {
	if !n.lazyLoading {
		return nil
	}
	loader, ok := n.kind.(Loader)
	if !ok {
		return unsupported(n, "lazy loading")
	}
	n.lazyLoading = false
	n.RaisePropertyChanged(PropLazyLoading)
	n.RaisePropertyChanged(PropShowExpander)
	defer metrics.Timer(metrics.LazyLoad)()
	if err := loader.LoadChildren(n); err != nil {
		return fmt.Errorf("load children of %q: %w", n.Text(), err)
	}
	return nil
}

// SetSelected sets the node level selection flag.
func (n *Node) SetSelected(selected bool) {
	if n.selected != selected {
		n.selected = selected
		n.RaisePropertyChanged(PropSelected)
	}
}

// SetEditing opens or closes the in-place edit state.
func (n *Node) SetEditing(editing bool) {
	if n.editing != editing {
		n.editing = editing
		n.RaisePropertyChanged(PropEditing)
	}
}

// AddChild appends child to n's children.
func (n *Node) AddChild(child *Node) error {
	return n.Children().Add(child)
}

// InsertChild attaches child at index.
func (n *Node) InsertChild(index int, child *Node) error {
	return n.Children().Insert(index, child)
}

// Detach removes the node from its parent. It is a no-op for roots.
func (n *Node) Detach() error {
	if n.parent == nil {
		return nil
	}
	_, err := n.parent.Children().Remove(n)
	return err
}
