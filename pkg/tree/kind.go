package tree

import "fmt"

// Kind supplies the behaviour of a node. Only Text is required; every other
// capability is an optional interface discovered with a type assertion, and a
// kind that does not implement one gets ErrUnsupportedOperation (or false from
// the matching Can* query).
type Kind interface {
	Text() string
}

// Label is the simplest Kind: a fixed display text and no capabilities.
type Label string

// Text returns the label itself.
func (l Label) Text() string { return string(l) }

// Loader populates the children of a lazy node. It must add the children
// synchronously before returning.
type Loader interface {
	LoadChildren(n *Node) error
}

// Editor supplies and stores the text of an in-place edit.
type Editor interface {
	LoadEditText(n *Node) string
	SaveEditText(n *Node, text string) bool
}

// Checkable reports whether the node shows a tri-state checkbox.
type Checkable interface {
	IsCheckable(n *Node) bool
}

// Deleter removes a node from its data source and from the tree.
type Deleter interface {
	CanDelete(n *Node) bool
	Delete(n *Node) error
}

// Payload is the opaque data produced by Copy and consumed by Drop.
type Payload any

// Copier serializes a set of nodes for clipboard or drag and drop.
type Copier interface {
	Copy(nodes []*Node) (Payload, error)
}

// Dragger reports whether a set of nodes may be dragged.
type Dragger interface {
	CanDrag(nodes []*Node) bool
}

// Dropper accepts payloads dropped into a node at a child index.
type Dropper interface {
	CanDrop(n *Node, index int, p Payload) bool
	Drop(n *Node, index int, p Payload) error
}

// ExpandHooks is notified before a node's children are shown or hidden.
type ExpandHooks interface {
	OnExpanding(n *Node)
	OnCollapsing(n *Node)
}

// Activator handles double click / enter on a node.
type Activator interface {
	Activate(n *Node)
}

func unsupported(n *Node, op string) error {
	return fmt.Errorf("%T does not support %s: %w", n.kind, op, ErrUnsupportedOperation)
}

// IsEditable reports whether the node's kind implements Editor.
func (n *Node) IsEditable() bool {
	_, ok := n.kind.(Editor)
	return ok
}

// IsCheckable reports whether the node shows a checkbox.
func (n *Node) IsCheckable() bool {
	c, ok := n.kind.(Checkable)
	return ok && c.IsCheckable(n)
}

// CanDelete mirrors the check performed by Delete.
func (n *Node) CanDelete() bool {
	d, ok := n.kind.(Deleter)
	return ok && d.CanDelete(n)
}

// Delete asks the kind to delete the node.
func (n *Node) Delete() error {
	d, ok := n.kind.(Deleter)
	if !ok || !d.CanDelete(n) {
		return unsupported(n, "deletion")
	}
	return d.Delete(n)
}

// CanCopy reports whether the node's kind can copy nodes.
func (n *Node) CanCopy() bool {
	_, ok := n.kind.(Copier)
	return ok
}

// Copy asks the node's kind to serialize nodes.
func (n *Node) Copy(nodes []*Node) (Payload, error) {
	c, ok := n.kind.(Copier)
	if !ok {
		return nil, unsupported(n, "copy/paste or drag and drop")
	}
	return c.Copy(nodes)
}

// CanDrag reports whether nodes may be dragged starting from n.
func (n *Node) CanDrag(nodes []*Node) bool {
	d, ok := n.kind.(Dragger)
	return ok && d.CanDrag(nodes)
}

func (n *Node) clampChildIndex(index int) int {
	if index < 0 {
		return 0
	}
	if l := n.Children().Len(); index > l {
		return l
	}
	return index
}

// CanDrop reports whether p may be dropped into n at index. The index is
// clamped into [0, child count].
func (n *Node) CanDrop(index int, p Payload) bool {
	d, ok := n.kind.(Dropper)
	return ok && d.CanDrop(n, n.clampChildIndex(index), p)
}

// Drop drops p into n at index. Lazy nodes are loaded first and the drop is
// redirected to the end of the loaded children.
func (n *Node) Drop(index int, p Payload) error {
	d, ok := n.kind.(Dropper)
	if !ok {
		return unsupported(n, "drop")
	}
	if n.lazyLoading {
		if err := n.EnsureLazyChildren(); err != nil {
			return err
		}
		index = n.Children().Len()
	}
	return d.Drop(n, n.clampChildIndex(index), p)
}

// Activate forwards an activation (enter, double click) to the kind.
func (n *Node) Activate() {
	if a, ok := n.kind.(Activator); ok {
		a.Activate(n)
	}
}

// BeginEdit switches n into editing mode and returns the text to edit.
func (n *Node) BeginEdit() (string, error) {
	e, ok := n.kind.(Editor)
	if !ok {
		return "", unsupported(n, "editing")
	}
	n.SetEditing(true)
	return e.LoadEditText(n), nil
}

// CommitEdit leaves editing mode and stores text. It reports whether the
// kind accepted the text. A commit started while another commit on the same
// node is still running is ignored.
func (n *Node) CommitEdit(text string) (bool, error) {
	e, ok := n.kind.(Editor)
	if !ok {
		return false, unsupported(n, "editing")
	}
	if n.committing || !n.editing {
		return false, nil
	}
	n.committing = true
	defer func() { n.committing = false }()

	n.SetEditing(false)
	saved := e.SaveEditText(n, text)
	n.RaisePropertyChanged(PropText)
	return saved, nil
}

// CancelEdit leaves editing mode without saving.
func (n *Node) CancelEdit() {
	n.SetEditing(false)
}
