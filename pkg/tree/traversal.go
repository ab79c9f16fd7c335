package tree

// Ancestors returns the parent chain of n, nearest first.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// AncestorsAndSelf returns n followed by its ancestors.
func (n *Node) AncestorsAndSelf() []*Node {
	return append([]*Node{n}, n.Ancestors()...)
}

// Descendants returns every descendant of n in pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.walk(func(d *Node) bool { out = append(out, d); return true }, false)
	return out
}

// DescendantsAndSelf returns n and every descendant in pre-order.
func (n *Node) DescendantsAndSelf() []*Node {
	out := []*Node{n}
	n.walk(func(d *Node) bool { out = append(out, d); return true }, false)
	return out
}

// VisibleDescendants returns the visible descendants of n in pre-order.
func (n *Node) VisibleDescendants() []*Node {
	var out []*Node
	n.walk(func(d *Node) bool { out = append(out, d); return true }, true)
	return out
}

// VisibleDescendantsAndSelf returns n and its visible descendants in
// pre-order; this is exactly the flat range n occupies when visible.
func (n *Node) VisibleDescendantsAndSelf() []*Node {
	out := []*Node{n}
	n.walk(func(d *Node) bool { out = append(out, d); return true }, true)
	return out
}

// walk visits the descendants of n in pre-order. With visibleOnly set,
// invisible children and everything below them are skipped. Returning false
// from fn prunes the subtree of the visited node.
func (n *Node) walk(fn func(*Node) bool, visibleOnly bool) {
	if n.children == nil {
		return
	}
	for _, c := range n.children.list {
		if visibleOnly && !c.visible {
			continue
		}
		if fn(c) {
			c.walk(fn, visibleOnly)
		}
	}
}

// Walk calls fn for n and its descendants in pre-order; returning false
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if fn(n) {
		n.walk(fn, false)
	}
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// IsAncestorOf reports whether n is a proper ancestor of d.
func (n *Node) IsAncestorOf(d *Node) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}
