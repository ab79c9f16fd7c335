package tree

// showsChildren reports whether the children of n are candidates for
// visibility.
func (n *Node) showsChildren() bool {
	return n.visible && n.expanded
}

// parentShowsChildren is the visibility n inherits from its parent.
func (n *Node) parentShowsChildren() bool {
	if n.parent == nil {
		return true
	}
	return n.parent.showsChildren()
}

// updateIsVisible recomputes the visible flag of n from the visibility it
// inherits and pushes the result down the subtree. It emits nothing; callers
// that must notify the flattener snapshot the affected range around it.
// Propagation stops at nodes whose flag does not change.
func (n *Node) updateIsVisible(parentVisible bool, changed *[]*Node) {
	newVisible := parentVisible && !n.hidden
	if n.visible == newVisible {
		return
	}
	n.visible = newVisible
	n.invalidate()
	if changed != nil {
		*changed = append(*changed, n)
	}
	n.updateChildIsVisible(changed)
}

func (n *Node) updateChildIsVisible(changed *[]*Node) {
	if n.children == nil {
		return
	}
	show := n.showsChildren()
	for _, c := range n.children.list {
		c.updateIsVisible(show, changed)
	}
}

// refreshVisibility re-evaluates n after its hidden flag changed and emits
// one batch for n and its visible descendants.
func (n *Node) refreshVisibility() {
	f := n.listFlattener()
	wasVisible := n.visible

	var removed []*Node
	removedAt := -1
	if f != nil && wasVisible && n.hidden {
		removedAt, removed = f.span(n, true)
	}

	var changed []*Node
	n.updateIsVisible(n.parentShowsChildren(), &changed)
	if len(changed) == 0 {
		return
	}

	if f != nil {
		if removed != nil {
			f.nodesRemoved(removedAt, removed)
		} else if n.visible {
			f.nodesInserted(f.span(n, true))
		}
	}
	raiseVisible(changed)
}

// applyExpanded flips the expanded flag and updates the children. The
// descendants that appear or disappear are contiguous right after n, so they
// are emitted as a single batch.
func (n *Node) applyExpanded(expanded bool) {
	f := n.listFlattener()

	var removed []*Node
	removedAt := -1
	if f != nil && n.visible && !expanded {
		removedAt, removed = f.span(n, false)
	}

	n.expanded = expanded
	n.invalidate()
	var changed []*Node
	n.updateChildIsVisible(&changed)

	if f != nil && n.visible {
		if !expanded {
			f.nodesRemoved(removedAt, removed)
		} else {
			f.nodesInserted(f.span(n, false))
		}
	}
	raiseVisible(changed)
}

func raiseVisible(nodes []*Node) {
	for _, c := range nodes {
		c.RaisePropertyChanged(PropVisible)
	}
}

// invalidate marks the cached count of n and its ancestors as stale. The
// walk stops at the first ancestor that is already invalid: a stale node
// always has stale ancestors.
func (n *Node) invalidate() {
	n.subtreeCount = countInvalid
	for p := n.parent; p != nil && p.subtreeCount != countInvalid; p = p.parent {
		p.subtreeCount = countInvalid
	}
}

// visibleCount returns the number of visible nodes in the subtree of n,
// recomputing stale counts on the way.
func (n *Node) visibleCount() int {
	if n.subtreeCount != countInvalid {
		return n.subtreeCount
	}
	count := 0
	if n.visible {
		count = 1
		if n.expanded && n.children != nil {
			for _, c := range n.children.list {
				count += c.visibleCount()
			}
		}
	}
	n.subtreeCount = count
	return count
}
