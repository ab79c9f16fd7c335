package tree

// pendingRemoval is the flat range a collection change is about to remove,
// captured while the old nodes are still attached.
type pendingRemoval struct {
	flattener *Flattener
	index     int
	nodes     []*Node
}

// childrenChanging runs before the collection list is mutated.
func (n *Node) childrenChanging(ch Change) pendingRemoval {
	var p pendingRemoval
	if len(ch.OldItems) == 0 {
		return p
	}
	f := n.listFlattener()
	if f == nil {
		return p
	}
	for _, old := range ch.OldItems {
		if !old.visible {
			continue
		}
		if p.nodes == nil {
			p.index = f.IndexOf(old)
			if p.index < 0 {
				// n itself is outside the projected range.
				return pendingRemoval{}
			}
		}
		p.nodes = append(p.nodes, old.VisibleDescendantsAndSelf()...)
	}
	p.flattener = f
	return p
}

// childrenChanged runs after the collection list was mutated. It fixes
// parent links and visibility of the affected nodes, emits at most one
// remove and one insert batch, and raises the derived properties.
func (n *Node) childrenChanged(ch Change, removal pendingRemoval) {
	for _, old := range ch.OldItems {
		old.parent = nil
		old.updateIsVisible(true, nil)
	}
	if len(ch.OldItems) > 0 {
		n.invalidate()
	}
	if removal.flattener != nil && len(removal.nodes) > 0 {
		removal.flattener.nodesRemoved(removal.index, removal.nodes)
	}

	if len(ch.NewItems) > 0 {
		show := n.showsChildren()
		for _, c := range ch.NewItems {
			c.parent = n
			c.updateIsVisible(show, nil)
			c.invalidate()
		}
		if f := n.listFlattener(); f != nil && show {
			var inserted []*Node
			at := -1
			for _, c := range ch.NewItems {
				if !c.visible {
					continue
				}
				if inserted == nil {
					at = f.IndexOf(c)
				}
				inserted = append(inserted, c.VisibleDescendantsAndSelf()...)
			}
			if at >= 0 && len(inserted) > 0 {
				f.nodesInserted(at, inserted)
			}
		}
	}

	n.RaisePropertyChanged(PropShowExpander)
	n.raiseIsLastChanged(ch)
}

// raiseIsLastChanged notifies the node that lost and the node that gained
// the "last child" position when the tail of the collection changed.
func (n *Node) raiseIsLastChanged(ch Change) {
	list := n.children.list
	count := len(list)
	switch ch.Action {
	case ActionAdd:
		if ch.NewIndex+len(ch.NewItems) == count {
			if ch.NewIndex > 0 {
				list[ch.NewIndex-1].RaisePropertyChanged(PropIsLast)
			}
			list[count-1].RaisePropertyChanged(PropIsLast)
		}
	case ActionRemove:
		if ch.OldIndex == count && count > 0 {
			list[count-1].RaisePropertyChanged(PropIsLast)
		}
	case ActionReplace:
		if ch.NewIndex == count-1 {
			list[count-1].RaisePropertyChanged(PropIsLast)
		}
	}
}
