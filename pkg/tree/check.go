package tree

// CheckState is the tri-state value of a node's checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Mixed
)

func (s CheckState) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checked:
		return "checked"
	case Mixed:
		return "mixed"
	default:
		return "invalid"
	}
}

// CheckState returns the node's checkbox state.
func (n *Node) CheckState() CheckState { return n.checked }

// SetChecked sets the checkbox of n and propagates it: every checkable
// descendant takes the same value, and every checkable ancestor is
// recomputed from its checkable children (checked if all are checked,
// unchecked if all are unchecked, mixed otherwise). Nodes that are not
// checkable are looked through: an ancestor aggregates the nearest
// checkable nodes below it. Mixed cannot be set directly.
func (n *Node) SetChecked(state CheckState) error {
	if state != Checked && state != Unchecked {
		return ErrInvalidCheckState
	}
	if n.checked == state {
		return nil
	}
	n.setCheckState(state)

	n.walk(func(d *Node) bool {
		if d.IsCheckable() {
			d.setCheckState(state)
		}
		return true
	}, false)

	for p := n.parent; p != nil; p = p.parent {
		if !p.IsCheckable() {
			continue
		}
		if agg, ok := p.aggregateCheckState(); ok {
			p.setCheckState(agg)
		}
	}
	return nil
}

// aggregateCheckState folds the states of the nearest checkable nodes
// below n. It reports false when there are none.
func (n *Node) aggregateCheckState() (CheckState, bool) {
	seen, allChecked, allUnchecked := false, true, true
	var visit func(*Node)
	visit = func(parent *Node) {
		for _, c := range parent.childList() {
			if !c.IsCheckable() {
				visit(c)
				continue
			}
			seen = true
			if c.checked != Checked {
				allChecked = false
			}
			if c.checked != Unchecked {
				allUnchecked = false
			}
		}
	}
	visit(n)
	switch {
	case !seen:
		return n.checked, false
	case allChecked:
		return Checked, true
	case allUnchecked:
		return Unchecked, true
	default:
		return Mixed, true
	}
}

func (n *Node) setCheckState(state CheckState) {
	if n.checked != state {
		n.checked = state
		n.RaisePropertyChanged(PropChecked)
	}
}
