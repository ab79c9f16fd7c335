package tree

// Property names a piece of node state whose change is announced to subscribers.
type Property string

const (
	PropHidden               Property = "Hidden"
	PropExpanded             Property = "Expanded"
	PropVisible              Property = "Visible"
	PropSelected             Property = "Selected"
	PropEditing              Property = "Editing"
	PropChecked              Property = "Checked"
	PropLazyLoading          Property = "LazyLoading"
	PropCanExpandRecursively Property = "CanExpandRecursively"
	PropShowExpander         Property = "ShowExpander"
	PropIsLast               Property = "IsLast"
	PropText                 Property = "Text"
)

// PropertyHandler is called after a property of n changed.
type PropertyHandler func(n *Node, p Property)

type propertySub struct {
	id int
	fn PropertyHandler
}

// Subscribe registers h for property changes of n. The returned function
// removes the subscription; calling it more than once is harmless.
func (n *Node) Subscribe(h PropertyHandler) (cancel func()) {
	n.nextSubID++
	id := n.nextSubID
	n.subs = append(n.subs, propertySub{id: id, fn: h})
	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// RaisePropertyChanged notifies subscribers of n that p changed. Kinds call
// this when state they own (such as their text) changes.
func (n *Node) RaisePropertyChanged(p Property) {
	if len(n.subs) == 0 {
		return
	}
	// Copy so handlers may unsubscribe while we iterate.
	subs := append([]propertySub(nil), n.subs...)
	for _, s := range subs {
		s.fn(n, p)
	}
}
