package tree

import (
	"fmt"
	"slices"
)

// Action is the kind of a collection change.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Change describes one mutation of a Collection. Ranged operations produce a
// single Change carrying every affected node in order.
type Change struct {
	Action   Action
	NewItems []*Node
	OldItems []*Node
	NewIndex int
	OldIndex int
}

// ChangeHandler observes collection changes.
type ChangeHandler func(c *Collection, ch Change)

// Collection is the ordered child list of exactly one node. It is the only
// way to attach or detach nodes and it refuses nodes that already have a
// parent.
type Collection struct {
	owner       *Node
	list        []*Node
	dispatching bool

	observers []changeSub
	nextSubID int
}

type changeSub struct {
	id int
	fn ChangeHandler
}

func newCollection(owner *Node) *Collection {
	return &Collection{owner: owner}
}

// Owner returns the node that owns the collection.
func (c *Collection) Owner() *Node { return c.owner }

// Len returns the number of children.
func (c *Collection) Len() int { return len(c.list) }

// At returns the child at index i.
func (c *Collection) At(i int) (*Node, error) {
	if i < 0 || i >= len(c.list) {
		return nil, fmt.Errorf("child %d of %d: %w", i, len(c.list), ErrIndexOutOfRange)
	}
	return c.list[i], nil
}

// All returns a copy of the children.
func (c *Collection) All() []*Node {
	return slices.Clone(c.list)
}

// Last returns the final child or nil.
func (c *Collection) Last() *Node {
	if len(c.list) == 0 {
		return nil
	}
	return c.list[len(c.list)-1]
}

// IndexOf returns the position of n, or -1 if n is not a child.
func (c *Collection) IndexOf(n *Node) int {
	if n == nil || n.parent != c.owner {
		return -1
	}
	return slices.Index(c.list, n)
}

// Contains reports whether n is a child.
func (c *Collection) Contains(n *Node) bool { return c.IndexOf(n) >= 0 }

// Subscribe registers an external observer. Observers run after the owning
// node has processed the change.
func (c *Collection) Subscribe(h ChangeHandler) (cancel func()) {
	c.nextSubID++
	id := c.nextSubID
	c.observers = append(c.observers, changeSub{id: id, fn: h})
	return func() {
		for i, s := range c.observers {
			if s.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Collection) checkReentrancy() error {
	if c.dispatching || c.owner.busy() {
		return fmt.Errorf("children of %q: %w", c.owner.Text(), ErrReentrancy)
	}
	return nil
}

func (c *Collection) checkNewNodes(nodes []*Node) error {
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("insert nil node into %q", c.owner.Text())
		}
		if n.parent != nil || slices.Contains(nodes[:i], n) {
			return fmt.Errorf("insert %q into %q: %w", n.Text(), c.owner.Text(), ErrAlreadyParented)
		}
		if n == c.owner || n.IsAncestorOf(c.owner) {
			return fmt.Errorf("insert %q into its own subtree: %w", n.Text(), ErrAlreadyParented)
		}
	}
	return nil
}

// Insert attaches n at index.
func (c *Collection) Insert(index int, n *Node) error {
	return c.InsertRange(index, []*Node{n})
}

// InsertRange attaches nodes at index as one change.
func (c *Collection) InsertRange(index int, nodes []*Node) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if index < 0 || index > len(c.list) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(c.list), ErrIndexOutOfRange)
	}
	if err := c.checkNewNodes(nodes); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	nodes = slices.Clone(nodes)
	c.dispatch(Change{Action: ActionAdd, NewItems: nodes, NewIndex: index, OldIndex: -1}, func() {
		c.list = slices.Insert(c.list, index, nodes...)
	})
	return nil
}

// Add appends n.
func (c *Collection) Add(n *Node) error {
	return c.InsertRange(len(c.list), []*Node{n})
}

// AddRange appends nodes as one change.
func (c *Collection) AddRange(nodes []*Node) error {
	return c.InsertRange(len(c.list), nodes)
}

// RemoveAt detaches the child at index.
func (c *Collection) RemoveAt(index int) error {
	return c.RemoveRange(index, 1)
}

// RemoveRange detaches count children starting at index as one change.
func (c *Collection) RemoveRange(index, count int) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if index < 0 || count < 0 || index+count > len(c.list) {
		return fmt.Errorf("remove %d at %d of %d: %w", count, index, len(c.list), ErrIndexOutOfRange)
	}
	if count == 0 {
		return nil
	}
	old := slices.Clone(c.list[index : index+count])
	c.dispatch(Change{Action: ActionRemove, OldItems: old, OldIndex: index, NewIndex: -1}, func() {
		c.list = slices.Delete(c.list, index, index+count)
	})
	return nil
}

// Remove detaches n if it is a child and reports whether it was.
func (c *Collection) Remove(n *Node) (bool, error) {
	i := c.IndexOf(n)
	if i < 0 {
		return false, nil
	}
	if err := c.RemoveAt(i); err != nil {
		return false, err
	}
	return true, nil
}

// Replace swaps the child at index for n.
func (c *Collection) Replace(index int, n *Node) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.list) {
		return fmt.Errorf("replace %d of %d: %w", index, len(c.list), ErrIndexOutOfRange)
	}
	old := c.list[index]
	if old == n {
		return nil
	}
	if err := c.checkNewNodes([]*Node{n}); err != nil {
		return err
	}
	ch := Change{Action: ActionReplace, NewItems: []*Node{n}, OldItems: []*Node{old}, NewIndex: index, OldIndex: index}
	c.dispatch(ch, func() { c.list[index] = n })
	return nil
}

// Clear detaches every child as one change.
func (c *Collection) Clear() error {
	return c.RemoveRange(0, len(c.list))
}

// RemoveAll detaches every child matching pred. Contiguous runs of matches
// are removed with one change each. The predicate must not mutate the
// collection.
func (c *Collection) RemoveAll(pred func(*Node) bool) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	first := 0
	for i := 0; i < len(c.list); i++ {
		c.dispatching = true
		remove := pred(c.list[i])
		c.dispatching = false
		if remove {
			continue
		}
		if first < i {
			if err := c.RemoveRange(first, i-first); err != nil {
				return err
			}
			i = first
		}
		first = i + 1
	}
	if first < len(c.list) {
		return c.RemoveRange(first, len(c.list)-first)
	}
	return nil
}

// dispatch applies mutate and delivers ch, first to the owning node and then
// to external observers. The owner sees the list both before and after the
// mutation so it can compute pre-change flat indices.
func (c *Collection) dispatch(ch Change, mutate func()) {
	c.dispatching = true
	defer func() { c.dispatching = false }()

	pending := c.owner.childrenChanging(ch)
	mutate()
	c.owner.childrenChanged(ch, pending)

	if len(c.observers) > 0 {
		obs := slices.Clone(c.observers)
		for _, o := range obs {
			o.fn(c, ch)
		}
	}
}
