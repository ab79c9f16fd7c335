package tree

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/metrics"
)

// Consumer receives the incremental changes of a flattened sequence.
// Removal indices refer to the sequence before the batch, insertion indices
// to the sequence after it. Batches never interleave.
type Consumer interface {
	OnInserted(index int, nodes []*Node)
	OnRemoved(index int, nodes []*Node)
}

// ConsumerFuncs adapts two functions to Consumer. Nil fields are ignored.
type ConsumerFuncs struct {
	Inserted func(index int, nodes []*Node)
	Removed  func(index int, nodes []*Node)
}

func (c ConsumerFuncs) OnInserted(index int, nodes []*Node) {
	if c.Inserted != nil {
		c.Inserted(index, nodes)
	}
}

func (c ConsumerFuncs) OnRemoved(index int, nodes []*Node) {
	if c.Removed != nil {
		c.Removed(index, nodes)
	}
}

type consumerSub struct {
	id int
	c  Consumer
}

// Flattener projects the visible nodes below a root into one pre-order
// sequence. It keeps no copy of the sequence: positions are derived from the
// cached visible subtree counts on the nodes.
type Flattener struct {
	root        *Node
	showRoot    bool
	stopped     bool
	dispatching bool

	consumers []consumerSub
	nextSubID int
}

// NewFlattener starts projecting root. A flattener previously attached to
// root is stopped.
func NewFlattener(root *Node, showRoot bool) *Flattener {
	if root.flattener != nil {
		root.flattener.Stop()
	}
	f := &Flattener{root: root, showRoot: showRoot}
	root.flattener = f
	debug.Log("flattener: projecting %q (show root=%v, %d visible)", root.Text(), showRoot, f.Len())
	return f
}

// Root returns the projected root.
func (f *Flattener) Root() *Node { return f.root }

// ShowRoot reports whether the root occupies index 0.
func (f *Flattener) ShowRoot() bool { return f.showRoot }

// Stop detaches the flattener from its root; consumers receive no further
// batches and all previous index results are void.
func (f *Flattener) Stop() {
	if f.stopped {
		return
	}
	f.stopped = true
	if f.root.flattener == f {
		f.root.flattener = nil
	}
	f.consumers = nil
}

// Stopped reports whether Stop was called.
func (f *Flattener) Stopped() bool { return f.stopped }

// Subscribe registers a consumer for future batches.
func (f *Flattener) Subscribe(c Consumer) (cancel func()) {
	f.nextSubID++
	id := f.nextSubID
	f.consumers = append(f.consumers, consumerSub{id: id, c: c})
	return func() {
		for i, s := range f.consumers {
			if s.id == id {
				f.consumers = append(f.consumers[:i:i], f.consumers[i+1:]...)
				return
			}
		}
	}
}

// listFlattener returns the flattener projecting n: the one attached to the
// nearest ancestor-or-self.
func (n *Node) listFlattener() *Flattener {
	for a := n; a != nil; a = a.parent {
		if a.flattener != nil {
			return a.flattener
		}
	}
	return nil
}

// Len returns the number of nodes in the sequence.
func (f *Flattener) Len() int {
	count := f.root.visibleCount()
	if !f.showRoot && count > 0 {
		count--
	}
	return count
}

// IndexOf returns the position of n in the sequence, or -1 when n is not
// visible or not below the root. It costs one walk to the root plus the
// preceding siblings at every level.
func (f *Flattener) IndexOf(n *Node) int {
	defer metrics.Timer(metrics.IndexOf)()
	if n == nil || !n.visible {
		return -1
	}
	index := 0
	node := n
	for node != f.root {
		p := node.parent
		if p == nil {
			return -1
		}
		index++ // the parent itself
		for _, sib := range p.children.list {
			if sib == node {
				break
			}
			index += sib.visibleCount()
		}
		node = p
	}
	if !f.showRoot {
		index--
	}
	return index
}

// NodeAt returns the node at position index by descending from the root
// through the cached subtree counts.
func (f *Flattener) NodeAt(index int) (*Node, error) {
	defer metrics.Timer(metrics.NodeAt)()
	if index < 0 || index >= f.Len() {
		return nil, fmt.Errorf("flat index %d of %d: %w", index, f.Len(), ErrIndexOutOfRange)
	}
	if !f.showRoot {
		index++
	}
	node := f.root
	for index > 0 {
		index-- // node itself
		next := (*Node)(nil)
		for _, c := range node.childList() {
			count := c.visibleCount()
			if index < count {
				next = c
				break
			}
			index -= count
		}
		if next == nil {
			// Counts disagree with the structure; unreachable while the
			// invariants hold.
			return nil, fmt.Errorf("flat index beyond subtree of %q: %w", node.Text(), ErrIndexOutOfRange)
		}
		node = next
	}
	return node, nil
}

// Nodes materializes the whole sequence.
func (f *Flattener) Nodes() []*Node {
	if !f.root.visible {
		return nil
	}
	if f.showRoot {
		return f.root.VisibleDescendantsAndSelf()
	}
	return f.root.VisibleDescendants()
}

// span returns the flat range occupied by n and its visible descendants
// (includeSelf) or by its visible descendants only. A hidden root never
// occupies an index of its own.
func (f *Flattener) span(n *Node, includeSelf bool) (int, []*Node) {
	if n == f.root && !f.showRoot {
		return 0, n.VisibleDescendants()
	}
	index := f.IndexOf(n)
	if includeSelf {
		return index, n.VisibleDescendantsAndSelf()
	}
	return index + 1, n.VisibleDescendants()
}

func (f *Flattener) nodesInserted(index int, nodes []*Node) {
	f.emit(index, nodes, true)
}

func (f *Flattener) nodesRemoved(index int, nodes []*Node) {
	f.emit(index, nodes, false)
}

func (f *Flattener) emit(index int, nodes []*Node, inserted bool) {
	if f.stopped || len(nodes) == 0 || index < 0 {
		return
	}
	debug.Assert(!f.dispatching, "flattener batch emitted during dispatch")
	start := time.Now()
	f.dispatching = true
	defer func() {
		f.dispatching = false
		metrics.Batch.Record(time.Since(start))
	}()

	consumers := append([]consumerSub(nil), f.consumers...)
	for _, s := range consumers {
		if inserted {
			s.c.OnInserted(index, nodes)
		} else {
			s.c.OnRemoved(index, nodes)
		}
	}
	debug.LogIf(len(nodes) > 1, "flattener: %s %d nodes at %d", batchVerb(inserted), len(nodes), index)
}

func batchVerb(inserted bool) string {
	if inserted {
		return "inserted"
	}
	return "removed"
}
