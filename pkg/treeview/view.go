// Package treeview is the non-rendering controller of a tree list control.
//
// A View owns the Flattener for a root node and layers list behaviour on
// top of it: selection, focus and scroll requests, keyboard intents, type
// ahead search, delete/copy commands with matching can-execute queries,
// drop target computation and the in-place edit gate. A renderer subscribes
// a Listener and mirrors the flattened sequence from the batches it gets.
package treeview

import (
	"slices"
	"time"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/textsearch"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// Options configures a View.
type Options struct {
	ShowRoot            bool
	ShowRootExpander    bool
	ShowLines           bool
	AllowDropOrder      bool
	CaseSensitiveSearch bool
	SearchTimeout       time.Duration
	// Clock replaces time.Now for the search timeout, for tests.
	Clock func() time.Time
}

// DefaultOptions mirrors the defaults of the list control: the root is
// shown without an expander and guide lines are drawn.
func DefaultOptions() Options {
	return Options{
		ShowRoot:      true,
		ShowLines:     true,
		SearchTimeout: textsearch.DefaultTimeout,
	}
}

// Listener receives the flattened sequence. OnReset replaces the whole
// sequence (after Reload); the batch methods update it incrementally.
type Listener interface {
	tree.Consumer
	OnReset(items []*tree.Node)
}

type listenerSub struct {
	id int
	l  Listener
}

// View is the controller. It is not safe for concurrent use.
type View struct {
	opts Options
	root *tree.Node

	flattener     *tree.Flattener
	cancelBatches func()

	listeners []listenerSub
	nextSubID int

	selection     []*tree.Node
	updatesLocked bool

	doNotScrollOnExpanding bool
	scrollTarget           *tree.Node
	deferred               []func()

	search *textsearch.Search
}

// New returns a view over root, which may be nil.
func New(root *tree.Node, opts Options) (*View, error) {
	v := &View{opts: opts}
	searchOpts := []textsearch.Option{
		textsearch.WithCaseSensitive(opts.CaseSensitiveSearch),
		textsearch.WithTimeout(opts.SearchTimeout),
	}
	if opts.Clock != nil {
		searchOpts = append(searchOpts, textsearch.WithClock(opts.Clock))
	}
	v.search = textsearch.New(searchSequence{v}, searchOpts...)
	if err := v.SetRoot(root); err != nil {
		return nil, err
	}
	return v, nil
}

// Options returns the current options.
func (v *View) Options() Options { return v.opts }

// Root returns the displayed root.
func (v *View) Root() *tree.Node { return v.root }

// SetRoot replaces the displayed tree.
func (v *View) SetRoot(root *tree.Node) error {
	v.root = root
	return v.Reload()
}

// SetShowRoot changes whether the root occupies the first row.
func (v *View) SetShowRoot(show bool) error {
	if v.opts.ShowRoot == show {
		return nil
	}
	v.opts.ShowRoot = show
	return v.Reload()
}

// SetShowRootExpander changes whether the root can be collapsed by the user.
func (v *View) SetShowRootExpander(show bool) error {
	if v.opts.ShowRootExpander == show {
		return nil
	}
	v.opts.ShowRootExpander = show
	return v.Reload()
}

// SetAllowDropOrder enables Before/After drop targets.
func (v *View) SetAllowDropOrder(allow bool) { v.opts.AllowDropOrder = allow }

// SetCaseSensitiveSearch changes the type ahead comparison mode.
func (v *View) SetCaseSensitiveSearch(cs bool) {
	v.opts.CaseSensitiveSearch = cs
	v.search.SetCaseSensitive(cs)
}

// Reload rebuilds the projection of the root. A root that the user cannot
// collapse is forced open, then a new flattener is attached and listeners
// receive OnReset. The selection and the search state are cleared.
func (v *View) Reload() error {
	if v.cancelBatches != nil {
		v.cancelBatches()
		v.cancelBatches = nil
	}
	if v.flattener != nil {
		v.flattener.Stop()
		v.flattener = nil
	}
	v.setSelection(nil)
	v.search.Reset()
	v.scrollTarget = nil
	v.deferred = nil

	if v.root != nil {
		if !(v.opts.ShowRoot && v.opts.ShowRootExpander) {
			if err := v.root.SetExpanded(true); err != nil {
				return err
			}
		}
		v.flattener = tree.NewFlattener(v.root, v.opts.ShowRoot)
		v.cancelBatches = v.flattener.Subscribe(v)
	}
	debug.Log("treeview: reload root=%q showRoot=%v items=%d", v.rootText(), v.opts.ShowRoot, v.Len())

	items := v.Items()
	for _, s := range v.listenerSnapshot() {
		s.l.OnReset(items)
	}
	return nil
}

func (v *View) rootText() string {
	if v.root == nil {
		return ""
	}
	return v.root.Text()
}

// Subscribe registers l and immediately resets it to the current items.
func (v *View) Subscribe(l Listener) (cancel func()) {
	v.nextSubID++
	id := v.nextSubID
	v.listeners = append(v.listeners, listenerSub{id: id, l: l})
	l.OnReset(v.Items())
	return func() {
		for i, s := range v.listeners {
			if s.id == id {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

func (v *View) listenerSnapshot() []listenerSub {
	return append([]listenerSub(nil), v.listeners...)
}

// OnInserted forwards a flattener batch to the listeners.
func (v *View) OnInserted(index int, nodes []*tree.Node) {
	for _, s := range v.listenerSnapshot() {
		s.l.OnInserted(index, nodes)
	}
}

// OnRemoved forwards a flattener batch and drops removed nodes from the
// selection. When every selected node went away, focus moves to the row
// before the removed range, unless no rows are left.
func (v *View) OnRemoved(index int, nodes []*tree.Node) {
	for _, s := range v.listenerSnapshot() {
		s.l.OnRemoved(index, nodes)
	}
	if v.updatesLocked {
		return
	}
	var removed []*tree.Node
	for _, n := range nodes {
		if n.IsSelected() {
			removed = append(removed, n)
		}
	}
	if len(removed) == 0 {
		return
	}
	var keep []*tree.Node
	for _, n := range v.selection {
		if !slices.Contains(removed, n) {
			keep = append(keep, n)
		}
	}
	if v.Len() == 0 {
		v.setSelection(keep)
		return
	}
	v.updateFocusedNode(keep, max(0, index-1))
}

// LockUpdates suspends selection repair after removals until the returned
// function is called.
func (v *View) LockUpdates() (unlock func()) {
	v.updatesLocked = true
	return func() { v.updatesLocked = false }
}

// Len is the number of rows.
func (v *View) Len() int {
	if v.flattener == nil {
		return 0
	}
	return v.flattener.Len()
}

// At returns the node in row i.
func (v *View) At(i int) (*tree.Node, error) {
	if v.flattener == nil {
		return nil, tree.ErrIndexOutOfRange
	}
	return v.flattener.NodeAt(i)
}

// IndexOf returns the row of n or -1.
func (v *View) IndexOf(n *tree.Node) int {
	if v.flattener == nil {
		return -1
	}
	return v.flattener.IndexOf(n)
}

// Items materializes all rows.
func (v *View) Items() []*tree.Node {
	if v.flattener == nil {
		return nil
	}
	return v.flattener.Nodes()
}

// ShowExpander reports whether the row of n draws an expander. The root
// only gets one when ShowRootExpander is set.
func (v *View) ShowExpander(n *tree.Node) bool {
	if n == v.root && !v.opts.ShowRootExpander {
		return false
	}
	return n.ShowExpander()
}
