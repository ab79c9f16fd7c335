package treeview

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vanderheijden86/treelist/pkg/testutil"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// entry is a kind that can be deleted, copied, dropped onto and edited.
type entry struct{ text string }

func (e *entry) Text() string                                  { return e.text }
func (e *entry) CanDelete(*tree.Node) bool                     { return true }
func (e *entry) Delete(n *tree.Node) error                     { return n.Detach() }
func (e *entry) Copy(nodes []*tree.Node) (tree.Payload, error) { return testutil.Texts(nodes), nil }
func (e *entry) CanDrop(_ *tree.Node, _ int, p tree.Payload) bool {
	_, ok := p.([]string)
	return ok
}
func (e *entry) Drop(n *tree.Node, index int, p tree.Payload) error {
	for i, text := range p.([]string) {
		if err := n.InsertChild(index+i, E(text)); err != nil {
			return err
		}
	}
	return nil
}
func (e *entry) LoadEditText(*tree.Node) string { return e.text }
func (e *entry) SaveEditText(_ *tree.Node, text string) bool {
	e.text = text
	return true
}

// E builds an entry node with children.
func E(text string, children ...*tree.Node) *tree.Node {
	n := tree.New(&entry{text: text})
	for _, c := range children {
		if err := n.AddChild(c); err != nil {
			panic(err)
		}
	}
	return n
}

// recorder mirrors the rows a renderer would show.
type recorder struct {
	*testutil.Mirror
	resets int
}

func (r *recorder) OnReset(items []*tree.Node) {
	r.Items = slices.Clone(items)
	r.resets++
}

func newRecorder() *recorder { return &recorder{Mirror: &testutil.Mirror{}} }

// sampleView shows Root -> [A, B -> [C, D]] without the root row.
func sampleView(t *testing.T) (*View, *tree.Node) {
	t.Helper()
	root := E("Root", E("A"), E("B", E("C"), E("D")))
	testutil.ExpandAll(root)
	opts := DefaultOptions()
	opts.ShowRoot = false
	v, err := New(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	return v, root
}

func rows(v *View) []string { return testutil.Texts(v.Items()) }

func TestReloadForcesRootOpen(t *testing.T) {
	root := E("Root", E("A"))
	v, err := New(root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !root.IsExpanded() {
		t.Fatal("root without expander was left collapsed")
	}
	if !slices.Equal(rows(v), []string{"Root", "A"}) {
		t.Errorf("rows = %v", rows(v))
	}
	if v.ShowExpander(root) {
		t.Error("root draws an expander although ShowRootExpander is off")
	}

	_ = root.SetExpanded(false)
	if err := v.SetShowRootExpander(true); err != nil {
		t.Fatal(err)
	}
	if root.IsExpanded() {
		t.Error("collapsible root was forced open")
	}
	if !v.ShowExpander(root) {
		t.Error("collapsible root draws no expander")
	}
}

func TestListenerReset(t *testing.T) {
	v, root := sampleView(t)
	r := newRecorder()
	v.Subscribe(r)
	if r.resets != 1 || len(r.Items) != 4 {
		t.Fatalf("resets=%d items=%d", r.resets, len(r.Items))
	}

	_ = testutil.Find(root, "B").SetExpanded(false)
	if !slices.Equal(testutil.Texts(r.Items), []string{"A", "B"}) {
		t.Errorf("mirror = %v", testutil.Texts(r.Items))
	}

	if err := v.SetShowRoot(true); err != nil {
		t.Fatal(err)
	}
	if r.resets != 2 || !slices.Equal(testutil.Texts(r.Items), []string{"Root", "A", "B"}) {
		t.Errorf("after reload resets=%d mirror=%v", r.resets, testutil.Texts(r.Items))
	}
}

func TestSelectionMirrorsNodeFlags(t *testing.T) {
	v, root := sampleView(t)
	a, c := testutil.Find(root, "A"), testutil.Find(root, "C")

	v.SetSelectedIndex(2)
	if v.SelectedItem() != c || !c.IsSelected() {
		t.Fatal("SetSelectedIndex did not select C")
	}
	v.ToggleSelect(a)
	if !a.IsSelected() || len(v.SelectedItems()) != 2 || v.SelectedItem() != c {
		t.Error("ToggleSelect did not add A as secondary selection")
	}
	v.ToggleSelect(a)
	if a.IsSelected() {
		t.Error("ToggleSelect did not remove A")
	}
	v.SetSelectedIndex(99)
	if c.IsSelected() || v.SelectedIndex() != -1 {
		t.Error("out of range index did not clear the selection")
	}
}

func TestRemovedSelectionMovesFocus(t *testing.T) {
	v, root := sampleView(t)
	b := testutil.Find(root, "B")
	c := testutil.Find(root, "C")
	v.Select(c)

	if err := b.SetExpanded(false); err != nil {
		t.Fatal(err)
	}
	if c.IsSelected() {
		t.Error("hidden node is still selected")
	}
	if v.SelectedItem() != b {
		t.Errorf("focus = %v, want B", v.SelectedItem())
	}
}

func TestRemovedSelectionKeepsOthers(t *testing.T) {
	v, root := sampleView(t)
	a, c := testutil.Find(root, "A"), testutil.Find(root, "C")
	v.SetSelectedNodes([]*tree.Node{c, a})

	_ = testutil.Find(root, "B").SetExpanded(false)
	if got := v.SelectedItems(); len(got) != 1 || got[0] != a {
		t.Errorf("selection = %v, want [A]", testutil.Texts(got))
	}
}

func TestLockedUpdatesKeepSelection(t *testing.T) {
	v, root := sampleView(t)
	c := testutil.Find(root, "C")
	v.Select(c)

	unlock := v.LockUpdates()
	_ = testutil.Find(root, "B").SetExpanded(false)
	unlock()
	if v.SelectedItem() != c {
		t.Error("selection repaired while locked")
	}
}

func TestTopLevelSelection(t *testing.T) {
	v, root := sampleView(t)
	b, c, a := testutil.Find(root, "B"), testutil.Find(root, "C"), testutil.Find(root, "A")
	v.SetSelectedNodes([]*tree.Node{c, b, a})
	if got := testutil.Texts(v.TopLevelSelection()); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("TopLevelSelection = %v", got)
	}
}

func TestDeleteRefocuses(t *testing.T) {
	v, root := sampleView(t)
	b, c := testutil.Find(root, "B"), testutil.Find(root, "C")
	v.SetSelectedNodes([]*tree.Node{b, c})

	if !v.CanDelete() {
		t.Fatal("CanDelete = false")
	}
	if err := v.Delete(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rows(v), []string{"A"}) {
		t.Errorf("rows = %v", rows(v))
	}
	if v.SelectedItem() != testutil.Find(root, "A") {
		t.Errorf("focus = %v, want A", v.SelectedItem())
	}
	if b.IsSelected() || c.IsSelected() {
		t.Error("deleted nodes are still selected")
	}
}

func TestDeleteCapabilityMirrorsCanDelete(t *testing.T) {
	root := testutil.Expanded(testutil.N("Root", testutil.N("plain")))
	v, _ := New(root, Options{})
	v.SetSelectedIndex(0)
	if v.CanDelete() {
		t.Fatal("CanDelete on a label")
	}
	if err := v.Delete(); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("Delete error = %v", err)
	}
	v.SetSelectedIndex(-1)
	if err := v.Delete(); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("Delete without selection = %v", err)
	}
}

func TestCopyCutPaste(t *testing.T) {
	v, root := sampleView(t)
	v.SetSelectedNodes([]*tree.Node{testutil.Find(root, "D"), testutil.Find(root, "A")})
	if !v.CanCopy() {
		t.Fatal("CanCopy = false")
	}
	p, err := v.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if got := p.([]string); !slices.Equal(got, []string{"D", "A"}) {
		t.Errorf("payload = %v", got)
	}
	if v.CanCut() || v.CanPaste() {
		t.Error("cut or paste offered")
	}
}

func TestLeftRight(t *testing.T) {
	v, root := sampleView(t)
	b, c := testutil.Find(root, "B"), testutil.Find(root, "C")

	v.Select(c)
	_ = v.Left()
	if v.SelectedItem() != b {
		t.Fatalf("Left on leaf focused %v, want B", v.SelectedItem())
	}
	_ = v.Left()
	if b.IsExpanded() {
		t.Fatal("Left did not collapse B")
	}
	_ = v.Left()
	if v.SelectedItem() != b {
		t.Error("Left moved to the hidden root")
	}
	_ = v.Right()
	if !b.IsExpanded() {
		t.Fatal("Right did not expand B")
	}
	_ = v.Right()
	if v.SelectedItem() != c {
		t.Errorf("Right on expanded node focused %v, want C", v.SelectedItem())
	}
}

func TestExpandScrollsToLastChildThenBack(t *testing.T) {
	v, root := sampleView(t)
	b := testutil.Find(root, "B")
	_ = b.SetExpanded(false)
	v.Select(b)
	v.TakeScrollTarget()

	if err := v.Expand(); err != nil {
		t.Fatal(err)
	}
	if got := v.TakeScrollTarget(); got != 3 {
		t.Errorf("first scroll target = %d, want 3 (D)", got)
	}
	if !v.RunDeferred() {
		t.Fatal("no deferred scroll queued")
	}
	if got := v.TakeScrollTarget(); got != 1 {
		t.Errorf("deferred scroll target = %d, want 1 (B)", got)
	}
	if v.RunDeferred() {
		t.Error("deferred queue not drained")
	}
}

func TestFocusNodeExpandsAncestorsWithoutExpandScroll(t *testing.T) {
	v, root := sampleView(t)
	b, d := testutil.Find(root, "B"), testutil.Find(root, "D")
	_ = b.SetExpanded(false)

	if err := v.FocusNode(d); err != nil {
		t.Fatal(err)
	}
	if !b.IsExpanded() || v.SelectedItem() != d {
		t.Fatal("FocusNode did not reveal and select D")
	}
	if got := v.TakeScrollTarget(); got != 3 {
		t.Errorf("scroll target = %d, want 3", got)
	}
	if v.RunDeferred() {
		t.Error("ancestor expansion queued an expand scroll")
	}
}

func TestExpandRecursivelySkipsLazy(t *testing.T) {
	lazy := testutil.N("lazy")
	_ = lazy.SetLazyLoading(true)
	root := testutil.N("Root", testutil.N("x", testutil.N("y", testutil.N("z"))), lazy)
	v, err := New(root, Options{ShowRoot: true, ShowRootExpander: true})
	if err != nil {
		t.Fatal(err)
	}
	v.Select(root)
	if err := v.ExpandAll(); err != nil {
		t.Fatal(err)
	}
	if !testutil.Find(root, "y").IsExpanded() {
		t.Error("ExpandAll did not reach y")
	}
	if lazy.IsExpanded() || !lazy.IsLazyLoading() {
		t.Error("ExpandAll descended into a lazy node")
	}
}

func TestMoveByClamps(t *testing.T) {
	v, _ := sampleView(t)
	v.MoveBy(1)
	if v.SelectedIndex() != 0 {
		t.Fatalf("first move selected %d", v.SelectedIndex())
	}
	v.MoveBy(10)
	if v.SelectedIndex() != 3 {
		t.Errorf("MoveBy(10) -> %d", v.SelectedIndex())
	}
	v.MoveBy(-2)
	if v.SelectedIndex() != 1 {
		t.Errorf("MoveBy(-2) -> %d", v.SelectedIndex())
	}
}

func TestTypeAheadSelectsRows(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := testutil.N("Root", testutil.N("Apple"), testutil.N("Banana"), testutil.N("Apricot"))
	v, err := New(root, Options{Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatal(err)
	}
	v.SetSelectedIndex(0)
	for _, r := range "apr" {
		v.TypeText(string(r))
	}
	if v.SelectedItem().Text() != "Apricot" || v.SearchPrefix() != "apr" {
		t.Fatalf("selected %q prefix %q", v.SelectedItem().Text(), v.SearchPrefix())
	}
	v.Backspace()
	if v.SearchPrefix() != "ap" {
		t.Errorf("prefix after backspace = %q", v.SearchPrefix())
	}
	if !v.ExpireSearch(now.Add(time.Hour)) || v.SearchActive() {
		t.Error("search did not expire")
	}
	if v.TypeText("") {
		t.Error("empty text matched")
	}
}

func TestDropTargets(t *testing.T) {
	v, root := sampleView(t)
	a, b, c := testutil.Find(root, "A"), testutil.Find(root, "B"), testutil.Find(root, "C")
	payload := []string{"x"}

	got := v.DropTargets(a, payload)
	if len(got) != 1 || got[0].Place != Inside || got[0].Node != a || got[0].Y != 1 {
		t.Fatalf("targets without drop order = %+v", got)
	}

	v.SetAllowDropOrder(true)
	got = v.DropTargets(a, payload)
	want := []DropTarget{
		{Item: a, Place: Before, Node: root, Index: 0, Y: 0.2},
		{Item: a, Place: Inside, Node: a, Index: 0, Y: 0.8},
		{Item: a, Place: After, Node: root, Index: 1, Y: 1},
	}
	if !slices.Equal(got, want) {
		t.Errorf("leaf targets = %+v", got)
	}

	got = v.DropTargets(b, payload)
	if len(got) != 3 || got[2].Place != Before || got[2].Item != c || got[2].Node != b || got[2].Index != 0 {
		t.Errorf("expanded node targets = %+v", got)
	}

	if tgt, ok := v.DropTargetAt(a, payload, 0.5); !ok || tgt.Place != Inside {
		t.Errorf("DropTargetAt(0.5) = %+v", tgt)
	}
	if _, ok := v.DropTargetAt(a, 42, 0.5); ok {
		t.Error("rejected payload produced a target")
	}

	tgt, _ := v.DropTargetAt(a, payload, 0.95)
	if err := v.Drop(tgt, payload); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rows(v), []string{"A", "x", "B", "C", "D"}) {
		t.Errorf("rows after drop = %v", rows(v))
	}
}

func TestRootDrop(t *testing.T) {
	v, root := sampleView(t)
	if !v.CanRootDrop([]string{"z"}) {
		t.Fatal("hidden root refuses drop")
	}
	if err := v.RootDrop([]string{"z"}); err != nil {
		t.Fatal(err)
	}
	if root.Children().Last().Text() != "z" {
		t.Error("root drop did not append")
	}
	_ = v.SetShowRoot(true)
	if v.CanRootDrop([]string{"z"}) {
		t.Error("shown root accepts background drops")
	}
	if err := v.RootDrop([]string{"z"}); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("RootDrop with shown root = %v", err)
	}
}

func TestEditGate(t *testing.T) {
	v, root := sampleView(t)
	a := testutil.Find(root, "A")
	v.Select(a)
	text, err := v.BeginEdit(a)
	if err != nil || text != "A" {
		t.Fatalf("BeginEdit = %q, %v", text, err)
	}
	if v.Editing() != a {
		t.Error("Editing() does not report the open editor")
	}
	if ok, err := v.CommitEdit(a, "Alpha"); !ok || err != nil {
		t.Fatalf("CommitEdit = %v, %v", ok, err)
	}
	if a.Text() != "Alpha" || v.Editing() != nil {
		t.Error("commit not applied")
	}

	if _, err := v.BeginEdit(testutil.N("plain")); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("BeginEdit on label = %v", err)
	}
}

func TestPlaceString(t *testing.T) {
	if Before.String() != "before" || Place(7).String() != "Place(7)" {
		t.Error("unexpected Place strings")
	}
}

func TestRemovingLastRowClearsSelection(t *testing.T) {
	root := E("Root", E("A"))
	opts := DefaultOptions()
	opts.ShowRoot = false
	v, err := New(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	a := testutil.Find(root, "A")
	v.Select(a)

	if err := a.SetHidden(true); err != nil {
		t.Fatal(err)
	}
	if v.Len() != 0 {
		t.Fatalf("rows = %v, want none", rows(v))
	}
	if got := v.SelectedItems(); len(got) != 0 {
		t.Errorf("selection = %v, want empty", testutil.Texts(got))
	}
	if a.IsSelected() {
		t.Error("hidden node is still selected")
	}
	if v.CanDelete() {
		t.Error("CanDelete with nothing visible")
	}
	if err := v.Delete(); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("Delete error = %v", err)
	}
	if a.Parent() != root {
		t.Error("hidden node was deleted")
	}
}
