package tree_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/vanderheijden86/treelist/pkg/testutil"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// folder is a kind exercising every optional capability.
type folder struct {
	name    string
	loads   int
	loadErr error
	log     *[]string
	dropped []string
}

func (f *folder) Text() string { return f.name }

func (f *folder) LoadChildren(n *tree.Node) error {
	f.loads++
	if f.loadErr != nil {
		return f.loadErr
	}
	return n.Children().AddRange([]*tree.Node{testutil.N(f.name + "/a"), testutil.N(f.name + "/b")})
}

func (f *folder) LoadEditText(*tree.Node) string { return f.name }

func (f *folder) SaveEditText(_ *tree.Node, text string) bool {
	if text == "" {
		return false
	}
	f.name = text
	return true
}

func (f *folder) CanDelete(*tree.Node) bool { return true }

func (f *folder) Delete(n *tree.Node) error { return n.Detach() }

func (f *folder) Copy(nodes []*tree.Node) (tree.Payload, error) {
	return testutil.Texts(nodes), nil
}

func (f *folder) CanDrag(nodes []*tree.Node) bool { return len(nodes) > 0 }

func (f *folder) CanDrop(_ *tree.Node, _ int, p tree.Payload) bool {
	_, ok := p.([]string)
	return ok
}

func (f *folder) Drop(n *tree.Node, index int, p tree.Payload) error {
	for i, text := range p.([]string) {
		if err := n.InsertChild(index+i, testutil.N(text)); err != nil {
			return err
		}
		f.dropped = append(f.dropped, fmt.Sprintf("%s@%d", text, index+i))
	}
	return nil
}

func (f *folder) OnExpanding(n *tree.Node) {
	if f.log != nil {
		*f.log = append(*f.log, fmt.Sprintf("expanding %s expanded=%v", n.Text(), n.IsExpanded()))
	}
}

func (f *folder) OnCollapsing(n *tree.Node) {
	if f.log != nil {
		*f.log = append(*f.log, fmt.Sprintf("collapsing %s expanded=%v", n.Text(), n.IsExpanded()))
	}
}

func (f *folder) Activate(n *tree.Node) {
	if f.log != nil {
		*f.log = append(*f.log, "activate "+n.Text())
	}
}

func lazyFolder(name string) (*tree.Node, *folder) {
	k := &folder{name: name}
	n := tree.New(k)
	if err := n.SetLazyLoading(true); err != nil {
		panic(err)
	}
	return n, k
}

func TestLazyExpandLoadsOnceInOneBatch(t *testing.T) {
	dir, k := lazyFolder("dir")
	root := testutil.Expanded(testutil.N("root", testutil.N("first"), dir))
	f := tree.NewFlattener(root, false)
	m := testutil.NewMirror(f)

	if !dir.ShowExpander() || dir.CanExpandRecursively() {
		t.Fatal("lazy node should show an expander and refuse recursive expansion")
	}
	if err := dir.SetExpanded(true); err != nil {
		t.Fatal(err)
	}
	wantBatches(t, m, "insert [dir/a dir/b] at 2")
	if dir.IsLazyLoading() {
		t.Error("lazy flag not cleared")
	}

	_ = dir.SetExpanded(false)
	_ = dir.SetExpanded(true)
	if k.loads != 1 {
		t.Errorf("loaded %d times, want 1", k.loads)
	}
	testutil.AssertMirrorMatches(t, m, f)
}

func TestLazyLoadFailure(t *testing.T) {
	boom := errors.New("boom")
	dir, k := lazyFolder("dir")
	k.loadErr = boom

	err := dir.SetExpanded(true)
	if !errors.Is(err, boom) {
		t.Fatalf("SetExpanded error = %v, want boom", err)
	}
	if dir.IsExpanded() {
		t.Error("node expanded after failed load")
	}
}

func TestLazyLoadUnsupported(t *testing.T) {
	n := testutil.N("plain")
	if err := n.SetLazyLoading(true); err != nil {
		t.Fatal(err)
	}
	err := n.SetExpanded(true)
	if !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Fatalf("SetExpanded error = %v, want ErrUnsupportedOperation", err)
	}
	if n.IsExpanded() || !n.IsLazyLoading() {
		t.Error("failed lazy expansion changed state")
	}
}

func TestSetLazyLoadingCollapses(t *testing.T) {
	n := testutil.Expanded(testutil.N("n", testutil.N("c")))
	_ = n.SetLazyLoading(true)
	if n.IsExpanded() {
		t.Error("SetLazyLoading(true) left the node expanded")
	}
}

func TestExpandHooksRunBeforeFlagFlips(t *testing.T) {
	var log []string
	k := &folder{name: "f", log: &log}
	n := tree.New(k)
	_ = n.AddChild(testutil.N("c"))

	_ = n.SetExpanded(true)
	_ = n.SetExpanded(false)
	want := []string{"expanding f expanded=false", "collapsing f expanded=true"}
	if !slices.Equal(log, want) {
		t.Errorf("hook log = %v, want %v", log, want)
	}
}

func TestUnsupportedCapabilities(t *testing.T) {
	n := testutil.N("plain")
	if n.CanDelete() || n.CanCopy() || n.CanDrag([]*tree.Node{n}) || n.CanDrop(0, []string{"x"}) {
		t.Error("plain label claims a capability")
	}
	if n.IsEditable() || n.IsCheckable() {
		t.Error("plain label claims to be editable or checkable")
	}
	if err := n.Delete(); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("Delete: %v", err)
	}
	if _, err := n.Copy([]*tree.Node{n}); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("Copy: %v", err)
	}
	if err := n.Drop(0, nil); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("Drop: %v", err)
	}
	if _, err := n.BeginEdit(); !errors.Is(err, tree.ErrUnsupportedOperation) {
		t.Errorf("BeginEdit: %v", err)
	}
	n.Activate() // no-op
}

func TestDeleteAndCopy(t *testing.T) {
	k := &folder{name: "f"}
	n := tree.New(k)
	parent := testutil.N("p", n, testutil.N("q"))

	p, err := n.Copy([]*tree.Node{n, testutil.Find(parent, "q")})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.([]string); !slices.Equal(got, []string{"f", "q"}) {
		t.Errorf("payload = %v", got)
	}
	if !n.CanDelete() {
		t.Fatal("CanDelete disagrees with Delete")
	}
	if err := n.Delete(); err != nil {
		t.Fatal(err)
	}
	if parent.Children().Contains(n) {
		t.Error("deleted node still attached")
	}
}

func TestDropClampsIndex(t *testing.T) {
	k := &folder{name: "f"}
	n := tree.New(k)
	_ = n.AddChild(testutil.N("existing"))

	if !n.CanDrop(99, []string{"x"}) {
		t.Fatal("CanDrop rejected a valid payload")
	}
	if err := n.Drop(99, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if err := n.Drop(-5, []string{"y"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"x@1", "y@0"}
	if !slices.Equal(k.dropped, want) {
		t.Errorf("drops = %v, want %v", k.dropped, want)
	}
}

func TestDropIntoLazyNodeLoadsFirst(t *testing.T) {
	dir, k := lazyFolder("dir")
	if err := dir.Drop(0, []string{"new"}); err != nil {
		t.Fatal(err)
	}
	got := testutil.Texts(dir.Children().All())
	if !slices.Equal(got, []string{"dir/a", "dir/b", "new"}) {
		t.Errorf("children = %v", got)
	}
	if k.loads != 1 {
		t.Errorf("loads = %d", k.loads)
	}
}

func TestEditLifecycle(t *testing.T) {
	k := &folder{name: "old"}
	n := tree.New(k)
	var props []tree.Property
	n.Subscribe(func(_ *tree.Node, p tree.Property) { props = append(props, p) })

	text, err := n.BeginEdit()
	if err != nil || text != "old" || !n.IsEditing() {
		t.Fatalf("BeginEdit = %q, %v (editing=%v)", text, err, n.IsEditing())
	}
	saved, err := n.CommitEdit("new")
	if err != nil || !saved {
		t.Fatalf("CommitEdit = %v, %v", saved, err)
	}
	if n.Text() != "new" || n.IsEditing() {
		t.Errorf("after commit text=%q editing=%v", n.Text(), n.IsEditing())
	}
	want := []tree.Property{tree.PropEditing, tree.PropEditing, tree.PropText}
	if !slices.Equal(props, want) {
		t.Errorf("properties = %v, want %v", props, want)
	}

	// A commit without an open edit does nothing.
	if saved, _ := n.CommitEdit("again"); saved || n.Text() != "new" {
		t.Error("commit outside edit mode was applied")
	}

	_, _ = n.BeginEdit()
	n.CancelEdit()
	if n.IsEditing() || n.Text() != "new" {
		t.Error("cancel changed the text or left edit mode open")
	}

	_, _ = n.BeginEdit()
	if saved, _ := n.CommitEdit(""); saved {
		t.Error("kind rejection reported as saved")
	}
}

func TestActivateForwardsToKind(t *testing.T) {
	var log []string
	n := tree.New(&folder{name: "f", log: &log})
	n.Activate()
	if !slices.Equal(log, []string{"activate f"}) {
		t.Errorf("log = %v", log)
	}
}

func TestSubscribeCancel(t *testing.T) {
	n := testutil.N("n")
	var count int
	cancel := n.Subscribe(func(*tree.Node, tree.Property) { count++ })
	n.SetSelected(true)
	cancel()
	cancel()
	n.SetSelected(false)
	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
}
