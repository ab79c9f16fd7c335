package datasource

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vanderheijden86/treelist/pkg/testutil"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

const groceriesYAML = `text: Groceries
expanded: true
children:
  - text: Dairy
    note: "keep **cold**"
    children:
      - text: Milk
        checkable: true
        checked: true
      - text: Butter
        checkable: true
  - text: Secret
    hidden: true
`

const groceriesJSON = `{
  "text": "Groceries",
  "expanded": true,
  "children": [
    {"text": "Dairy", "note": "keep **cold**", "children": [
      {"text": "Milk", "checkable": true, "checked": true},
      {"text": "Butter", "checkable": true}
    ]},
    {"text": "Secret", "hidden": true}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestParseOutlineFormatsAgree checks YAML and JSON decode to the same outline.
func TestParseOutlineFormatsAgree(t *testing.T) {
	y, err := ParseOutline([]byte(groceriesYAML), FormatYAML)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	j, err := ParseOutline([]byte(groceriesJSON), FormatJSON)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !reflect.DeepEqual(y, j) {
		t.Errorf("yaml and json outlines differ:\n%+v\n%+v", y, j)
	}
	if got := y.Children[0].Children[0]; !got.Checkable || !got.Checked {
		t.Errorf("Milk = %+v, want checkable and checked", got)
	}
}

// TestParseOutlineErrors covers malformed and empty documents.
func TestParseOutlineErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"bad yaml", "text: [unclosed", FormatYAML},
		{"bad json", `{"text": `, FormatJSON},
		{"empty", "{}", FormatJSON},
		{"unknown format", "text: a", Format("toml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOutline([]byte(tt.data), tt.format); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestFormatFor maps extensions to formats.
func TestFormatFor(t *testing.T) {
	tests := map[string]Format{"a.yaml": FormatYAML, "b.YML": FormatYAML, "c.json": FormatJSON}
	for path, want := range tests {
		if got, ok := FormatFor(path); !ok || got != want {
			t.Errorf("FormatFor(%q) = %q, %v", path, got, ok)
		}
	}
	if _, ok := FormatFor("notes.txt"); ok {
		t.Error("txt should not be an outline")
	}
}

// TestBuildOutlineLoadsCollapsedChildrenLazily checks materialization on expand.
func TestBuildOutlineLoadsCollapsedChildrenLazily(t *testing.T) {
	o, err := ParseOutline([]byte(groceriesYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	doc := &Document{Format: FormatYAML}
	root := BuildOutline(o, doc)

	f := tree.NewFlattener(root, true)
	testutil.AssertSequence(t, f, "Groceries", "Dairy")

	dairy := testutil.Find(root, "Dairy")
	if !dairy.IsLazyLoading() || dairy.Children().Len() != 0 {
		t.Fatalf("Dairy should be lazy and empty before expanding")
	}
	if !testutil.Find(root, "Secret").IsHidden() {
		t.Error("Secret should be hidden")
	}
	if doc.Dirty() {
		t.Error("building must not dirty the document")
	}

	if err := dairy.SetExpanded(true); err != nil {
		t.Fatal(err)
	}
	testutil.AssertSequence(t, f, "Groceries", "Dairy", "Milk", "Butter")
	if got := testutil.Find(root, "Milk").CheckState(); got != tree.Checked {
		t.Errorf("Milk = %v, want checked", got)
	}
	if !doc.Dirty() {
		t.Error("expanding should dirty the document")
	}
	if note := dairy.Kind().(*OutlineNode).Note(); note != "keep **cold**" {
		t.Errorf("note = %q", note)
	}
}

// TestSnapshotReflectsTreeState checks hidden, expanded and checked come from the tree.
func TestSnapshotReflectsTreeState(t *testing.T) {
	o, _ := ParseOutline([]byte(groceriesYAML), FormatYAML)
	root := BuildOutline(o, &Document{})

	// Children of a never-loaded node are copied from the entry.
	snap, ok := Snapshot(root)
	if !ok {
		t.Fatal("root is an outline node")
	}
	if got := len(snap.Children[0].Children); got != 2 {
		t.Fatalf("unloaded Dairy children = %d, want 2", got)
	}

	dairy := testutil.Find(root, "Dairy")
	_ = dairy.SetExpanded(true)
	_ = testutil.Find(root, "Butter").SetChecked(tree.Checked)
	_ = testutil.Find(root, "Secret").SetHidden(false)

	snap, _ = Snapshot(root)
	if !snap.Children[0].Expanded {
		t.Error("Dairy should be saved expanded")
	}
	if !snap.Children[0].Children[1].Checked {
		t.Error("Butter should be saved checked")
	}
	if snap.Children[1].Hidden {
		t.Error("Secret should be saved visible")
	}

	if _, ok := Snapshot(tree.New(tree.Label("x"))); ok {
		t.Error("labels cannot be snapshotted")
	}
}

// TestDocumentSaveRoundTrip edits an outline file and reads it back.
func TestDocumentSaveRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			content := groceriesYAML
			if format == FormatJSON {
				content = groceriesJSON
			}
			path := writeFile(t, dir, "list."+string(format), content)

			doc, root, err := LoadOutlineFile(path)
			if err != nil {
				t.Fatal(err)
			}
			dairy := testutil.Find(root, "Dairy")
			if _, err := dairy.BeginEdit(); err != nil {
				t.Fatal(err)
			}
			if ok, err := dairy.CommitEdit("  Fridge "); !ok || err != nil {
				t.Fatalf("CommitEdit = %v, %v", ok, err)
			}
			if !doc.Dirty() {
				t.Fatal("edit should dirty the document")
			}
			if err := doc.Save(root); err != nil {
				t.Fatal(err)
			}
			if doc.Dirty() {
				t.Error("save should clear dirty")
			}

			_, again, err := LoadOutlineFile(path)
			if err != nil {
				t.Fatal(err)
			}
			fridge := testutil.Find(again, "Fridge")
			if fridge == nil {
				t.Fatal("renamed entry not found after reload")
			}
			if err := fridge.SetExpanded(true); err != nil {
				t.Fatal(err)
			}
			if testutil.Find(again, "Milk") == nil {
				t.Error("unloaded children must survive a save")
			}
		})
	}
}

// TestOutlineEditRejectsBlank keeps the old text for blank edits.
func TestOutlineEditRejectsBlank(t *testing.T) {
	n := BuildOutline(&Outline{Text: "a"}, &Document{})
	_, _ = n.BeginEdit()
	if ok, _ := n.CommitEdit("   "); ok {
		t.Error("blank text accepted")
	}
	if n.Text() != "a" {
		t.Errorf("text = %q", n.Text())
	}
}

// TestOutlineDeleteAndCheckDirtyTheDocument checks the document tracks changes.
func TestOutlineDeleteAndCheckDirtyTheDocument(t *testing.T) {
	doc := &Document{}
	root := BuildOutline(&Outline{Text: "r", Expanded: true, Children: []*Outline{
		{Text: "a", Checkable: true}, {Text: "b"},
	}}, doc)

	if root.CanDelete() {
		t.Error("document root must not be deletable")
	}
	_ = testutil.Find(root, "a").SetChecked(tree.Checked)
	if !doc.Dirty() {
		t.Error("check should dirty the document")
	}
	doc.dirty = false

	b := testutil.Find(root, "b")
	if err := b.Delete(); err != nil {
		t.Fatal(err)
	}
	if b.Parent() != nil || !doc.Dirty() {
		t.Error("delete should detach and dirty")
	}
}

// TestOutlineCopyDrop copies a subtree and drops it elsewhere as a new copy.
func TestOutlineCopyDrop(t *testing.T) {
	o, _ := ParseOutline([]byte(groceriesYAML), FormatYAML)
	root := BuildOutline(o, &Document{})
	dairy := testutil.Find(root, "Dairy")

	p, err := dairy.Copy([]*tree.Node{dairy})
	if err != nil {
		t.Fatal(err)
	}
	if !root.CanDrop(0, p) {
		t.Fatal("outline payload should be droppable")
	}
	if root.CanDrop(0, []string{"x"}) {
		t.Error("foreign payloads must be rejected")
	}
	if err := root.Drop(0, p); err != nil {
		t.Fatal(err)
	}
	if got := testutil.Texts(root.Children().All()); !reflect.DeepEqual(got, []string{"Dairy", "Dairy", "Secret"}) {
		t.Errorf("children = %v", got)
	}

	first, _ := root.Children().At(0)
	first.Kind().(*OutlineNode).Entry().Text = "changed"
	if dairy.Kind().(*OutlineNode).Entry().Text != "Dairy" {
		t.Error("dropped copy shares its entry with the source")
	}
}
