package datasource

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treelist/pkg/tree"
)

// Outline is one entry of an outline file. YAML and JSON files share the
// same shape:
//
//	text: Groceries
//	expanded: true
//	children:
//	  - text: Milk
//	    checkable: true
//	    checked: true
type Outline struct {
	Text      string     `yaml:"text" json:"text"`
	Note      string     `yaml:"note,omitempty" json:"note,omitempty"`
	Hidden    bool       `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Expanded  bool       `yaml:"expanded,omitempty" json:"expanded,omitempty"`
	Checkable bool       `yaml:"checkable,omitempty" json:"checkable,omitempty"`
	Checked   bool       `yaml:"checked,omitempty" json:"checked,omitempty"`
	Children  []*Outline `yaml:"children,omitempty" json:"children,omitempty"`
}

// Clone returns a deep copy of o.
func (o *Outline) Clone() *Outline {
	c := *o
	c.Children = make([]*Outline, len(o.Children))
	for i, child := range o.Children {
		c.Children[i] = child.Clone()
	}
	if len(c.Children) == 0 {
		c.Children = nil
	}
	return &c
}

// Format is the encoding of an outline file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor infers the format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// ParseOutline decodes an outline document.
func ParseOutline(data []byte, format Format) (*Outline, error) {
	var root Outline
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse yaml outline: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &root); err != nil {
			return nil, fmt.Errorf("parse json outline: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown outline format %q", format)
	}
	if root.Text == "" && len(root.Children) == 0 {
		return nil, fmt.Errorf("outline has no text and no children")
	}
	return &root, nil
}

// EncodeOutline encodes o in format.
func EncodeOutline(o *Outline, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(o); err != nil {
			return nil, fmt.Errorf("encode yaml outline: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json outline: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown outline format %q", format)
}

// Document is an outline file opened for editing.
type Document struct {
	Path   string
	Format Format
	dirty  bool
}

// Dirty reports whether the tree was changed since loading or saving.
func (d *Document) Dirty() bool { return d.dirty }

func (d *Document) touch() {
	if d != nil {
		d.dirty = true
	}
}

// LoadOutlineFile reads an outline file and builds its tree.
func LoadOutlineFile(path string) (*Document, *tree.Node, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, nil, fmt.Errorf("%s: not an outline file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	o, err := ParseOutline(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	doc := &Document{Path: path, Format: format}
	root := BuildOutline(o, doc)
	return doc, root, nil
}

// Save writes the tree below root back to the document's file.
func (d *Document) Save(root *tree.Node) error {
	o, ok := Snapshot(root)
	if !ok {
		return fmt.Errorf("%s: root is not an outline node", d.Path)
	}
	data, err := EncodeOutline(o, d.Format)
	if err != nil {
		return err
	}
	tmp := d.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, d.Path); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

// OutlineNode is the kind of nodes built from an outline. Children of
// collapsed entries are materialized on first expansion.
type OutlineNode struct {
	entry *Outline
	doc   *Document
}

// BuildOutline creates the node for o. Expanded entries get their children
// immediately, the rest load lazily.
func BuildOutline(o *Outline, doc *Document) *tree.Node {
	k := &OutlineNode{entry: o, doc: doc}
	n := tree.New(k)
	_ = n.SetHidden(o.Hidden)
	if o.Checkable && o.Checked {
		_ = n.SetChecked(tree.Checked)
	}
	if len(o.Children) > 0 {
		if o.Expanded {
			_ = k.LoadChildren(n)
			_ = n.SetExpanded(true)
		} else {
			_ = n.SetLazyLoading(true)
		}
	}
	n.Subscribe(func(_ *tree.Node, p tree.Property) {
		if p == tree.PropChecked || p == tree.PropHidden {
			doc.touch()
		}
	})
	return n
}

// Entry returns the outline entry as loaded. It does not reflect changes
// made in the tree; use Snapshot for that.
func (k *OutlineNode) Entry() *Outline { return k.entry }

func (k *OutlineNode) Text() string { return k.entry.Text }

// Note returns the entry's markdown note.
func (k *OutlineNode) Note() string { return k.entry.Note }

// LoadChildren materializes the children of the entry.
func (k *OutlineNode) LoadChildren(n *tree.Node) error {
	nodes := make([]*tree.Node, 0, len(k.entry.Children))
	for _, c := range k.entry.Children {
		nodes = append(nodes, BuildOutline(c, k.doc))
	}
	return n.Children().AddRange(nodes)
}

func (k *OutlineNode) IsCheckable(*tree.Node) bool { return k.entry.Checkable }

func (k *OutlineNode) LoadEditText(*tree.Node) string { return k.entry.Text }

func (k *OutlineNode) SaveEditText(n *tree.Node, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if text != k.entry.Text {
		k.entry.Text = text
		k.doc.touch()
	}
	return true
}

// CanDelete allows deleting everything but the document root.
func (k *OutlineNode) CanDelete(n *tree.Node) bool { return n.Parent() != nil }

func (k *OutlineNode) Delete(n *tree.Node) error {
	if err := n.Detach(); err != nil {
		return err
	}
	k.doc.touch()
	return nil
}

// Copy snapshots nodes as outline entries.
func (k *OutlineNode) Copy(nodes []*tree.Node) (tree.Payload, error) {
	out := make([]*Outline, 0, len(nodes))
	for _, n := range nodes {
		if o, ok := Snapshot(n); ok {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("copy: no outline nodes selected")
	}
	return out, nil
}

// CanDrag reports whether nodes are all outline nodes.
func (k *OutlineNode) CanDrag(nodes []*tree.Node) bool {
	for _, n := range nodes {
		if _, ok := n.Kind().(*OutlineNode); !ok {
			return false
		}
	}
	return len(nodes) > 0
}

func (k *OutlineNode) CanDrop(_ *tree.Node, _ int, p tree.Payload) bool {
	entries, ok := p.([]*Outline)
	return ok && len(entries) > 0
}

// Drop inserts copies of the dropped entries at index.
func (k *OutlineNode) Drop(n *tree.Node, index int, p tree.Payload) error {
	entries, ok := p.([]*Outline)
	if !ok {
		return fmt.Errorf("drop %T on outline: %w", p, tree.ErrUnsupportedOperation)
	}
	nodes := make([]*tree.Node, len(entries))
	for i, e := range entries {
		nodes[i] = BuildOutline(e.Clone(), k.doc)
	}
	if err := n.Children().InsertRange(index, nodes); err != nil {
		return err
	}
	k.doc.touch()
	return nil
}

func (k *OutlineNode) OnExpanding(*tree.Node) {
	if !k.entry.Expanded {
		k.entry.Expanded = true
		k.doc.touch()
	}
}

func (k *OutlineNode) OnCollapsing(*tree.Node) {
	if k.entry.Expanded {
		k.entry.Expanded = false
		k.doc.touch()
	}
}

// Snapshot converts the subtree of n back into outline entries, taking
// hidden, expanded and checked state from the tree. Children that were
// never loaded are copied from the original entries.
func Snapshot(n *tree.Node) (*Outline, bool) {
	k, ok := n.Kind().(*OutlineNode)
	if !ok {
		return nil, false
	}
	o := &Outline{
		Text:      k.entry.Text,
		Note:      k.entry.Note,
		Hidden:    n.IsHidden(),
		Expanded:  n.IsExpanded(),
		Checkable: k.entry.Checkable,
		Checked:   k.entry.Checkable && n.CheckState() == tree.Checked,
	}
	if n.IsLazyLoading() {
		for _, c := range k.entry.Children {
			o.Children = append(o.Children, c.Clone())
		}
		return o, true
	}
	for _, c := range n.Children().All() {
		if co, ok := Snapshot(c); ok {
			o.Children = append(o.Children, co)
		}
	}
	return o, true
}
