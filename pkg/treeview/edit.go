package treeview

import (
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// BeginEdit opens the in-place editor on n and returns the text to edit.
func (v *View) BeginEdit(n *tree.Node) (string, error) {
	text, err := n.BeginEdit()
	if err != nil {
		return "", err
	}
	v.search.Reset()
	return text, nil
}

// CommitEdit stores text through the node's kind and closes the editor.
func (v *View) CommitEdit(n *tree.Node, text string) (bool, error) {
	return n.CommitEdit(text)
}

// CancelEdit closes the editor without saving.
func (v *View) CancelEdit(n *tree.Node) {
	n.CancelEdit()
}

// Editing returns the node with an open editor, if it is selected.
func (v *View) Editing() *tree.Node {
	for _, n := range v.selection {
		if n.IsEditing() {
			return n
		}
	}
	return nil
}
