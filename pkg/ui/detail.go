package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// Noter is implemented by node kinds that carry a markdown note.
type Noter interface {
	Note() string
}

// NoteOf returns the note of n's kind, or "".
func NoteOf(n *tree.Node) string {
	if n == nil {
		return ""
	}
	if k, ok := n.Kind().(Noter); ok {
		return k.Note()
	}
	return ""
}

// detailPane shows the focused node's note rendered as markdown.
type detailPane struct {
	vp         viewport.Model
	mdRenderer *glamour.TermRenderer
	wrap       int

	node *tree.Node
	note string
}

func newDetailPane() *detailPane {
	return &detailPane{vp: viewport.New(40, 20)}
}

// SetSize resizes the pane including its border.
func (d *detailPane) SetSize(width, height int) {
	innerW, innerH := max(1, width-2), max(1, height-2)
	d.vp.Width = innerW
	d.vp.Height = innerH
	if wrap := max(20, innerW-2); wrap != d.wrap {
		d.wrap = wrap
		d.mdRenderer = nil
		d.node = nil
	}
}

// Show renders the note of n unless it is already displayed.
func (d *detailPane) Show(n *tree.Node) {
	note := NoteOf(n)
	if n == d.node && note == d.note {
		return
	}
	d.node, d.note = n, note
	d.vp.SetContent(d.render(n, note))
	d.vp.GotoTop()
}

func (d *detailPane) render(n *tree.Node, note string) string {
	if n == nil {
		return ""
	}
	if strings.TrimSpace(note) == "" {
		note = "# " + n.Text() + "\n\n_No notes._"
	}
	if d.mdRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(d.wrap),
		)
		if err != nil {
			debug.Log("ui: markdown renderer: %v", err)
			return note
		}
		d.mdRenderer = r
	}
	out, err := d.mdRenderer.Render(note)
	if err != nil {
		debug.Log("ui: render note of %q: %v", n.Text(), err)
		return note
	}
	return out
}

// Scroll moves the note by delta lines.
func (d *detailPane) Scroll(delta int) {
	if delta > 0 {
		d.vp.ScrollDown(delta)
	} else {
		d.vp.ScrollUp(-delta)
	}
}

// View renders the pane inside a rounded panel.
func (d *detailPane) View() string {
	return PanelStyle.Width(d.vp.Width).Height(d.vp.Height).Render(d.vp.View())
}
