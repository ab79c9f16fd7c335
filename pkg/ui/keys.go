package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap lists the bindings of the tree model. Single printable keys only
// fire while no type ahead search is in progress; otherwise they extend the
// search prefix.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Home         key.Binding
	End          key.Binding
	Left         key.Binding
	Right        key.Binding
	Expand       key.Binding
	Collapse     key.Binding
	ExpandAll    key.Binding
	ToggleCheck  key.Binding
	ToggleSelect key.Binding
	Activate     key.Binding
	Edit         key.Binding
	Delete       key.Binding
	Copy         key.Binding
	Paste        key.Binding
	ToggleHidden key.Binding
	RevealHidden key.Binding
	ToggleDetail key.Binding
	DetailDown   key.Binding
	DetailUp     key.Binding
	Save         key.Binding
	Backspace    key.Binding
	ClearSearch  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Home:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		End:          key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse/parent")),
		Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand/child")),
		Expand:       key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "expand")),
		Collapse:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "collapse")),
		ExpandAll:    key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "expand all")),
		ToggleCheck:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check")),
		ToggleSelect: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select")),
		Activate:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Edit:         key.NewBinding(key.WithKeys("f2", "e"), key.WithHelp("F2/e", "rename")),
		Delete:       key.NewBinding(key.WithKeys("delete", "x"), key.WithHelp("del/x", "delete")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Paste:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paste")),
		ToggleHidden: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "hide")),
		RevealHidden: key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "show hidden")),
		ToggleDetail: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "details")),
		DetailDown:   key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "scroll note down")),
		DetailUp:     key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "scroll note up")),
		Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Backspace:    key.NewBinding(key.WithKeys("backspace"), key.WithHelp("bksp", "search back")),
		ClearSearch:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Right, k.ToggleCheck, k.Edit, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Left, k.Right, k.Expand, k.Collapse, k.ExpandAll, k.Activate},
		{k.ToggleCheck, k.ToggleSelect, k.Edit, k.Delete, k.Copy, k.Paste},
		{k.ToggleHidden, k.RevealHidden, k.ToggleDetail, k.DetailDown, k.DetailUp, k.Save, k.Backspace, k.ClearSearch, k.Quit},
	}
}

// isPrintable reports whether the key carries plain typed text.
func isPrintable(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyRunes && !msg.Alt && !msg.Paste && len(msg.Runes) > 0
}
