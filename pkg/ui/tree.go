package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/metrics"
	"github.com/vanderheijden86/treelist/pkg/tree"
	"github.com/vanderheijden86/treelist/pkg/treeview"
	"github.com/vanderheijden86/treelist/pkg/watcher"
)

var errNothingCopied = errors.New("nothing copied")

// Options configures a TreeModel.
type Options struct {
	// Title is shown in the header; the root text is used when empty.
	Title         string
	ShowLines     bool
	DetailPane    bool
	SplitRatio    float64
	ConfirmDelete bool

	// Save persists modified documents. Nil disables the save key.
	Save func() error
	// Dirty reports unsaved modifications for the header marker.
	Dirty func() bool

	// Watcher delivers directory change notifications. ReloadDirs reloads
	// the directory nodes of the changed paths and LoadedDirs lists the
	// directories that should be watched.
	Watcher    *watcher.Watcher
	ReloadDirs func(paths []string) error
	LoadedDirs func() []string

	// Clipboard replaces clipboard.WriteAll.
	Clipboard func(string) error
}

// rows mirrors the flattened sequence of the view from its batches.
type rows struct {
	items []*tree.Node
}

func (r *rows) OnInserted(index int, nodes []*tree.Node) {
	r.items = slices.Insert(r.items, index, nodes...)
}

func (r *rows) OnRemoved(index int, nodes []*tree.Node) {
	r.items = slices.Delete(r.items, index, index+len(nodes))
}

func (r *rows) OnReset(items []*tree.Node) {
	r.items = slices.Clone(items)
}

// TreeModel renders a treeview.View in the terminal and maps keys onto its
// intents. The cursor is the primary selection except in marking mode, where
// it moves on its own and v toggles rows in and out of the selection.
type TreeModel struct {
	view   *treeview.View
	rows   *rows
	cancel func()
	opts   Options
	theme  Theme
	keys   KeyMap
	help   help.Model

	width          int
	height         int
	cursor         int
	viewportOffset int
	marking        bool

	detail     *detailPane
	showDetail bool

	editing   *tree.Node
	editInput textinput.Model

	confirm    *huh.Form
	confirmYes *bool

	copied   tree.Payload
	revealed map[*tree.Node]bool

	statusMsg     string
	statusIsError bool
	searchTicking bool
}

// NewTreeModel subscribes a model to v.
func NewTreeModel(v *treeview.View, theme Theme, opts Options) *TreeModel {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.SplitRatio <= 0 || opts.SplitRatio >= 1 {
		opts.SplitRatio = 0.6
	}
	m := &TreeModel{
		view:       v,
		rows:       &rows{},
		opts:       opts,
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		detail:     newDetailPane(),
		showDetail: opts.DetailPane,
	}
	m.cancel = v.Subscribe(m.rows)
	m.SetSize(80, 24)
	m.syncScroll()
	return m
}

// Close unsubscribes the model from its view.
func (m *TreeModel) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Rows returns the mirrored rows.
func (m *TreeModel) Rows() []*tree.Node { return m.rows.items }

// Cursor returns the cursor row.
func (m *TreeModel) Cursor() int { return m.cursor }

// Marking reports whether marking mode is on.
func (m *TreeModel) Marking() bool { return m.marking }

// Status returns the status line and whether it reports an error.
func (m *TreeModel) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// Editing returns the node with an open inline editor, or nil.
func (m *TreeModel) Editing() *tree.Node { return m.editing }

// Confirming reports whether the delete confirmation is open.
func (m *TreeModel) Confirming() bool { return m.confirm != nil }

// Init starts watching for directory changes.
func (m *TreeModel) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchDirsCmd(m.opts.Watcher)
	}
	return nil
}

// Update handles a message.
func (m *TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.SetSize(size.Width, size.Height)
	}
	if m.confirm != nil {
		return m, m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case searchTickMsg:
		return m, m.onSearchTick()
	case deferredMsg:
		if m.view.RunDeferred() {
			m.syncScroll()
		}
		return m, nil
	case DirsChangedMsg:
		return m, m.onDirsChanged()
	case tea.KeyMsg:
		if m.editing != nil {
			return m, m.updateEdit(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.editing != nil {
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *TreeModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.view.SearchActive() && isPrintable(msg) {
		return m.typeText(string(msg.Runes))
	}

	var (
		cmd tea.Cmd
		err error
	)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.halfPage())
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.halfPage())
	case key.Matches(msg, m.keys.Home):
		m.moveTo(0)
	case key.Matches(msg, m.keys.End):
		m.moveTo(len(m.rows.items) - 1)
	case key.Matches(msg, m.keys.Left):
		m.endMarking()
		err = m.view.Left()
	case key.Matches(msg, m.keys.Right):
		m.endMarking()
		err = m.view.Right()
		cmd = m.afterLoad()
	case key.Matches(msg, m.keys.Expand):
		m.endMarking()
		err = m.view.Expand()
		cmd = m.afterLoad()
	case key.Matches(msg, m.keys.Collapse):
		m.endMarking()
		err = m.view.Collapse()
	case key.Matches(msg, m.keys.ExpandAll):
		m.endMarking()
		err = m.view.ExpandAll()
		cmd = m.afterLoad()
	case key.Matches(msg, m.keys.ToggleCheck):
		err = m.toggleCheck()
	case key.Matches(msg, m.keys.ToggleSelect):
		m.toggleMark()
	case key.Matches(msg, m.keys.Activate):
		m.endMarking()
		err = m.activate()
		cmd = m.afterLoad()
	case key.Matches(msg, m.keys.Edit):
		m.endMarking()
		cmd, err = m.beginEdit()
	case key.Matches(msg, m.keys.Delete):
		cmd = m.requestDelete()
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Paste):
		m.endMarking()
		err = m.paste()
		cmd = m.afterLoad()
	case key.Matches(msg, m.keys.ToggleHidden):
		m.endMarking()
		err = m.toggleHidden()
	case key.Matches(msg, m.keys.RevealHidden):
		err = m.toggleReveal()
	case key.Matches(msg, m.keys.ToggleDetail):
		m.showDetail = !m.showDetail
		m.SetSize(m.width, m.height)
	case key.Matches(msg, m.keys.DetailDown):
		m.detail.Scroll(1)
	case key.Matches(msg, m.keys.DetailUp):
		m.detail.Scroll(-1)
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.Backspace):
		m.view.Backspace()
	case key.Matches(msg, m.keys.ClearSearch):
		m.view.ClearSearch()
		m.endMarking()
		m.clearStatus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.SetSize(m.width, m.height)
	default:
		if isPrintable(msg) {
			return m.typeText(string(msg.Runes))
		}
		return nil
	}

	if err != nil {
		m.setStatus(err.Error(), true)
	}
	m.syncScroll()
	return cmd
}

// afterLoad keeps the watched directories in step with lazily loaded nodes
// and schedules the view's deferred scroll.
func (m *TreeModel) afterLoad() tea.Cmd {
	if m.opts.Watcher != nil && m.opts.LoadedDirs != nil {
		m.opts.Watcher.Sync(m.opts.LoadedDirs())
	}
	return deferredCmd()
}

func (m *TreeModel) typeText(s string) tea.Cmd {
	m.endMarking()
	if !m.view.TypeText(s) {
		m.setStatus(fmt.Sprintf("No match for %q", m.view.SearchPrefix()+s), false)
	} else {
		m.clearStatus()
	}
	m.syncScroll()
	if m.searchTicking {
		return nil
	}
	m.searchTicking = true
	return searchTickCmd()
}

func (m *TreeModel) onSearchTick() tea.Cmd {
	m.view.ExpireSearch(m.now())
	if m.view.SearchActive() {
		return searchTickCmd()
	}
	m.searchTicking = false
	return nil
}

func (m *TreeModel) now() time.Time {
	if clock := m.view.Options().Clock; clock != nil {
		return clock()
	}
	return time.Now()
}

func (m *TreeModel) onDirsChanged() tea.Cmd {
	w := m.opts.Watcher
	if w == nil {
		return nil
	}
	paths := w.Drain()
	if len(paths) > 0 && m.opts.ReloadDirs != nil {
		debug.Log("ui: reloading %d changed dirs", len(paths))
		if err := m.opts.ReloadDirs(paths); err != nil {
			m.setStatus(fmt.Sprintf("Reload failed: %v", err), true)
		}
		if m.opts.LoadedDirs != nil {
			w.Sync(m.opts.LoadedDirs())
		}
	}
	m.syncScroll()
	return WatchDirsCmd(w)
}

// ── Cursor and scrolling ─────────────────────────────────────────────────────

func (m *TreeModel) move(delta int) {
	if m.marking {
		m.cursor = m.clampRow(m.cursor + delta)
		return
	}
	m.view.MoveBy(delta)
}

func (m *TreeModel) moveTo(i int) {
	if m.marking {
		m.cursor = m.clampRow(i)
		return
	}
	m.view.MoveTo(i)
}

func (m *TreeModel) clampRow(i int) int {
	return min(max(i, 0), max(0, len(m.rows.items)-1))
}

// focused returns the node under the cursor.
func (m *TreeModel) focused() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows.items) {
		return nil
	}
	return m.rows.items[m.cursor]
}

// syncScroll pulls the cursor and scroll requests from the view after any
// change.
func (m *TreeModel) syncScroll() {
	if m.editing != nil && m.view.IndexOf(m.editing) < 0 {
		m.view.CancelEdit(m.editing)
		m.editing = nil
	}
	if !m.marking {
		if m.view.SelectedItem() == nil && len(m.rows.items) > 0 {
			m.view.SetSelectedIndex(0)
		}
		m.cursor = m.view.SelectedIndex()
	}
	m.cursor = m.clampRow(m.cursor)
	if target := m.view.TakeScrollTarget(); target >= 0 {
		m.scrollTo(target)
	}
	m.ensureCursorVisible()
	if m.detailVisible() {
		m.detail.Show(m.focused())
	}
}

// listHeight is the number of lines between the header and the footer.
func (m *TreeModel) listHeight() int {
	h := m.height - 2 - lipgloss.Height(m.help.View(m.keys))
	return max(1, h)
}

// effectiveVisibleCount is the number of rows that fit, leaving one line
// for the position indicator when scrolling is needed.
func (m *TreeModel) effectiveVisibleCount() int {
	visibleCount := m.listHeight()
	if len(m.rows.items) > visibleCount {
		visibleCount--
	}
	return max(1, visibleCount)
}

func (m *TreeModel) halfPage() int {
	return max(1, m.effectiveVisibleCount()/2)
}

// scrollTo brings row i into view with cursor-at-edge scrolling.
func (m *TreeModel) scrollTo(i int) {
	visibleCount := m.effectiveVisibleCount()
	if i < m.viewportOffset {
		m.viewportOffset = i
	}
	if i >= m.viewportOffset+visibleCount {
		m.viewportOffset = i - visibleCount + 1
	}
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen and
// clamps the offset to the rows.
func (m *TreeModel) ensureCursorVisible() {
	if len(m.rows.items) == 0 {
		m.viewportOffset = 0
		return
	}
	m.scrollTo(m.cursor)
	maxOffset := max(0, len(m.rows.items)-m.effectiveVisibleCount())
	m.viewportOffset = min(max(m.viewportOffset, 0), maxOffset)
}

// ViewportOffset returns the first rendered row.
func (m *TreeModel) ViewportOffset() int { return m.viewportOffset }

func (m *TreeModel) visibleRange() (start, end int) {
	if len(m.rows.items) == 0 {
		return 0, 0
	}
	visibleCount := m.effectiveVisibleCount()
	start = max(0, m.viewportOffset)
	end = start + visibleCount
	if end > len(m.rows.items) {
		end = len(m.rows.items)
		start = max(0, end-visibleCount)
	}
	return start, end
}

// SetSize resizes the model and its detail pane.
func (m *TreeModel) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m.width, m.height = width, height
	m.help.Width = width
	if m.detailVisible() {
		m.detail.SetSize(width-m.treeWidth(), m.listHeight())
		m.detail.Show(m.focused())
	}
	m.ensureCursorVisible()
}

func (m *TreeModel) detailVisible() bool {
	return m.showDetail && m.width >= 60
}

func (m *TreeModel) treeWidth() int {
	if !m.detailVisible() {
		return m.width
	}
	return int(float64(m.width) * m.opts.SplitRatio)
}

// ── Commands ─────────────────────────────────────────────────────────────────

func (m *TreeModel) toggleMark() {
	n := m.focused()
	if n == nil {
		return
	}
	if !m.marking {
		m.marking = true
		m.view.Select(n)
		m.setStatus("Marking: v toggles rows, esc ends", false)
		return
	}
	m.view.ToggleSelect(n)
}

// endMarking leaves marking mode with the cursor row as the selection.
func (m *TreeModel) endMarking() {
	if !m.marking {
		return
	}
	m.marking = false
	if n := m.focused(); n != nil {
		m.view.Select(n)
	}
}

func (m *TreeModel) toggleCheck() error {
	targets := []*tree.Node{m.view.SelectedItem()}
	if m.marking {
		targets = m.view.TopLevelSelection()
	}
	for _, n := range targets {
		if n == nil || !n.IsCheckable() {
			continue
		}
		next := tree.Checked
		if n.CheckState() == tree.Checked {
			next = tree.Unchecked
		}
		if err := n.SetChecked(next); err != nil {
			return err
		}
	}
	return nil
}

// activate forwards enter to the node's kind, or toggles the node when the
// kind does not handle activation.
func (m *TreeModel) activate() error {
	n := m.view.SelectedItem()
	if n == nil {
		return nil
	}
	if _, ok := n.Kind().(tree.Activator); ok {
		m.view.Activate()
		return nil
	}
	if m.view.ShowExpander(n) {
		return m.view.ToggleExpanded(n)
	}
	return nil
}

func (m *TreeModel) beginEdit() (tea.Cmd, error) {
	n := m.view.SelectedItem()
	if n == nil {
		return nil, treeview.ErrNothingSelected
	}
	text, err := m.view.BeginEdit(n)
	if err != nil {
		return nil, err
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Width = max(10, m.treeWidth()-lipgloss.Width(m.rowPrefix(n))-2)
	ti.SetValue(text)
	ti.CursorEnd()
	m.editInput = ti
	m.editing = n
	return m.editInput.Focus(), nil
}

func (m *TreeModel) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		n, text := m.editing, m.editInput.Value()
		m.editing = nil
		saved, err := m.view.CommitEdit(n, text)
		switch {
		case err != nil:
			m.setStatus(err.Error(), true)
		case !saved:
			m.setStatus(fmt.Sprintf("Rename of %q rejected", n.Text()), true)
		default:
			m.setStatus(fmt.Sprintf("Renamed to %q", n.Text()), false)
		}
		m.syncScroll()
		return nil
	case "esc":
		m.view.CancelEdit(m.editing)
		m.editing = nil
		return nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return cmd
}

func (m *TreeModel) requestDelete() tea.Cmd {
	if !m.view.CanDelete() {
		m.setStatus("Nothing deletable selected", true)
		return nil
	}
	if !m.opts.ConfirmDelete {
		m.deleteSelection()
		return nil
	}
	top := m.view.TopLevelSelection()
	title := fmt.Sprintf("Delete %q?", top[0].Text())
	if len(top) > 1 {
		title = fmt.Sprintf("Delete %d items?", len(top))
	}
	yes := false
	m.confirmYes = &yes
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirmYes),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false).WithWidth(min(60, m.width))
	return m.confirm.Init()
}

func (m *TreeModel) updateConfirm(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.confirm, m.confirmYes = nil, nil
		m.setStatus("Delete cancelled", false)
		return nil
	}
	model, cmd := m.confirm.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateCompleted:
		yes := *m.confirmYes
		m.confirm, m.confirmYes = nil, nil
		if yes {
			m.deleteSelection()
		} else {
			m.setStatus("Delete cancelled", false)
		}
		return nil
	case huh.StateAborted:
		m.confirm, m.confirmYes = nil, nil
		m.setStatus("Delete cancelled", false)
		return nil
	}
	return cmd
}

func (m *TreeModel) deleteSelection() {
	count := len(m.view.TopLevelSelection())
	err := m.view.Delete()
	m.marking = false
	if err != nil {
		m.setStatus(err.Error(), true)
	} else {
		m.setStatus(fmt.Sprintf("Deleted %d item(s)", count), false)
	}
	m.syncScroll()
}

// pather is implemented by kinds backed by a filesystem path.
type pather interface {
	Path() string
}

func clipText(n *tree.Node) string {
	if p, ok := n.Kind().(pather); ok {
		return p.Path()
	}
	return n.Text()
}

// copySelection keeps the kind's payload for paste and puts the texts (or
// paths) of the selection on the system clipboard.
func (m *TreeModel) copySelection() {
	top := m.view.TopLevelSelection()
	if len(top) == 0 {
		m.setStatus(treeview.ErrNothingSelected.Error(), true)
		return
	}
	if m.view.CanCopy() {
		p, err := m.view.Copy()
		if err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.copied = p
	}
	texts := make([]string, len(top))
	for i, n := range top {
		texts[i] = clipText(n)
	}
	if err := m.opts.Clipboard(strings.Join(texts, "\n")); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %d item(s)", len(top)), false)
}

// paste drops the copied payload into the focused node, or next to it when
// the node does not accept children.
func (m *TreeModel) paste() error {
	if m.copied == nil {
		return errNothingCopied
	}
	n := m.view.SelectedItem()
	var targets []treeview.DropTarget
	if n != nil {
		targets = m.view.DropTargets(n, m.copied)
	}
	if len(targets) == 0 {
		if m.view.CanRootDrop(m.copied) {
			return m.view.RootDrop(m.copied)
		}
		if n == nil {
			return treeview.ErrNothingSelected
		}
		return fmt.Errorf("cannot paste into %q", n.Text())
	}
	target := targets[len(targets)-1]
	for _, t := range targets {
		if t.Place == treeview.Inside {
			target = t
			break
		}
	}
	if err := m.view.Drop(target, m.copied); err != nil {
		return err
	}
	m.setStatus(fmt.Sprintf("Pasted into %q", target.Node.Text()), false)
	return nil
}

// toggleHidden hides the focused node. A node shown by reveal mode is kept
// visible for good instead.
func (m *TreeModel) toggleHidden() error {
	n := m.view.SelectedItem()
	if n == nil || n == m.view.Root() {
		return nil
	}
	if m.revealed[n] {
		delete(m.revealed, n)
		m.setStatus(fmt.Sprintf("%q unhidden", n.Text()), false)
		return nil
	}
	if m.revealed != nil {
		// shown until reveal mode ends
		m.revealed[n] = true
		return nil
	}
	if err := n.SetHidden(true); err != nil {
		return err
	}
	m.setStatus(fmt.Sprintf("%q hidden", n.Text()), false)
	return nil
}

// toggleReveal shows every loaded hidden node, or hides them again.
func (m *TreeModel) toggleReveal() error {
	if m.revealed != nil {
		return m.conceal()
	}
	root := m.view.Root()
	if root == nil {
		return nil
	}
	var hidden []*tree.Node
	root.Walk(func(n *tree.Node) bool {
		if n != root && n.IsHidden() {
			hidden = append(hidden, n)
		}
		return true
	})
	if len(hidden) == 0 {
		m.setStatus("No hidden nodes", false)
		return nil
	}
	m.revealed = make(map[*tree.Node]bool, len(hidden))
	for _, n := range hidden {
		if err := n.SetHidden(false); err != nil {
			return err
		}
		m.revealed[n] = true
	}
	m.setStatus(fmt.Sprintf("Showing %d hidden node(s)", len(hidden)), false)
	return nil
}

func (m *TreeModel) conceal() error {
	revealed := m.revealed
	m.revealed = nil
	root := m.view.Root()
	for n := range revealed {
		if n.Root() != root {
			continue
		}
		if err := n.SetHidden(true); err != nil {
			return err
		}
	}
	return nil
}

// save persists the documents with revealed nodes hidden again.
func (m *TreeModel) save() {
	if m.opts.Save == nil {
		m.setStatus("Nothing to save", false)
		return
	}
	revealing := m.revealed != nil
	if revealing {
		if err := m.conceal(); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
	}
	err := m.opts.Save()
	if revealing {
		if rerr := m.toggleReveal(); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("Save failed: %v", err), true)
		return
	}
	m.setStatus("Saved", false)
}

func (m *TreeModel) setStatus(msg string, isError bool) {
	m.statusMsg, m.statusIsError = msg, isError
}

func (m *TreeModel) clearStatus() { m.setStatus("", false) }

// ── Rendering ────────────────────────────────────────────────────────────────

// View renders the header, the visible window of rows with the optional
// detail pane beside it, the footer and the help line.
func (m *TreeModel) View() string {
	defer metrics.Timer(metrics.UIRender)()
	var sb strings.Builder
	sb.WriteString(m.RenderHeader())
	sb.WriteString("\n")
	if m.confirm != nil {
		sb.WriteString("\n")
		sb.WriteString(m.confirm.View())
		return sb.String()
	}

	body := m.renderTree()
	if m.detailVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.detail.View())
	}
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// RenderHeader returns the title bar.
func (m *TreeModel) RenderHeader() string {
	title := m.opts.Title
	if title == "" {
		if root := m.view.Root(); root != nil {
			title = root.Text()
		}
	}
	if m.opts.Dirty != nil && m.opts.Dirty() {
		title += " ●"
	}
	if m.marking {
		title += fmt.Sprintf("  [%d marked]", len(m.view.SelectedItems()))
	}
	return m.theme.Header.Width(m.width).Render(title)
}

func (m *TreeModel) renderTree() string {
	width := m.treeWidth()
	if len(m.rows.items) == 0 {
		return m.renderEmptyState(width)
	}

	lines := make([]string, 0, m.listHeight())
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		lines = append(lines, m.renderNode(m.rows.items[i], i == m.cursor, width))
	}
	if len(m.rows.items) > m.effectiveVisibleCount() {
		lines = append(lines, m.renderPositionIndicator(start, end))
	}
	for len(lines) < m.listHeight() {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// renderPositionIndicator shows "Page X/Y (start-end of total)".
func (m *TreeModel) renderPositionIndicator(start, end int) string {
	total := len(m.rows.items)
	pageSize := m.effectiveVisibleCount()
	currentPage, totalPages := m.pageInfo(pageSize)
	indicator := fmt.Sprintf(" Page %d/%d (%d-%d of %d)", currentPage, totalPages, start+1, end, total)
	return m.theme.MutedText.Render(indicator)
}

func (m *TreeModel) pageInfo(pageSize int) (currentPage, totalPages int) {
	total := len(m.rows.items)
	pageSize = max(1, pageSize)
	totalPages = max(1, (total+pageSize-1)/pageSize)
	currentPage = min(m.viewportOffset/pageSize+1, totalPages)
	return currentPage, totalPages
}

func (m *TreeModel) renderEmptyState(width int) string {
	r := m.theme.Renderer
	titleStyle := r.NewStyle().Foreground(m.theme.Primary).Bold(true)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Nothing to display."))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.MutedText.Render("Every node is hidden or the source is empty."))
	sb.WriteString("\n")
	sb.WriteString(m.theme.MutedText.Render("Press H to show hidden nodes."))
	return r.NewStyle().Width(width).Height(m.listHeight()).Render(sb.String())
}

func (m *TreeModel) renderFooter() string {
	if m.view.SearchActive() {
		return m.renderSearchBar()
	}
	if m.statusMsg == "" {
		return ""
	}
	if m.statusIsError {
		return m.theme.StatusError.Render(m.statusMsg)
	}
	return m.theme.StatusText.Render(m.statusMsg)
}

func (m *TreeModel) renderSearchBar() string {
	searchStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Bold(true)
	return searchStyle.Render("Search: " + m.view.SearchPrefix())
}

// rowPrefix is everything drawn left of the text: mark column, guides,
// expander and checkbox.
func (m *TreeModel) rowPrefix(n *tree.Node) string {
	var sb strings.Builder
	if m.marking {
		if n.IsSelected() {
			sb.WriteString(m.theme.Marked.Render("● "))
		} else {
			sb.WriteString("  ")
		}
	}
	sb.WriteString(m.buildTreePrefix(n))
	sb.WriteString(m.getExpandIndicator(n))
	if n.IsCheckable() {
		sb.WriteString(m.checkbox(n.CheckState()))
		sb.WriteString(" ")
	}
	return sb.String()
}

// renderNode renders one row clamped to width.
func (m *TreeModel) renderNode(n *tree.Node, isCursor bool, width int) string {
	prefix := m.rowPrefix(n)
	avail := max(1, width-lipgloss.Width(prefix)-1)

	var text string
	if n == m.editing {
		text = m.editInput.View()
	} else {
		text = m.renderText(n, isCursor, avail)
	}

	style := m.theme.Renderer.NewStyle()
	switch {
	case isCursor:
		style = m.theme.Selected
	case m.marking && n.IsSelected():
		style = m.theme.Marked
	case m.revealed[n]:
		style = style.Foreground(m.theme.Muted).Faint(true)
	}
	return style.Width(width).MaxWidth(width).Render(prefix + text)
}

// renderText truncates the node text and underlines the matched search
// prefix on the cursor row.
func (m *TreeModel) renderText(n *tree.Node, isCursor bool, avail int) string {
	text := truncate(n.Text(), avail)
	if !isCursor || !m.view.SearchActive() {
		return text
	}
	head, tail, ok := splitPrefix(text, m.view.SearchPrefix(), m.view.Options().CaseSensitiveSearch)
	if !ok {
		return text
	}
	return m.theme.Match.Render(head) + tail
}

// depth is the indentation level of n below the displayed top.
func (m *TreeModel) depth(n *tree.Node) int {
	d := n.Level()
	if root := m.view.Root(); root != nil {
		d -= root.Level()
	}
	if !m.view.Options().ShowRoot {
		d--
	}
	return d
}

// buildTreePrefix builds the indentation and branch characters for a node.
func (m *TreeModel) buildTreePrefix(n *tree.Node) string {
	depth := m.depth(n)
	if depth <= 0 {
		return ""
	}
	if !m.opts.ShowLines {
		return strings.Repeat("  ", depth)
	}

	parts := make([]string, depth)
	if hasSiblingsBelow(n) {
		parts[depth-1] = "├── "
	} else {
		parts[depth-1] = "└── "
	}
	a := n.Parent()
	for i := depth - 2; i >= 0 && a != nil; i-- {
		if hasSiblingsBelow(a) {
			parts[i] = "│   "
		} else {
			parts[i] = "    "
		}
		a = a.Parent()
	}
	return m.theme.Guide.Render(strings.Join(parts, ""))
}

// hasSiblingsBelow reports whether a sibling after n is drawn. It is the
// IsLast flag with hidden siblings skipped.
func hasSiblingsBelow(n *tree.Node) bool {
	if n.IsLast() {
		return false
	}
	siblings := n.Parent().Children().All()
	for _, s := range siblings[slices.Index(siblings, n)+1:] {
		if !s.IsHidden() {
			return true
		}
	}
	return false
}

// getExpandIndicator returns the expand/collapse indicator for a node.
func (m *TreeModel) getExpandIndicator(n *tree.Node) string {
	if !m.view.ShowExpander(n) {
		return m.theme.Guide.Render("• ")
	}
	if n.IsExpanded() {
		return m.theme.Expander.Render("▾ ")
	}
	return m.theme.Expander.Render("▸ ")
}

func (m *TreeModel) checkbox(s tree.CheckState) string {
	switch s {
	case tree.Checked:
		return m.theme.CheckOn.Render("[x]")
	case tree.Mixed:
		return m.theme.CheckMixed.Render("[-]")
	default:
		return m.theme.CheckOff.Render("[ ]")
	}
}
