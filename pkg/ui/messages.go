package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treelist/pkg/watcher"
)

// DirsChangedMsg is sent when a watched directory changed on disk.
type DirsChangedMsg struct{}

// searchTickMsg drives the type ahead timeout.
type searchTickMsg struct{ at time.Time }

// deferredMsg drains the view's deferred scroll requests on the next frame.
type deferredMsg struct{}

// searchTickInterval is how often an active search checks its timeout.
const searchTickInterval = 100 * time.Millisecond

// WatchDirsCmd returns a command that waits for directory changes and sends
// DirsChangedMsg.
func WatchDirsCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return DirsChangedMsg{}
	}
}

func searchTickCmd() tea.Cmd {
	return tea.Tick(searchTickInterval, func(t time.Time) tea.Msg {
		return searchTickMsg{at: t}
	})
}

func deferredCmd() tea.Cmd {
	return func() tea.Msg { return deferredMsg{} }
}
