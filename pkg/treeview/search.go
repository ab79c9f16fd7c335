package treeview

import "time"

// searchSequence exposes the rows to the type ahead search.
type searchSequence struct{ v *View }

func (s searchSequence) Len() int { return s.v.Len() }

func (s searchSequence) TextAt(i int) string {
	n, err := s.v.At(i)
	if err != nil {
		return ""
	}
	return n.Text()
}

func (s searchSequence) SelectedIndex() int { return s.v.SelectedIndex() }

func (s searchSequence) Select(i int) { s.v.MoveTo(i) }

// TypeText feeds typed text to the type ahead search and reports whether it
// matched a row.
func (v *View) TypeText(text string) bool {
	if text == "" {
		return false
	}
	return v.search.Search(text)
}

// Backspace removes the last typed search character.
func (v *View) Backspace() bool {
	return v.search.RevertLastCharacter()
}

// ClearSearch drops the type ahead state.
func (v *View) ClearSearch() { v.search.Reset() }

// SearchPrefix returns the active search prefix, or "".
func (v *View) SearchPrefix() string { return v.search.Prefix() }

// SearchActive reports whether a type ahead search is in progress.
func (v *View) SearchActive() bool { return v.search.Active() }

// ExpireSearch drops the search state when its timeout passed at now. The
// renderer calls it from its tick.
func (v *View) ExpireSearch(now time.Time) bool { return v.search.Expire(now) }
