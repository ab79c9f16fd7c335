// Package textsearch implements type-ahead selection for a flattened tree:
// typed characters grow a prefix that is matched against the display text of
// the visible nodes, starting at the current match and wrapping around.
//
// The search keeps no timer goroutine. The reset timeout is checked lazily
// on every call, and a UI loop that wants the state to drop exactly on time
// can call Expire from its own tick.
package textsearch

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout is twice a typical double-click interval.
const DefaultTimeout = 2 * 500 * time.Millisecond

// Sequence is the flattened list being searched.
type Sequence interface {
	Len() int
	TextAt(i int) string
	SelectedIndex() int
	Select(i int)
}

// Option configures a Search.
type Option func(*Search)

// WithCaseSensitive makes prefix comparisons case sensitive.
func WithCaseSensitive(v bool) Option {
	return func(s *Search) { s.caseSensitive = v }
}

// WithTimeout sets the idle time after which the typed prefix is dropped.
func WithTimeout(d time.Duration) Option {
	return func(s *Search) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Search) { s.now = now }
}

// Search is the incremental prefix search state machine.
type Search struct {
	seq           Sequence
	caseSensitive bool
	timeout       time.Duration
	now           func() time.Time

	active         bool
	matchPrefix    string
	lastMatchIndex int
	inputStack     []string
	deadline       time.Time
}

// New returns an inactive search over seq.
func New(seq Sequence, opts ...Option) *Search {
	s := &Search{
		seq:     seq,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// SetCaseSensitive changes the comparison mode for subsequent keystrokes.
func (s *Search) SetCaseSensitive(v bool) { s.caseSensitive = v }

// Active reports whether a search is in progress.
func (s *Search) Active() bool {
	s.expireIfDue()
	return s.active
}

// Prefix returns the characters accepted so far.
func (s *Search) Prefix() string {
	s.expireIfDue()
	return s.matchPrefix
}

// Deadline returns the time at which the current search expires, or the
// zero time when no search is active.
func (s *Search) Deadline() time.Time {
	if !s.active {
		return time.Time{}
	}
	return s.deadline
}

// Reset drops all search state.
func (s *Search) Reset() {
	s.active = false
	s.matchPrefix = ""
	s.lastMatchIndex = -1
	s.inputStack = s.inputStack[:0]
	s.deadline = time.Time{}
}

// Expire drops the search state if its deadline passed at now. It reports
// whether the state was dropped.
func (s *Search) Expire(now time.Time) bool {
	if !s.active || now.Before(s.deadline) {
		return false
	}
	s.Reset()
	return true
}

func (s *Search) expireIfDue() {
	s.Expire(s.now())
}

func (s *Search) resetTimeout() {
	s.deadline = s.now().Add(s.timeout)
}

// RevertLastCharacter removes the last accepted character from the prefix.
// The selection is left where it is.
func (s *Search) RevertLastCharacter() bool {
	s.expireIfDue()
	if !s.active || len(s.inputStack) == 0 {
		return false
	}
	top := s.inputStack[len(s.inputStack)-1]
	s.inputStack = s.inputStack[:len(s.inputStack)-1]
	s.matchPrefix = s.matchPrefix[:len(s.matchPrefix)-len(top)]
	s.resetTimeout()
	return true
}

// Search feeds one typed unit of text (usually a single character) into the
// search. It selects the first item at or after the current match whose text
// starts with the extended prefix. When nothing matches and the same
// character was typed twice in a row, it instead moves on to the next item
// matching the unextended prefix, which lets "a a a" cycle through items
// starting with "a". It reports whether anything matched; on a miss only the
// timeout is renewed.
func (s *Search) Search(next string) bool {
	s.expireIfDue()
	start := s.lastMatchIndex
	if !s.active {
		start = max(0, s.seq.SelectedIndex())
	}
	if n := s.seq.Len(); start >= n {
		start = 0
	}
	lookBackwards := false
	if l := len(s.inputStack); l > 0 {
		lookBackwards = strings.EqualFold(s.inputStack[l-1], next)
	}

	index, used := s.indexOfMatch(s.matchPrefix+next, start, lookBackwards)
	if index != -1 {
		if !s.active || index != start {
			s.seq.Select(index)
			s.lastMatchIndex = index
		}
		if used {
			s.matchPrefix += next
			s.inputStack = append(s.inputStack, next)
		}
		s.active = true
	}
	if s.active {
		s.resetTimeout()
	}
	return index != -1
}

func (s *Search) indexOfMatch(needle string, start int, tryBackward bool) (int, bool) {
	n := s.seq.Len()
	if n == 0 || needle == "" {
		return -1, false
	}
	fallback := -1
	passedStart := false
	i := start
	for {
		text := s.seq.TextAt(i)
		if s.hasPrefix(text, needle) {
			return i, true
		}
		if tryBackward {
			if passedStart && s.matchPrefix != "" {
				if fallback == -1 && s.hasPrefix(text, s.matchPrefix) {
					fallback = i
				}
			} else {
				passedStart = true
			}
		}
		i++
		if i >= n {
			i = 0
		}
		if i == start {
			break
		}
	}
	return fallback, false
}

func (s *Search) hasPrefix(text, prefix string) bool {
	if s.caseSensitive {
		return strings.HasPrefix(text, prefix)
	}
	for _, pr := range prefix {
		if text == "" {
			return false
		}
		r, size := utf8.DecodeRuneInString(text)
		if r != pr && !strings.EqualFold(string(r), string(pr)) {
			return false
		}
		text = text[size:]
	}
	return true
}
