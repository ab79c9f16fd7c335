package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		// Even suffix is too wide, truncate suffix
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// truncate truncates s to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// splitPrefix splits text after a leading prefix. It returns ok=false when
// text does not start with prefix.
func splitPrefix(text, prefix string, caseSensitive bool) (head, tail string, ok bool) {
	if prefix == "" || len(text) < len(prefix) {
		return "", text, false
	}
	head = text[:len(prefix)]
	if caseSensitive {
		ok = head == prefix
	} else {
		ok = strings.EqualFold(head, prefix)
	}
	if !ok {
		return "", text, false
	}
	return head, text[len(prefix):], true
}
