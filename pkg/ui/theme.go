package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Check states
	Checked lipgloss.AdaptiveColor
	Mixed   lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Marked   lipgloss.Style // multi-selected rows other than the cursor
	Header   lipgloss.Style

	// Pre-computed row styles, created once instead of per frame.
	Guide       lipgloss.Style // indent guides
	Expander    lipgloss.Style
	CheckOn     lipgloss.Style
	CheckMixed  lipgloss.Style
	CheckOff    lipgloss.Style
	Match       lipgloss.Style // search prefix inside a row
	MutedText   lipgloss.Style
	StatusText  lipgloss.Style
	StatusError lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Checked: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Mixed:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Marked = r.NewStyle().Foreground(t.Primary)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Guide = r.NewStyle().Foreground(t.Muted)
	t.Expander = r.NewStyle().Foreground(t.Primary)
	t.CheckOn = r.NewStyle().Foreground(t.Checked).Bold(true)
	t.CheckMixed = r.NewStyle().Foreground(t.Mixed).Bold(true)
	t.CheckOff = r.NewStyle().Foreground(t.Subtext)
	t.Match = r.NewStyle().Foreground(ThemeFg("#F1FA8C")).Underline(true)
	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.StatusText = r.NewStyle().Foreground(ColorInfo)
	t.StatusError = r.NewStyle().Foreground(t.Danger).Bold(true)

	return t
}

// ThemeFor returns DefaultTheme with the background forced to dark or light.
// Any other name keeps the renderer's own detection.
func ThemeFor(r *lipgloss.Renderer, name string) Theme {
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return DefaultTheme(r)
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
