// Package ui provides the visual styling for the interactive CLI.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode colors (default)
	LightForeground = lipgloss.Color("#1a2332")
	LightPrimary    = lipgloss.Color("#2563eb")
	LightAccent     = lipgloss.Color("#0d9488")
	LightMuted      = lipgloss.Color("#8a919c")
	LightBorder     = lipgloss.Color("#d8dce2")

	// Dark mode colors
	DarkForeground = lipgloss.Color("#e8eaed")
	DarkPrimary    = lipgloss.Color("#60a5fa")
	DarkAccent     = lipgloss.Color("#2dd4bf")
	DarkMuted      = lipgloss.Color("#6b7280")
	DarkBorder     = lipgloss.Color("#374151")

	// Semantic colors (same in both modes)
	Destructive = lipgloss.Color("#ef4444")
	Success     = lipgloss.Color("#22c55e")
	Warning     = lipgloss.Color("#f59e0b")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks a theme from terminal hints, defaulting to light.
func DetectTheme() Theme {
	// COLORFGBG is "foreground;background"; low background indexes
	// mean a dark terminal.
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}
	if os.Getenv("COURSEMIND_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Prompt   lipgloss.Style
	UserTurn lipgloss.Style
	Answer   lipgloss.Style
	Source   lipgloss.Style
	Error    lipgloss.Style
	Spinner  lipgloss.Style
	Divider  lipgloss.Style
}

// NewStyles builds the component styles for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Prompt:   lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		UserTurn: lipgloss.NewStyle().Bold(true).Foreground(theme.Foreground),
		Answer:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Source:   lipgloss.NewStyle().Foreground(theme.Accent).Italic(true),
		Error:    lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Spinner:  lipgloss.NewStyle().Foreground(theme.Primary),
		Divider:  lipgloss.NewStyle().Foreground(theme.Border),
	}
}

// DefaultStyles builds styles with the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
