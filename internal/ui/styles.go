package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary = lipgloss.Color("39")  // Blue
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

type styles struct {
	banner  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	doc     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner:  r.NewStyle().Bold(true).Foreground(ColorPrimary),
		success: r.NewStyle().Foreground(ColorSuccess),
		warning: r.NewStyle().Foreground(ColorWarning),
		err:     r.NewStyle().Bold(true).Foreground(ColorError),
		muted:   r.NewStyle().Foreground(ColorMuted),
		doc: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1),
	}
}

// Symbols for visual feedback.
const (
	SymbolCheck = "✓"
	SymbolCross = "✗"
	SymbolRetry = "↻"
)
