// Package tui renders courseboot's terminal output: the probed plan, the
// per-step results, the verification report, and a live progress view for
// long installs.
package tui

import "github.com/charmbracelet/lipgloss"

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText    = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
)

// Styles contains the reusable lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Step     lipgloss.Style
	Detail   lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles returns the default style register.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Step: lipgloss.NewStyle().
			Foreground(ColorText),

		Detail: lipgloss.NewStyle().
			Foreground(ColorMuted).
			PaddingLeft(4),

		Progress: lipgloss.NewStyle().
			Foreground(ColorPrimary),
	}
}

// PlainStyles returns styles with no color for --plain output and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Muted:    plain,
		Step:     plain,
		Detail:   lipgloss.NewStyle().PaddingLeft(4),
		Progress: plain,
	}
}
