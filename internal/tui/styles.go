package tui

import (
	"github.com/charmbracelet/lipgloss"

	"finagent/internal/chat"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
)

type styles struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Input     lipgloss.Style
	Toast     map[chat.Level]lipgloss.Style
}

func defaultStyles() styles {
	base := lipgloss.NewStyle().Bold(true)
	return styles{
		Header:    lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorMuted),
		Title:     base.Foreground(colorPrimary),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		User:      base.Foreground(colorPrimary),
		Assistant: base.Foreground(colorAccent),
		Input:     lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorMuted),
		Toast: map[chat.Level]lipgloss.Style{
			chat.LevelInfo:    lipgloss.NewStyle().Foreground(colorPrimary),
			chat.LevelSuccess: lipgloss.NewStyle().Foreground(colorAccent),
			chat.LevelWarning: lipgloss.NewStyle().Foreground(colorWarning),
			chat.LevelError:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		},
	}
}
