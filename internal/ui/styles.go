package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E31937")).
			MarginBottom(1)

	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	dangerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA"))
	labelStyle    = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#A6ADC8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)
)
