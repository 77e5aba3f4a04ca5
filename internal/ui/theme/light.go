package theme

import "github.com/charmbracelet/lipgloss"

// Light uses Nord's Snow Storm backgrounds with darkened accents
var Light = Theme{
	Name: "light",

	Background: lipgloss.Color("#ECEFF4"),
	Foreground: lipgloss.Color("#2E3440"),
	Subtle:     lipgloss.Color("#7B88A1"),
	Highlight:  lipgloss.Color("#D8DEE9"),
	Border:     lipgloss.Color("#A5ABB6"),
	TagBg:      lipgloss.Color("#E5E9F0"),

	Primary:   lipgloss.Color("#5E81AC"),
	Secondary: lipgloss.Color("#4C566A"),
	Info:      lipgloss.Color("#3B6EA8"),

	Success: lipgloss.Color("#4F894C"),
	Warning: lipgloss.Color("#B58900"),
	Error:   lipgloss.Color("#B0343C"),

	PriorityLow:    lipgloss.Color("#4F894C"),
	PriorityMedium: lipgloss.Color("#B58900"),
	PriorityHigh:   lipgloss.Color("#B0343C"),
}
