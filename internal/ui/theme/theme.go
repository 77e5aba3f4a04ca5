package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/model"
)

// Theme defines the color scheme and styles for the UI
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color
	TagBg      lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Priority colors
	PriorityLow    lipgloss.Color
	PriorityMedium lipgloss.Color
	PriorityHigh   lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style
	Footer lipgloss.Style

	// Task styles
	TaskNormal  lipgloss.Style
	TaskFocused lipgloss.Style
	TaskDone    lipgloss.Style
	TaskOverdue lipgloss.Style

	// Component styles
	Title    lipgloss.Style
	Label    lipgloss.Style
	Tag      lipgloss.Style
	DueDate  lipgloss.Style
	Priority lipgloss.Style

	// Countdown states
	CountdownPending lipgloss.Style
	CountdownSoon    lipgloss.Style
	CountdownOverdue lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Panel      lipgloss.Style
	PanelTitle lipgloss.Style

	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style

	StatusInfo    lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground),

		TaskFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Highlight).
			Bold(true),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true),

		TaskOverdue: lipgloss.NewStyle().
			Foreground(t.Error),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Tag: lipgloss.NewStyle().
			Foreground(t.Info).
			Background(t.TagBg).
			Padding(0, 1).
			MarginRight(1),

		DueDate: lipgloss.NewStyle().
			Foreground(t.Secondary),

		Priority: lipgloss.NewStyle().
			Bold(true),

		CountdownPending: lipgloss.NewStyle().
			Foreground(t.Success),

		CountdownSoon: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		CountdownOverdue: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		PanelTitle: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),

		StatusInfo: lipgloss.NewStyle().
			Foreground(t.Info),

		StatusWarning: lipgloss.NewStyle().
			Foreground(t.Warning),

		StatusError: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),
	}
}

// Countdown returns the style for a countdown state
func (s Styles) Countdown(state countdown.State) lipgloss.Style {
	switch state {
	case countdown.Overdue:
		return s.CountdownOverdue
	case countdown.DueSoon:
		return s.CountdownSoon
	default:
		return s.CountdownPending
	}
}

// Severity returns the status line style for a notice severity
func (s Styles) Severity(sev deadline.Severity) lipgloss.Style {
	switch sev {
	case deadline.SeverityError:
		return s.StatusError
	case deadline.SeverityWarning:
		return s.StatusWarning
	default:
		return s.StatusInfo
	}
}

// PriorityColor returns the color for a priority
func (t Theme) PriorityColor(p model.Priority) lipgloss.Color {
	switch p {
	case model.PriorityHigh:
		return t.PriorityHigh
	case model.PriorityLow:
		return t.PriorityLow
	default:
		return t.PriorityMedium
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Dark,
	Styles: NewStyles(Dark),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{Dark, Light}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Toggle switches between dark and light and returns the new theme
func Toggle() Theme {
	next := Dark
	if Current.Theme.Name == Dark.Name {
		next = Light
	}
	SetTheme(next)
	return next
}
