package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle frames the result summary.
	HeaderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	// TitleStyle is for titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is for field names in the summary.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// SubtleStyle is for subtle text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ErrorStyle is for error display.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	// ValidatedBadge marks clinically validated answers.
	ValidatedBadge = lipgloss.NewStyle().
			Background(ColorSuccess).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Bold(true)

	// UnvalidatedBadge marks answers that failed or skipped clinical validation.
	UnvalidatedBadge = lipgloss.NewStyle().
				Background(ColorBorder).
				Foreground(ColorText).
				Padding(0, 1)

	// TableHeaderStyle is for history table headings.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSecondary)
)

// ValueStyle colors a value.
func ValueStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
