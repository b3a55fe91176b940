// Package tui renders synthesized results for the terminal: a styled summary
// header, the answer as markdown, history tables, and plain or structured
// fallbacks when stdout is not a terminal.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan

	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorInfo    = lipgloss.Color("#3B82F6") // Blue

	ColorText      = lipgloss.Color("#E5E7EB") // Light gray
	ColorTextMuted = lipgloss.Color("#9CA3AF") // Muted gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)

// GradeColor maps an evidence grade to a color by its weight on the scale:
// strong evidence is green, moderate amber, weak red.
func GradeColor(h *core.EvidenceHierarchy, grade core.EvidenceGrade) lipgloss.Color {
	if h == nil {
		h = core.DefaultEvidenceHierarchy()
	}
	w := h.Weight(grade)
	switch {
	case w >= 0.8:
		return ColorSuccess
	case w >= 0.5:
		return ColorWarning
	default:
		return ColorError
	}
}

// ScoreColor maps a [0,1] score (confidence or quality) to a color.
func ScoreColor(score float64) lipgloss.Color {
	switch {
	case score >= 0.75:
		return ColorSuccess
	case score >= 0.5:
		return ColorWarning
	default:
		return ColorError
	}
}
