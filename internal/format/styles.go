package format

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#7C3AED"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#6B7280"}
)

// Styles groups the styles of one renderer
type Styles struct {
	Content    lipgloss.Style
	Code       lipgloss.Style
	Failure    lipgloss.Style
	Diagnostic lipgloss.Style
	Suggestion lipgloss.Style
	Prompt     lipgloss.Style
	Caller     lipgloss.Style
	Muted      lipgloss.Style
}

// NewStyles builds the styles on r
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Content: r.NewStyle(),
		Code: r.NewStyle().
			Bold(true).
			Foreground(colorError),
		Failure: r.NewStyle().
			Foreground(colorError),
		Diagnostic: r.NewStyle().
			Foreground(colorAccent).
			PaddingLeft(2),
		Suggestion: r.NewStyle().
			Foreground(colorSecondary).
			Italic(true),
		Prompt: r.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Caller: r.NewStyle().
			Foreground(colorSecondary).
			Bold(true),
		Muted: r.NewStyle().
			Foreground(colorMuted),
	}
}
