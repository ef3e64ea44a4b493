// Package format renders command responses for terminals
package format

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

// Formatter renders responses with lipgloss styles. It implements
// engine.Formatter.
type Formatter struct {
	renderer *lipgloss.Renderer
	styles   Styles
}

// New creates a formatter for a terminal writing to w. The colour profile
// and background are detected from w and the environment.
func New(w io.Writer) *Formatter {
	r := lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	return &Formatter{renderer: r, styles: NewStyles(r)}
}

// NewStdout creates a formatter for standard output
func NewStdout() *Formatter {
	return New(os.Stdout)
}

// WithProfile creates a formatter with a fixed colour profile and
// background; termenv.Ascii disables colours.
func WithProfile(profile termenv.Profile, dark bool) *Formatter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(dark)
	return &Formatter{renderer: r, styles: NewStyles(r)}
}

// Styles returns the formatter's styles
func (f *Formatter) Styles() Styles {
	return f.styles
}

// Colored reports whether the formatter emits colours
func (f *Formatter) Colored() bool {
	return f.renderer.ColorProfile() != termenv.Ascii
}

// Format renders content, diagnostics, suggestions and prompt
func (f *Formatter) Format(resp *command.Response) string {
	s := f.styles
	var lines []string

	for i, c := range resp.Content {
		switch {
		case resp.Success:
			lines = append(lines, s.Content.Render(c))
		case i == 0 && resp.Code != "":
			lines = append(lines, s.Code.Render("["+resp.Code.String()+"]")+" "+s.Failure.Render(c))
		default:
			lines = append(lines, s.Failure.Render(c))
		}
	}
	for _, d := range resp.Diagnostics {
		lines = append(lines, s.Diagnostic.Render("- "+d))
	}
	if len(resp.Suggestions) > 0 {
		lines = append(lines, s.Muted.Render("Did you mean: ")+s.Suggestion.Render(strings.Join(resp.Suggestions, ", "))+s.Muted.Render("?"))
	}
	if resp.Prompt != "" {
		lines = append(lines, s.Prompt.Render(resp.Prompt))
	}
	return strings.Join(lines, "\n")
}

// Announcement renders a broadcast line
func (f *Formatter) Announcement(from, message string) string {
	return f.styles.Caller.Render("["+from+"]") + " " + f.styles.Content.Render(message)
}

// Echo renders an input line as the console shows it
func (f *Formatter) Echo(line string) string {
	return f.styles.Muted.Render("> " + line)
}
