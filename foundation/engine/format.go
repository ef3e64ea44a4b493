// File: format.go
// Title: Plain Response Formatter
// Description: Default formatter rendering responses as uncoloured text.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package engine

import (
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

// PlainFormatter renders content, diagnostics, suggestions and prompts as
// plain lines.
type PlainFormatter struct{}

// Format implements Formatter
func (PlainFormatter) Format(resp *command.Response) string {
	var b strings.Builder
	line := func(s string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}

	for i, c := range resp.Content {
		if i == 0 && !resp.Success && resp.Code != "" {
			c = "[" + string(resp.Code) + "] " + c
		}
		line(c)
	}
	for _, d := range resp.Diagnostics {
		line("  - " + d)
	}
	if len(resp.Suggestions) > 0 {
		line("Did you mean: " + strings.Join(resp.Suggestions, ", ") + "?")
	}
	if resp.Prompt != "" {
		line(resp.Prompt)
	}
	return b.String()
}
