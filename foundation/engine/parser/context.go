// File: context.go
// Title: Scan Context
// Description: Character-level scan state shared by the tokenizer loop and
//              the active scanner. Construct state for nested scanners lives
//              here so scanner implementations stay stateless and shareable.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package parser

import (
	"fmt"
	"strings"
	"unicode"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// Context is the scan state for one tokenize call
type Context struct {
	Line     []rune
	Index    int
	Current  rune
	Previous rune
	Next     rune
	// Escaped is true when Current was preceded by an unescaped backslash
	Escaped bool
	Buffer  strings.Builder

	// Construct state owned by the active scanner, cleared after each token
	Name   strings.Builder
	Opened bool
	Depth  int
	Quoted bool
	Parts  []string
	Pairs  []token.Pair
	Key    string
	HasKey bool

	parser *Parser
}

func (c *Context) move(index int, escaped bool) {
	c.Index = index
	c.Current = c.Line[index]
	c.Previous = c.Peek(-1)
	c.Next = c.Peek(1)
	c.Escaped = escaped
}

// Peek returns the rune at offset from the current index, or 0 outside the line
func (c *Context) Peek(offset int) rune {
	i := c.Index + offset
	if i < 0 || i >= len(c.Line) {
		return 0
	}
	return c.Line[i]
}

// Is reports whether the current rune is r and carries its special meaning
func (c *Context) Is(r rune) bool {
	return c.Current == r && !c.Escaped
}

// IsEscape reports whether the current rune escapes the next one
func (c *Context) IsEscape() bool {
	return c.Is('\\')
}

// IsSpace reports whether the current rune is an unescaped whitespace
func (c *Context) IsSpace() bool {
	return !c.Escaped && unicode.IsSpace(c.Current)
}

// Tokenize runs the owning parser over a nested substring
func (c *Context) Tokenize(s string) ([]token.Token, error) {
	return c.parser.Tokenize(s, 0)
}

// Fail builds a token parse failure at the current position
func (c *Context) Fail(format string, args ...interface{}) *ckerror.Error {
	return ckerror.Newf(format, args...).
		WithCode(ckerror.CodeTokenParse).
		WithOperation("parser.Tokenize").
		WithDetail("position", c.Index).
		WithDetail("line", string(c.Line))
}

func (c *Context) reset() {
	c.Buffer.Reset()
	c.Name.Reset()
	c.Opened = false
	c.Depth = 0
	c.Quoted = false
	c.Parts = nil
	c.Pairs = nil
	c.Key = ""
	c.HasKey = false
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// literal applies escapes and drops unescaped double quotes
func literal(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
			continue
		case r == '"':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describe(r rune) string {
	if r == 0 {
		return "end of line"
	}
	return fmt.Sprintf("%q", r)
}
