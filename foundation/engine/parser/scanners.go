// File: scanners.go
// Title: Construct Scanners
// Description: Built-in scanners for property references, method calls,
//              collection and map literals, quoted strings and plain words.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package parser

import (
	"strings"
	"unicode"

	"github.com/msto63/cmdkit/foundation/engine/token"
	"github.com/msto63/cmdkit/foundation/utils/stringx"
)

// Scanner consumes one construct of a command line. The tokenizer activates
// the first scanner whose Starts returns true, feeds it every following rune
// through Consume, and emits its token once Terminates returns true.
type Scanner interface {
	Name() string
	Starts(ctx *Context) bool
	Terminates(ctx *Context) bool
	Consume(ctx *Context) error
	Emit(ctx *Context) (token.Token, error)
	// Delimited scanners end on an explicit closing rune. Reaching the end
	// of the line inside one is a parse failure.
	Delimited() bool
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// PropertyScanner reads $segment.segment references
type PropertyScanner struct{}

func (PropertyScanner) Name() string    { return "property" }
func (PropertyScanner) Delimited() bool { return false }

func (PropertyScanner) Starts(ctx *Context) bool {
	return ctx.Is('$') && isIdentStart(ctx.Next)
}

func (PropertyScanner) Terminates(ctx *Context) bool {
	return ctx.IsSpace()
}

func (PropertyScanner) Consume(ctx *Context) error {
	switch {
	case !ctx.Opened:
		ctx.Opened = true
	case ctx.IsEscape():
	default:
		ctx.Buffer.WriteRune(ctx.Current)
	}
	return nil
}

func (PropertyScanner) Emit(ctx *Context) (token.Token, error) {
	path := strings.Split(ctx.Buffer.String(), ".")
	for _, seg := range path {
		if seg == "" {
			return nil, ctx.Fail("empty segment in property reference $%s", ctx.Buffer.String())
		}
	}
	return token.PropertyRef{Path: path}, nil
}

// MethodScanner reads name(arg;arg) calls. Parentheses are depth counted and
// ignored inside double quotes; arguments are tokenized again on emit.
type MethodScanner struct{}

func (MethodScanner) Name() string    { return "method call" }
func (MethodScanner) Delimited() bool { return true }

func (MethodScanner) Starts(ctx *Context) bool {
	if ctx.Escaped || !isIdentStart(ctx.Current) {
		return false
	}
	for i := ctx.Index; i < len(ctx.Line); i++ {
		r := ctx.Line[i]
		if r == '(' {
			return i > ctx.Index
		}
		if !isIdent(r) {
			return false
		}
	}
	return false
}

func (MethodScanner) Terminates(ctx *Context) bool {
	return ctx.Opened && !ctx.Quoted && ctx.Depth == 1 && ctx.Is(')')
}

func (MethodScanner) Consume(ctx *Context) error {
	if !ctx.Opened {
		if ctx.Is('(') {
			ctx.Opened = true
			ctx.Depth = 1
			return nil
		}
		ctx.Name.WriteRune(ctx.Current)
		return nil
	}

	switch {
	case ctx.Escaped || ctx.IsEscape():
		// escapes are resolved when the argument is tokenized
	case ctx.Is('"'):
		ctx.Quoted = !ctx.Quoted
	case ctx.Quoted:
	case ctx.Is('('):
		ctx.Depth++
	case ctx.Is(')'):
		ctx.Depth--
	case ctx.Is(';') && ctx.Depth == 1:
		ctx.Parts = append(ctx.Parts, ctx.Buffer.String())
		ctx.Buffer.Reset()
		return nil
	}
	ctx.Buffer.WriteRune(ctx.Current)
	return nil
}

func (MethodScanner) Emit(ctx *Context) (token.Token, error) {
	name := ctx.Name.String()
	raw := ctx.Parts
	if len(raw) > 0 || stringx.IsNotBlank(ctx.Buffer.String()) {
		raw = append(raw, ctx.Buffer.String())
	}

	var args []token.Token
	for _, part := range raw {
		tokens, err := ctx.Tokenize(part)
		if err != nil {
			return nil, ctx.Fail("argument %q of %s(): %v", strings.TrimSpace(part), name, err)
		}
		switch len(tokens) {
		case 0:
			args = append(args, token.Plain(""))
		case 1:
			args = append(args, tokens[0])
		default:
			args = append(args, token.Plain(unescape(strings.TrimSpace(part))))
		}
	}
	return token.MethodCall{Name: name, Args: args}, nil
}

// CollectionScanner reads [a,b,c] literals
type CollectionScanner struct{}

func (CollectionScanner) Name() string    { return "collection" }
func (CollectionScanner) Delimited() bool { return true }

func (CollectionScanner) Starts(ctx *Context) bool {
	return ctx.Is('[')
}

func (CollectionScanner) Terminates(ctx *Context) bool {
	return ctx.Opened && ctx.Is(']')
}

func (CollectionScanner) Consume(ctx *Context) error {
	switch {
	case !ctx.Opened:
		ctx.Opened = true
	case ctx.IsEscape():
	case ctx.Is(','):
		ctx.Parts = append(ctx.Parts, ctx.Buffer.String())
		ctx.Buffer.Reset()
	default:
		ctx.Buffer.WriteRune(ctx.Current)
	}
	return nil
}

func (CollectionScanner) Emit(ctx *Context) (token.Token, error) {
	raw := ctx.Parts
	if len(raw) > 0 || stringx.IsNotBlank(ctx.Buffer.String()) {
		raw = append(raw, ctx.Buffer.String())
	}
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, ctx.Fail("empty item in collection literal")
		}
		items = append(items, item)
	}
	return token.Collection{Items: items}, nil
}

// MapScanner reads {key:value,key:value} literals
type MapScanner struct{}

func (MapScanner) Name() string    { return "map" }
func (MapScanner) Delimited() bool { return true }

func (MapScanner) Starts(ctx *Context) bool {
	return ctx.Is('{')
}

func (MapScanner) Terminates(ctx *Context) bool {
	return ctx.Opened && ctx.Is('}')
}

func (MapScanner) Consume(ctx *Context) error {
	switch {
	case !ctx.Opened:
		ctx.Opened = true
	case ctx.IsEscape():
	case ctx.Is(':') && !ctx.HasKey:
		ctx.Key = ctx.Buffer.String()
		ctx.HasKey = true
		ctx.Buffer.Reset()
	case ctx.Is(','):
		return closeEntry(ctx)
	default:
		ctx.Buffer.WriteRune(ctx.Current)
	}
	return nil
}

func (MapScanner) Emit(ctx *Context) (token.Token, error) {
	if ctx.HasKey || stringx.IsNotBlank(ctx.Buffer.String()) {
		if err := closeEntry(ctx); err != nil {
			return nil, err
		}
	}
	return token.Map{Entries: ctx.Pairs}, nil
}

func closeEntry(ctx *Context) error {
	if !ctx.HasKey {
		return ctx.Fail("map entry %q has no key", strings.TrimSpace(ctx.Buffer.String()))
	}
	key := strings.TrimSpace(ctx.Key)
	if key == "" {
		return ctx.Fail("map entry with empty key")
	}
	ctx.Pairs = append(ctx.Pairs, token.Pair{Key: key, Value: strings.TrimSpace(ctx.Buffer.String())})
	ctx.Key = ""
	ctx.HasKey = false
	ctx.Buffer.Reset()
	return nil
}

// QuotedScanner reads "delimited strings" that may contain whitespace
type QuotedScanner struct{}

func (QuotedScanner) Name() string    { return "quoted string" }
func (QuotedScanner) Delimited() bool { return true }

func (QuotedScanner) Starts(ctx *Context) bool {
	return ctx.Is('"')
}

func (QuotedScanner) Terminates(ctx *Context) bool {
	return ctx.Opened && ctx.Is('"')
}

func (QuotedScanner) Consume(ctx *Context) error {
	switch {
	case !ctx.Opened:
		ctx.Opened = true
	case ctx.IsEscape():
	default:
		ctx.Buffer.WriteRune(ctx.Current)
	}
	return nil
}

func (QuotedScanner) Emit(ctx *Context) (token.Token, error) {
	return token.Plain(ctx.Buffer.String()), nil
}

// PlainScanner accepts anything and reads until unescaped whitespace. It
// must stay last in the chain.
type PlainScanner struct{}

func (PlainScanner) Name() string    { return "string" }
func (PlainScanner) Delimited() bool { return false }

func (PlainScanner) Starts(ctx *Context) bool {
	return true
}

func (PlainScanner) Terminates(ctx *Context) bool {
	return ctx.IsSpace()
}

func (PlainScanner) Consume(ctx *Context) error {
	if !ctx.IsEscape() {
		ctx.Buffer.WriteRune(ctx.Current)
	}
	return nil
}

func (PlainScanner) Emit(ctx *Context) (token.Token, error) {
	return token.Plain(ctx.Buffer.String()), nil
}
