// File: parser.go
// Title: Command Line Tokenizer
// Description: Drives a chain of pluggable scanners over a raw command line,
//              one rune at a time, producing a token sequence. Tokenization is
//              all-or-nothing: any failure discards every token.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package parser

import (
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// Parser holds the ordered scanner chain. The chain is built at startup and
// read-only afterwards.
type Parser struct {
	scanners []Scanner
}

// New creates a parser. Without arguments the built-in chain is used:
// property, method call, collection, map, quoted, plain.
func New(scanners ...Scanner) *Parser {
	if len(scanners) == 0 {
		scanners = []Scanner{
			PropertyScanner{},
			MethodScanner{},
			CollectionScanner{},
			MapScanner{},
			QuotedScanner{},
			PlainScanner{},
		}
	}
	return &Parser{scanners: scanners}
}

// Register adds a scanner in front of the final catch-all scanner
func (p *Parser) Register(s Scanner) {
	if len(p.scanners) == 0 {
		p.scanners = append(p.scanners, s)
		return
	}
	last := len(p.scanners) - 1
	p.scanners = append(p.scanners[:last], s, p.scanners[last])
}

// Scanners returns the scanner names in priority order
func (p *Parser) Scanners() []string {
	names := make([]string, len(p.scanners))
	for i, s := range p.scanners {
		names[i] = s.Name()
	}
	return names
}

// Tokenize splits line into tokens. When max > 0 and more than max tokens
// are found, everything from token max-1 onwards is returned as one plain
// string: the rest of the line with escapes and quotes applied as for a
// single plain or quoted token, whitespace between the tokens kept.
func (p *Parser) Tokenize(line string, max int) ([]token.Token, error) {
	ctx := &Context{Line: []rune(line), parser: p}

	var (
		tokens    []token.Token
		starts    []int
		ends      []int
		active    Scanner
		separator bool
		escaped   bool
	)

	for i, r := range ctx.Line {
		ctx.move(i, escaped)
		escaped = r == '\\' && !ctx.Escaped

		if active != nil {
			if active.Terminates(ctx) {
				tok, err := active.Emit(ctx)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
				separator = active.Delimited()
				if separator {
					ends = append(ends, i+1)
				} else {
					ends = append(ends, i)
				}
				active = nil
				ctx.reset()
				continue
			}
			if err := active.Consume(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if ctx.IsSpace() {
			separator = false
			continue
		}
		if separator {
			return nil, ctx.Fail("expected whitespace after %s, found %s", tokens[len(tokens)-1].Kind(), describe(r))
		}
		for _, s := range p.scanners {
			if s.Starts(ctx) {
				active = s
				break
			}
		}
		if active == nil {
			return nil, ctx.Fail("no scanner accepts %s", describe(r))
		}
		starts = append(starts, i)
		if err := active.Consume(ctx); err != nil {
			return nil, err
		}
	}

	if escaped {
		return nil, ctx.Fail("dangling escape at end of line")
	}
	if active != nil {
		if active.Delimited() {
			return nil, ctx.Fail("unterminated %s", active.Name())
		}
		tok, err := active.Emit(ctx)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		ends = append(ends, len(ctx.Line))
	}

	if max > 0 && len(tokens) > max {
		rest := literal(string(ctx.Line[starts[max-1]:ends[len(ends)-1]]))
		tokens = append(tokens[:max-1], token.Plain(rest))
	}
	return tokens, nil
}

var defaultParser = New()

// Tokenize splits line with the built-in scanner chain
func Tokenize(line string, max int) ([]token.Token, error) {
	return defaultParser.Tokenize(line, max)
}
