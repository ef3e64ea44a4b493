// File: token.go
// Title: Command Line Token Model
// Description: Tagged token variants produced by the tokenizer: plain strings,
//              nested method calls, collection and map literals and property
//              references. Tokens are immutable once emitted.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package token

import (
	"strings"
)

// Kind identifies a token variant
type Kind int

const (
	KindPlain Kind = iota
	KindMethod
	KindCollection
	KindMap
	KindProperty
)

// String returns the name of the token kind
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "string"
	case KindMethod:
		return "method"
	case KindCollection:
		return "collection"
	case KindMap:
		return "map"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Token is a lexical unit of a command line. The set of implementations is
// closed; switch on the concrete type or on Kind.
type Token interface {
	Kind() Kind
	// String renders the token back in command line syntax
	String() string
	token()
}

// PlainString is a literal word, a quoted string or an escaped run
type PlainString struct {
	Value string
}

// MethodCall is name(arg;arg;...) with arguments tokenized recursively
type MethodCall struct {
	Name string
	Args []Token
}

// Collection is an ordered literal list: [a,b,c]
type Collection struct {
	Items []string
}

// Pair is one key/value entry of a Map
type Pair struct {
	Key   string
	Value string
}

// Map is an ordered key/value literal: {k:v,k2:v2}
type Map struct {
	Entries []Pair
}

// PropertyRef is a dotted path reference: $caller.name
type PropertyRef struct {
	Path []string
}

func (PlainString) Kind() Kind { return KindPlain }
func (MethodCall) Kind() Kind  { return KindMethod }
func (Collection) Kind() Kind  { return KindCollection }
func (Map) Kind() Kind         { return KindMap }
func (PropertyRef) Kind() Kind { return KindProperty }

func (PlainString) token() {}
func (MethodCall) token()  {}
func (Collection) token()  {}
func (Map) token()         {}
func (PropertyRef) token() {}

func (t PlainString) String() string {
	return t.Value
}

func (t MethodCall) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "(" + strings.Join(args, ";") + ")"
}

func (t Collection) String() string {
	return "[" + strings.Join(t.Items, ",") + "]"
}

func (t Map) String() string {
	entries := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = e.Key + ":" + e.Value
	}
	return "{" + strings.Join(entries, ",") + "}"
}

func (t PropertyRef) String() string {
	return "$" + strings.Join(t.Path, ".")
}

// Get returns the value of the first entry with the given key
func (t Map) Get(key string) (string, bool) {
	for _, e := range t.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Plain wraps a string as a PlainString token
func Plain(value string) Token {
	return PlainString{Value: value}
}

// Plains wraps each string as a PlainString token
func Plains(values ...string) []Token {
	tokens := make([]Token, len(values))
	for i, v := range values {
		tokens[i] = PlainString{Value: v}
	}
	return tokens
}

// Strings renders every token with String
func Strings(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}
