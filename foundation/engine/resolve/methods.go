// File: methods.go
// Title: Method Table
// Description: Name to function table invoked by method-call tokens at
//              resolution time.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// MethodFunc evaluates a method-call token
type MethodFunc func(ctx *command.Context, call token.MethodCall) (any, error)

// Methods is the method table. It is filled at startup and read-only
// during dispatch.
type Methods struct {
	funcs map[string]MethodFunc
}

// NewMethods returns an empty table
func NewMethods() *Methods {
	return &Methods{funcs: make(map[string]MethodFunc)}
}

// Register adds or replaces a method; names are case-insensitive
func (m *Methods) Register(name string, fn MethodFunc) {
	m.funcs[strings.ToLower(name)] = fn
}

// Names returns the registered names in sorted order
func (m *Methods) Names() []string {
	names := make([]string, 0, len(m.funcs))
	for n := range m.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call invokes the method named by call. A panicking method becomes an
// error.
func (m *Methods) Call(ctx *command.Context, call token.MethodCall) (v any, err error) {
	fn, ok := m.funcs[strings.ToLower(call.Name)]
	if !ok {
		return nil, fmt.Errorf("unknown method %s()", call.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%s() panicked: %v", call.Name, r)
		}
	}()
	v, err = fn(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", call.Name, err)
	}
	return v, nil
}

// Eval evaluates any token to a value: plain strings stay strings, method
// calls are invoked, property references looked up, collections become
// []string and maps map[string]string.
func (s *Set) Eval(ctx *command.Context, tok token.Token) (any, error) {
	switch t := tok.(type) {
	case token.PlainString:
		return t.Value, nil
	case token.MethodCall:
		return s.Methods.Call(ctx, t)
	case token.PropertyRef:
		return s.Properties.Lookup(ctx, t.Path)
	case token.Collection:
		return stringList(ctx, nil, t.Items)
	case token.Map:
		return stringMap(ctx, nil, t.Entries)
	default:
		return nil, fmt.Errorf("unsupported token %T", tok)
	}
}
