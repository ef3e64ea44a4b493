// File: resolver.go
// Title: Parameter Resolvers
// Description: One resolver per semantic parameter type. A resolver handles
//              every token variant it supports: plain strings are parsed,
//              method calls and property references are evaluated and the
//              result adapted to the parameter's shape.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

type (
	plainFunc      func(ctx *command.Context, p *command.Parameter, s string) (any, error)
	adaptFunc      func(ctx *command.Context, p *command.Parameter, v any) (any, error)
	collectionFunc func(ctx *command.Context, p *command.Parameter, items []string) (any, error)
	mapFunc        func(ctx *command.Context, p *command.Parameter, entries []token.Pair) (any, error)
)

// typed is a resolver assembled from per-variant functions. A nil function
// means the variant is not accepted.
type typed struct {
	name       string
	set        *Set
	plain      plainFunc
	adapt      adaptFunc
	collection collectionFunc
	mapping    mapFunc
}

func (r *typed) Name() string { return r.name }

// Resolve implements command.Resolver
func (r *typed) Resolve(tokens []token.Token, index int, ctx *command.Context, p *command.Parameter) command.ParseResult {
	res := command.ParseResult{Param: p, Resolver: r}
	if index < 0 || index >= len(tokens) {
		if p.HasDefault {
			res.Success = true
			res.Value = p.Default
			return res
		}
		res.Err = missing(p)
		return res
	}

	v, err := r.value(tokens[index], ctx, p)
	if err == nil {
		err = p.Check(v)
	}
	if err != nil {
		res.Err = invalid(p, err)
		return res
	}
	res.Success = true
	res.Value = v
	return res
}

func (r *typed) value(tok token.Token, ctx *command.Context, p *command.Parameter) (any, error) {
	switch t := tok.(type) {
	case token.PlainString:
		return r.plain(ctx, p, t.Value)
	case token.MethodCall:
		v, err := r.set.Methods.Call(ctx, t)
		if err != nil {
			return nil, err
		}
		return r.convert(ctx, p, v)
	case token.PropertyRef:
		v, err := r.set.Properties.Lookup(ctx, t.Path)
		if err != nil {
			return nil, err
		}
		return r.convert(ctx, p, v)
	case token.Collection:
		if r.collection == nil {
			return nil, unsupported("collection", p)
		}
		return r.collection(ctx, p, t.Items)
	case token.Map:
		if r.mapping == nil {
			return nil, unsupported("map", p)
		}
		return r.mapping(ctx, p, t.Entries)
	default:
		return nil, fmt.Errorf("unsupported token %T", tok)
	}
}

func (r *typed) convert(ctx *command.Context, p *command.Parameter, v any) (any, error) {
	if s, ok := v.(string); ok {
		return r.plain(ctx, p, s)
	}
	if r.adapt == nil {
		return nil, fmt.Errorf("cannot use %T as %s", v, p.Type)
	}
	return r.adapt(ctx, p, v)
}

// ResolveAll resolves every parameter of o. Every parameter is attempted so
// the diagnostics are complete; the arguments are returned only when the
// resolved count covers the required count and no parameter failed.
func ResolveAll(ctx *command.Context, o *command.Overload, tokens []token.Token) (command.Args, []command.ParseResult, error) {
	args := o.Buffer()
	results := make([]command.ParseResult, len(o.Params))

	resolved := 0
	var diagnostics []string
	code := ckerror.CodeMissingArguments
	for i := range o.Params {
		p := &o.Params[i]
		var res command.ParseResult
		if i < len(o.Resolvers) && o.Resolvers[i] != nil {
			res = o.Resolvers[i].Resolve(tokens, i, ctx, p)
		} else {
			res = command.ParseResult{Param: p, Err: invalid(p, fmt.Errorf("no resolver for type %s", p.Type))}
		}
		results[i] = res
		if res.Success {
			args[i] = res.Value
			resolved++
			continue
		}
		diagnostics = append(diagnostics, res.Err.Error())
		if ckerror.GetCode(res.Err) != ckerror.CodeMissingArguments {
			code = ckerror.CodeInvalidArguments
		}
	}

	if resolved >= o.Required() && len(diagnostics) == 0 {
		return args, results, nil
	}

	msg := "missing arguments"
	if code == ckerror.CodeInvalidArguments {
		msg = "invalid arguments"
	}
	return nil, results, ckerror.New(msg).
		WithCode(code).
		WithOperation("resolve.ResolveAll").
		WithDetail("diagnostics", diagnostics)
}

func parseInt(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func adaptInt(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n != float64(int(n)) {
			return nil, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	default:
		return nil, fmt.Errorf("cannot use %T as int", v)
	}
}

func parseFloat(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func adaptFloat(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return nil, fmt.Errorf("cannot use %T as float", v)
	}
}

func parseBool(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return nil, fmt.Errorf("%q is not a boolean", s)
	}
}

func parseDuration(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a duration", s)
	}
	return d, nil
}

func parseEnum(_ *command.Context, p *command.Parameter, s string) (any, error) {
	if len(p.Restrictions.OneOf) == 0 {
		return s, nil
	}
	for _, allowed := range p.Restrictions.OneOf {
		if strings.EqualFold(s, allowed) {
			return allowed, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %s", s, strings.Join(p.Restrictions.OneOf, ", "))
}

func parseString(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	return s, nil
}

func adaptString(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	return fmt.Sprint(v), nil
}

func stringList(_ *command.Context, _ *command.Parameter, items []string) (any, error) {
	out := make([]string, len(items))
	copy(out, items)
	return out, nil
}

func adaptStringList(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	switch l := v.(type) {
	case []string:
		return l, nil
	case []any:
		out := make([]string, len(l))
		for i, item := range l {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	default:
		return []string{fmt.Sprint(v)}, nil
	}
}

func stringMap(_ *command.Context, _ *command.Parameter, entries []token.Pair) (any, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

func parseStringMap(_ *command.Context, _ *command.Parameter, s string) (any, error) {
	key, value, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%q is not a key:value pair", s)
	}
	return map[string]string{strings.TrimSpace(key): strings.TrimSpace(value)}, nil
}

func adaptStringMap(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	if m, ok := v.(map[string]string); ok {
		return m, nil
	}
	return nil, fmt.Errorf("cannot use %T as map", v)
}
