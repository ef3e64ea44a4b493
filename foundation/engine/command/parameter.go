// File: parameter.go
// Title: Parameters and Restrictions
// Description: Parameter declarations with semantic type tags, defaults and
//              restriction predicates checked after resolution.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"strings"
)

// Type is the semantic type tag that selects a parameter's resolver
type Type string

const (
	TypeString    Type = "string"
	TypeInt       Type = "int"
	TypeFloat     Type = "float"
	TypeBool      Type = "bool"
	TypeDuration  Type = "duration"
	TypeEnum      Type = "enum"
	TypeActor     Type = "actor"
	TypeActors    Type = "actors"
	TypeStrings   Type = "strings"
	TypeStringMap Type = "map"
	TypePosition  Type = "position"
)

// DefaultPrecision is the fuzzy match threshold used when a parameter has
// no Precision restriction.
const DefaultPrecision = 0.6

// Parameter declares one argument of an overload
type Parameter struct {
	Name        string
	Description string
	Type        Type
	Default     any
	HasDefault  bool
	// Greedy takes the rest of the line. Only a final string parameter may
	// be greedy.
	Greedy       bool
	Restrictions Restrictions
}

// Restrictions are predicates applied to a resolved value
type Restrictions struct {
	// Precision is the minimum similarity for fuzzy lookups, 0 means default
	Precision float64
	HasRange  bool
	Min, Max  float64
	OneOf     []string
}

// ParamOption configures a Parameter
type ParamOption func(*Parameter)

// Param declares a parameter
func Param(name string, typ Type, opts ...ParamOption) Parameter {
	p := Parameter{Name: name, Type: typ}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Describe sets the parameter description
func Describe(description string) ParamOption {
	return func(p *Parameter) { p.Description = description }
}

// Default makes the parameter optional
func Default(value any) ParamOption {
	return func(p *Parameter) {
		p.Default = value
		p.HasDefault = true
	}
}

// Greedy makes a final string parameter take the rest of the line
func Greedy() ParamOption {
	return func(p *Parameter) { p.Greedy = true }
}

// Precision sets the fuzzy lookup threshold in (0,1]
func Precision(precision float64) ParamOption {
	return func(p *Parameter) { p.Restrictions.Precision = precision }
}

// Range bounds numeric values, inclusive
func Range(min, max float64) ParamOption {
	return func(p *Parameter) {
		p.Restrictions.HasRange = true
		p.Restrictions.Min = min
		p.Restrictions.Max = max
	}
}

// OneOf restricts enum values, compared case-insensitively
func OneOf(values ...string) ParamOption {
	return func(p *Parameter) { p.Restrictions.OneOf = values }
}

// Required reports whether the parameter has no default
func (p *Parameter) Required() bool {
	return !p.HasDefault
}

// EffectivePrecision returns the precision restriction or the default
func (p *Parameter) EffectivePrecision() float64 {
	if p.Restrictions.Precision > 0 {
		return p.Restrictions.Precision
	}
	return DefaultPrecision
}

// Check applies numeric and enum restrictions to a resolved value
func (p *Parameter) Check(value any) error {
	r := p.Restrictions
	if r.HasRange {
		var f float64
		switch v := value.(type) {
		case int:
			f = float64(v)
		case float64:
			f = v
		default:
			return nil
		}
		if f < r.Min || f > r.Max {
			return fmt.Errorf("%s must be between %v and %v", p.Name, r.Min, r.Max)
		}
	}
	if len(r.OneOf) > 0 {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		for _, allowed := range r.OneOf {
			if strings.EqualFold(s, allowed) {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s", p.Name, strings.Join(r.OneOf, ", "))
	}
	return nil
}

// Usage renders <name:type>, or [name:type=default] for optional parameters
func (p *Parameter) Usage() string {
	typ := string(p.Type)
	if p.Greedy {
		typ += "..."
	}
	if p.HasDefault {
		return fmt.Sprintf("[%s:%s=%v]", p.Name, typ, p.Default)
	}
	return fmt.Sprintf("<%s:%s>", p.Name, typ)
}
