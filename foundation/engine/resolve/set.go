// File: set.go
// Title: Resolver Set
// Description: Binds every semantic parameter type to its resolver and owns
//              the method table and property roots the resolvers evaluate.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// Set is the resolver table of one engine
type Set struct {
	Methods    *Methods
	Properties *Properties
	resolvers  map[command.Type]command.Resolver
}

// NewSet returns a set with every built-in type, the ray methods and the
// caller/actor property roots.
func NewSet() *Set {
	s := &Set{
		Methods:    NewMethods(),
		Properties: NewProperties(),
		resolvers:  make(map[command.Type]command.Resolver),
	}

	s.add(command.TypeString, parseString, adaptString, nil, nil)
	s.add(command.TypeInt, parseInt, adaptInt, nil, nil)
	s.add(command.TypeFloat, parseFloat, adaptFloat, nil, nil)
	s.add(command.TypeBool, parseBool, adaptBool, nil, nil)
	s.add(command.TypeDuration, parseDuration, nil, nil, nil)
	s.add(command.TypeEnum, parseEnum, nil, nil, nil)
	s.add(command.TypeActor, parseActor, adaptActor, nil, nil)
	s.add(command.TypeActors, parseActors, adaptActors, collectActors, nil)
	s.add(command.TypeStrings, func(_ *command.Context, _ *command.Parameter, v string) (any, error) {
		return []string{v}, nil
	}, adaptStringList, stringList, nil)
	s.add(command.TypeStringMap, parseStringMap, adaptStringMap, nil, stringMap)
	s.add(command.TypePosition, parsePosition, adaptPosition, collectPosition, mapPosition)

	s.registerRays()
	return s
}

func (s *Set) add(t command.Type, plain plainFunc, adapt adaptFunc, collection collectionFunc, mapping mapFunc) {
	s.resolvers[t] = &typed{
		name:       string(t),
		set:        s,
		plain:      plain,
		adapt:      adapt,
		collection: collection,
		mapping:    mapping,
	}
}

// Register binds a custom resolver to a type, replacing any built-in
func (s *Set) Register(t command.Type, r command.Resolver) {
	s.resolvers[t] = r
}

// For returns the resolver bound to a type
func (s *Set) For(t command.Type) (command.Resolver, bool) {
	r, ok := s.resolvers[t]
	return r, ok
}

// Bind selects the resolver of every parameter of o
func (s *Set) Bind(o *command.Overload) error {
	o.Resolvers = make([]command.Resolver, len(o.Params))
	for i := range o.Params {
		r, ok := s.For(o.Params[i].Type)
		if !ok {
			return fmt.Errorf("no resolver for parameter %s of type %s", o.Params[i].Name, o.Params[i].Type)
		}
		o.Resolvers[i] = r
	}
	return nil
}

func adaptBool(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as bool", v)
}

func parsePosition(ctx *command.Context, p *command.Parameter, s string) (any, error) {
	if parts := strings.Split(s, ","); len(parts) == 3 {
		return vecFrom(parts)
	}
	a, err := parseActor(ctx, p, s)
	if err != nil {
		return nil, fmt.Errorf("%q is neither x,y,z nor a known actor", s)
	}
	return adaptPosition(ctx, p, a)
}

func collectPosition(_ *command.Context, _ *command.Parameter, items []string) (any, error) {
	if len(items) != 3 {
		return nil, fmt.Errorf("a position needs 3 coordinates, got %d", len(items))
	}
	return vecFrom(items)
}

func mapPosition(_ *command.Context, _ *command.Parameter, entries []token.Pair) (any, error) {
	m := token.Map{Entries: entries}
	coords := make([]string, 3)
	for i, key := range []string{"x", "y", "z"} {
		v, ok := m.Get(key)
		if !ok {
			return nil, fmt.Errorf("position is missing %s", key)
		}
		coords[i] = v
	}
	return vecFrom(coords)
}

func adaptPosition(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	switch t := v.(type) {
	case command.Vec3:
		return t, nil
	case RayHit:
		return t.Point, nil
	case Ray:
		return t.End(), nil
	case command.Locatable:
		return t.Position(), nil
	default:
		return nil, fmt.Errorf("cannot use %T as position", v)
	}
}

func vecFrom(parts []string) (command.Vec3, error) {
	var f [3]float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return command.Vec3{}, fmt.Errorf("coordinate %q is not a number", part)
		}
		f[i] = n
	}
	return command.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}
