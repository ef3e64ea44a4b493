// File: args.go
// Title: Argument Buffer
// Description: Positional resolved arguments with typed accessors. Accessors
//              return the zero value for unset or mistyped positions.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import "time"

// Args holds one resolved value per overload parameter
type Args []any

// Has reports whether position i holds a value
func (a Args) Has(i int) bool {
	return i >= 0 && i < len(a) && a[i] != nil
}

// Detach returns a copy that no longer aliases the overload's buffer
func (a Args) Detach() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	copy(out, a)
	return out
}

func get[T any](a Args, i int) T {
	var zero T
	if !a.Has(i) {
		return zero
	}
	v, ok := a[i].(T)
	if !ok {
		return zero
	}
	return v
}

func (a Args) String(i int) string               { return get[string](a, i) }
func (a Args) Int(i int) int                     { return get[int](a, i) }
func (a Args) Float(i int) float64               { return get[float64](a, i) }
func (a Args) Bool(i int) bool                   { return get[bool](a, i) }
func (a Args) Duration(i int) time.Duration      { return get[time.Duration](a, i) }
func (a Args) Actor(i int) Actor                 { return get[Actor](a, i) }
func (a Args) Actors(i int) []Actor              { return get[[]Actor](a, i) }
func (a Args) Strings(i int) []string            { return get[[]string](a, i) }
func (a Args) StringMap(i int) map[string]string { return get[map[string]string](a, i) }
func (a Args) Position(i int) Vec3               { return get[Vec3](a, i) }
