// File: properties.go
// Title: Property References
// Description: Resolves $root.path references. The caller root is built in;
//              hosts register further roots.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

// PropertyFunc resolves the path below a registered root
type PropertyFunc func(ctx *command.Context, path []string) (any, error)

// Properties maps root names to property functions
type Properties struct {
	roots map[string]PropertyFunc
}

// NewProperties returns a table with the caller and actor roots
func NewProperties() *Properties {
	p := &Properties{roots: make(map[string]PropertyFunc)}
	p.Register("caller", callerProperty)
	p.Register("actor", actorProperty)
	return p
}

// Register adds or replaces a root
func (p *Properties) Register(root string, fn PropertyFunc) {
	p.roots[strings.ToLower(root)] = fn
}

// Lookup resolves a property path
func (p *Properties) Lookup(ctx *command.Context, path []string) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty property reference")
	}
	fn, ok := p.roots[strings.ToLower(path[0])]
	if !ok {
		return nil, fmt.Errorf("unknown property $%s", strings.Join(path, "."))
	}
	return fn(ctx, path[1:])
}

func callerProperty(ctx *command.Context, path []string) (any, error) {
	if ctx.Caller == nil {
		return nil, fmt.Errorf("no caller")
	}
	if len(path) == 0 {
		if self, ok := ctx.Self(); ok {
			return self, nil
		}
		return ctx.Caller.Name(), nil
	}
	switch strings.ToLower(path[0]) {
	case "id":
		return ctx.Caller.ID(), nil
	case "name":
		return ctx.Caller.Name(), nil
	}
	self, ok := ctx.Self()
	if !ok {
		return nil, fmt.Errorf("caller %s is not in the world", ctx.Caller.Name())
	}
	return actorField(self, path)
}

func actorProperty(ctx *command.Context, path []string) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("$actor needs a name")
	}
	a, err := LookupActor(ctx, path[0], command.DefaultPrecision)
	if err != nil {
		return nil, err
	}
	if len(path) == 1 {
		return a, nil
	}
	return actorField(a, path[1:])
}

func actorField(a command.Actor, path []string) (any, error) {
	if len(path) != 1 {
		return nil, fmt.Errorf("unknown actor property %s", strings.Join(path, "."))
	}
	switch strings.ToLower(path[0]) {
	case "id":
		return a.ID(), nil
	case "name":
		return a.Name(), nil
	case "alive":
		return a.Alive(), nil
	case "privileged":
		return a.Privileged(), nil
	}
	loc, ok := a.(command.Locatable)
	if !ok {
		return nil, fmt.Errorf("actor %s has no position", a.Name())
	}
	pos := loc.Position()
	switch strings.ToLower(path[0]) {
	case "position":
		return pos, nil
	case "x":
		return pos.X, nil
	case "y":
		return pos.Y, nil
	case "z":
		return pos.Z, nil
	default:
		return nil, fmt.Errorf("unknown actor property %s", path[0])
	}
}
