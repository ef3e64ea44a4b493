// File: actors.go
// Title: Actor Resolution and Sigils
// Description: Resolves actor and actor-list parameters. Sigils select
//              computed sets: @me, * (all), ! after * (exclude invoker),
//              & (alive) and | (privileged) with a trailing ! negating the
//              filter. Other strings go through exact then fuzzy lookup.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/utils/stringx"
)

// Self is the sigil for the invoking caller
const Self = "@me"

type filter int

const (
	filterNone filter = iota
	filterAlive
	filterPrivileged
)

// Sigil is a parsed actor-set shortcut
type Sigil struct {
	Self        bool
	ExcludeSelf bool
	filter      filter
	Negate      bool
}

// ParseSigil parses s as a sigil. ok is false for ordinary names.
func ParseSigil(s string) (Sigil, bool) {
	if s == Self {
		return Sigil{Self: true}, true
	}
	rest, ok := strings.CutPrefix(s, "*")
	if !ok {
		return Sigil{}, false
	}
	var sg Sigil
	if r, ok := strings.CutPrefix(rest, "!"); ok {
		sg.ExcludeSelf = true
		rest = r
	}
	if rest == "" {
		return sg, true
	}
	switch rest[0] {
	case '&':
		sg.filter = filterAlive
	case '|':
		sg.filter = filterPrivileged
	default:
		return Sigil{}, false
	}
	switch rest[1:] {
	case "":
	case "!":
		sg.Negate = true
	default:
		return Sigil{}, false
	}
	return sg, true
}

// Select applies the sigil to the world's actors in world order
func (sg Sigil) Select(ctx *command.Context) ([]command.Actor, error) {
	if ctx.World == nil {
		return nil, fmt.Errorf("no world available")
	}
	if sg.Self {
		self, ok := ctx.Self()
		if !ok {
			return nil, fmt.Errorf("%s requires an in-world caller", Self)
		}
		return []command.Actor{self}, nil
	}

	var selfID string
	if ctx.Caller != nil {
		selfID = ctx.Caller.ID()
	}
	var out []command.Actor
	for _, a := range ctx.World.Actors() {
		if sg.ExcludeSelf && a.ID() == selfID {
			continue
		}
		switch sg.filter {
		case filterAlive:
			if a.Alive() == sg.Negate {
				continue
			}
		case filterPrivileged:
			if a.Privileged() == sg.Negate {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// LookupActor finds an actor by exact id or name first, then by the best
// name similarity at or above precision. Ties keep world order.
func LookupActor(ctx *command.Context, name string, precision float64) (command.Actor, error) {
	if ctx.World == nil {
		return nil, fmt.Errorf("no world available")
	}
	if a, ok := ctx.World.Actor(name); ok {
		return a, nil
	}
	var (
		best      command.Actor
		bestScore float64
	)
	for _, a := range ctx.World.Actors() {
		score := stringx.Similarity(name, a.Name())
		if score >= precision && score > bestScore {
			best, bestScore = a, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no actor matches %q", name)
	}
	return best, nil
}

func actorsFromString(ctx *command.Context, p *command.Parameter, s string) ([]command.Actor, error) {
	if sg, ok := ParseSigil(s); ok {
		actors, err := sg.Select(ctx)
		if err != nil {
			return nil, err
		}
		if len(actors) == 0 {
			return nil, fmt.Errorf("%s matches no actors", s)
		}
		return actors, nil
	}
	a, err := LookupActor(ctx, s, p.EffectivePrecision())
	if err != nil {
		return nil, err
	}
	return []command.Actor{a}, nil
}

func parseActors(ctx *command.Context, p *command.Parameter, s string) (any, error) {
	return actorsFromString(ctx, p, s)
}

func collectActors(ctx *command.Context, p *command.Parameter, items []string) (any, error) {
	seen := make(map[string]bool)
	var out []command.Actor
	for _, item := range items {
		actors, err := actorsFromString(ctx, p, item)
		if err != nil {
			return nil, err
		}
		for _, a := range actors {
			if !seen[a.ID()] {
				seen[a.ID()] = true
				out = append(out, a)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty actor list")
	}
	return out, nil
}

func adaptActors(_ *command.Context, _ *command.Parameter, v any) (any, error) {
	switch a := v.(type) {
	case command.Actor:
		return []command.Actor{a}, nil
	case []command.Actor:
		return a, nil
	case RayHit:
		if a.Actor == nil {
			return nil, fmt.Errorf("no actor was hit")
		}
		return []command.Actor{a.Actor}, nil
	default:
		return nil, fmt.Errorf("cannot use %T as actors", v)
	}
}

func parseActor(ctx *command.Context, p *command.Parameter, s string) (any, error) {
	if s == Self {
		self, ok := ctx.Self()
		if !ok {
			return nil, fmt.Errorf("%s requires an in-world caller", Self)
		}
		return self, nil
	}
	return LookupActor(ctx, s, p.EffectivePrecision())
}

func adaptActor(ctx *command.Context, p *command.Parameter, v any) (any, error) {
	list, err := adaptActors(ctx, p, v)
	if err != nil {
		return nil, err
	}
	actors := list.([]command.Actor)
	if len(actors) != 1 {
		return nil, fmt.Errorf("expected one actor, got %d", len(actors))
	}
	return actors[0], nil
}
