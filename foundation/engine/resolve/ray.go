// File: ray.go
// Title: Ray Casting Methods
// Description: The ray, rayPoint and rayToPlayer methods. Worlds opt in by
//              implementing Raycaster; callers need a Locatable actor.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"
	"math"
	"strconv"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// DefaultRayDistance is used when ray() gets no distance
const DefaultRayDistance = 64.0

// Ray starts at the caster's position along its facing
type Ray struct {
	Caster    command.Actor
	Origin    command.Vec3
	Direction command.Vec3
	Distance  float64
	// Mask names what the ray can hit, interpreted by the world
	Mask string
}

// End returns the point at the full ray distance
func (r Ray) End() command.Vec3 {
	return r.Origin.Add(r.Direction.Scale(r.Distance))
}

// RayHit is the first intersection of a ray
type RayHit struct {
	Point    command.Vec3
	Actor    command.Actor
	Distance float64
}

// Raycaster is implemented by worlds that support ray casting
type Raycaster interface {
	Raycast(ray Ray) (RayHit, bool)
}

func (s *Set) registerRays() {
	s.Methods.Register("ray", s.ray)
	s.Methods.Register("rayPoint", s.rayPoint)
	s.Methods.Register("rayToPlayer", s.rayToPlayer)
}

// ray(distance_or_mask)
func (s *Set) ray(ctx *command.Context, call token.MethodCall) (any, error) {
	self, ok := ctx.Self()
	if !ok {
		return nil, fmt.Errorf("requires an in-world caller")
	}
	loc, ok := self.(command.Locatable)
	if !ok {
		return nil, fmt.Errorf("caller has no position")
	}
	r := Ray{
		Caster:    self,
		Origin:    loc.Position(),
		Direction: loc.Facing().Normalize(),
		Distance:  DefaultRayDistance,
	}
	if len(call.Args) > 1 {
		return nil, fmt.Errorf("expected at most one argument, got %d", len(call.Args))
	}
	if len(call.Args) == 1 {
		v, err := s.Eval(ctx, call.Args[0])
		if err != nil {
			return nil, err
		}
		switch a := v.(type) {
		case float64:
			r.Distance = a
		case int:
			r.Distance = float64(a)
		case string:
			if d, err := strconv.ParseFloat(a, 64); err == nil {
				r.Distance = d
			} else {
				r.Mask = a
			}
		default:
			return nil, fmt.Errorf("cannot use %T as distance or mask", v)
		}
	}
	if math.IsNaN(r.Distance) || math.IsInf(r.Distance, 0) || r.Distance <= 0 {
		return nil, fmt.Errorf("distance must be a positive finite number")
	}
	return r, nil
}

func (s *Set) castArg(ctx *command.Context, call token.MethodCall) (Ray, RayHit, bool, error) {
	var (
		v   any
		err error
	)
	switch len(call.Args) {
	case 0:
		v, err = s.ray(ctx, token.MethodCall{Name: "ray"})
	case 1:
		v, err = s.Eval(ctx, call.Args[0])
	default:
		return Ray{}, RayHit{}, false, fmt.Errorf("expected one ray argument, got %d", len(call.Args))
	}
	if err != nil {
		return Ray{}, RayHit{}, false, err
	}
	r, ok := v.(Ray)
	if !ok {
		return Ray{}, RayHit{}, false, fmt.Errorf("expected a ray, got %T", v)
	}
	caster, ok := ctx.World.(Raycaster)
	if !ok {
		return Ray{}, RayHit{}, false, fmt.Errorf("world does not support ray casting")
	}
	hit, ok := caster.Raycast(r)
	return r, hit, ok, nil
}

// rayPoint(ray) returns the hit point, or the ray's end when nothing is hit
func (s *Set) rayPoint(ctx *command.Context, call token.MethodCall) (any, error) {
	r, hit, ok, err := s.castArg(ctx, call)
	if err != nil {
		return nil, err
	}
	if !ok {
		return r.End(), nil
	}
	return hit.Point, nil
}

// rayToPlayer(ray) returns the first actor hit
func (s *Set) rayToPlayer(ctx *command.Context, call token.MethodCall) (any, error) {
	_, hit, ok, err := s.castArg(ctx, call)
	if err != nil {
		return nil, err
	}
	if !ok || hit.Actor == nil {
		return nil, fmt.Errorf("no actor in sight")
	}
	return hit.Actor, nil
}
