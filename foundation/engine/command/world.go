// File: world.go
// Title: Host Collaborator Interfaces
// Description: Interfaces the engine consumes from its host: callers that
//              receive responses, the permission backend and the live actor
//              set used by actor resolvers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"math"
)

// Caller is the entity that submitted a command line
type Caller interface {
	ID() string
	Name() string
	// Deliver receives every response addressed to this caller together
	// with its formatted text.
	Deliver(resp *Response, text string)
}

// PermissionChecker is the permission backend
type PermissionChecker interface {
	HasPermission(caller Caller, permission string) bool
}

// PermissionFunc adapts a function to PermissionChecker
type PermissionFunc func(caller Caller, permission string) bool

// HasPermission calls f
func (f PermissionFunc) HasPermission(caller Caller, permission string) bool {
	return f(caller, permission)
}

// AllowAll grants every permission
var AllowAll = PermissionFunc(func(Caller, string) bool { return true })

// Actor is one member of the live actor set
type Actor interface {
	ID() string
	Name() string
	Alive() bool
	Privileged() bool
}

// Locatable is implemented by actors that have a position in the world
type Locatable interface {
	Position() Vec3
	// Facing returns the unit view direction
	Facing() Vec3
}

// World gives resolvers access to the live actor set
type World interface {
	// Actors returns a snapshot in a stable order
	Actors() []Actor
	// Actor finds an actor by exact id or case-insensitive name
	Actor(idOrName string) (Actor, bool)
}

// Vec3 is a position or direction in world space
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+o
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v*f
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Dot returns the dot product
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Length returns the euclidean length
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or v if it has zero length
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
