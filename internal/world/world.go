package world

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/resolve"
)

// MaxHealth is the health of a freshly spawned or healed entity
const MaxHealth = 20

// HitRadius is the radius of the sphere rays test entities against
const HitRadius = 0.6

// Ray masks understood by Raycast
const (
	MaskActors = "actors"
	MaskGround = "ground"
	MaskAll    = "all"
)

// Entity is an actor of the in-memory world
type Entity struct {
	id         string
	name       string
	privileged bool

	mu        sync.RWMutex
	health    int
	position  command.Vec3
	facing    command.Vec3
	inventory map[string]int
}

// NewEntity creates a living entity at the origin facing +X
func NewEntity(id, name string, privileged bool) *Entity {
	return &Entity{
		id:         id,
		name:       name,
		privileged: privileged,
		health:     MaxHealth,
		facing:     command.Vec3{X: 1},
		inventory:  map[string]int{},
	}
}

func (e *Entity) ID() string       { return e.id }
func (e *Entity) Name() string     { return e.name }
func (e *Entity) Privileged() bool { return e.privileged }

// Alive reports whether the entity has health left
func (e *Entity) Alive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.health > 0
}

// Health returns the current health
func (e *Entity) Health() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.health
}

// Position implements command.Locatable
func (e *Entity) Position() command.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// Facing implements command.Locatable
func (e *Entity) Facing() command.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.facing
}

// Place moves the entity and turns it towards facing
func (e *Entity) Place(position, facing command.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	if facing.Length() > 0 {
		e.facing = facing.Normalize()
	}
}

// Teleport moves the entity keeping its facing
func (e *Entity) Teleport(position command.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
}

// Give adds count items and returns the new amount
func (e *Entity) Give(item string, count int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	item = strings.ToLower(item)
	e.inventory[item] += count
	return e.inventory[item]
}

// Count returns how many of item the entity holds
func (e *Entity) Count(item string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inventory[strings.ToLower(item)]
}

// Inventory returns a copy of the inventory
func (e *Entity) Inventory() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int, len(e.inventory))
	for k, v := range e.inventory {
		out[k] = v
	}
	return out
}

// Clear empties the inventory and returns how many items were removed
func (e *Entity) Clear() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.inventory {
		n += c
	}
	e.inventory = map[string]int{}
	return n
}

// Damage lowers health, never below zero, and returns what is left
func (e *Entity) Damage(amount int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.health = max(0, e.health-amount)
	return e.health
}

// Kill sets health to zero
func (e *Entity) Kill() {
	e.Damage(MaxHealth)
}

// Heal restores health up to MaxHealth. Dead entities are revived.
func (e *Entity) Heal(amount int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.health = min(MaxHealth, e.health+amount)
	return e.health
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s) hp=%d at %s", e.name, e.id, e.Health(), e.Position())
}

// World is an in-memory actor set with ray casting against entity spheres
// and a flat ground plane.
type World struct {
	mu       sync.RWMutex
	entities []*Entity
	// Ground is the height of the ground plane
	Ground float64
}

// New creates an empty world
func New() *World {
	return &World{}
}

// Add inserts an entity. Ids and names must be unique.
func (w *World) Add(e *Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, other := range w.entities {
		if other.id == e.id || strings.EqualFold(other.name, e.name) {
			return fmt.Errorf("entity %s already exists", e.name)
		}
	}
	w.entities = append(w.entities, e)
	return nil
}

// Spawn creates and adds a living entity at position
func (w *World) Spawn(id, name string, privileged bool, position command.Vec3) (*Entity, error) {
	e := NewEntity(id, name, privileged)
	e.Teleport(position)
	if err := w.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Remove deletes the entity with the given id
func (w *World) Remove(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.entities {
		if e.id == id {
			w.entities = append(w.entities[:i], w.entities[i+1:]...)
			return true
		}
	}
	return false
}

// Entities returns a snapshot sorted by name
func (w *World) Entities() []*Entity {
	w.mu.RLock()
	out := make([]*Entity, len(w.entities))
	copy(out, w.entities)
	w.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].name) < strings.ToLower(out[j].name) })
	return out
}

// Entity finds an entity by exact id or case-insensitive name
func (w *World) Entity(idOrName string) (*Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, e := range w.entities {
		if e.id == idOrName {
			return e, true
		}
	}
	for _, e := range w.entities {
		if strings.EqualFold(e.name, idOrName) {
			return e, true
		}
	}
	return nil, false
}

// Actors implements command.World
func (w *World) Actors() []command.Actor {
	entities := w.Entities()
	out := make([]command.Actor, len(entities))
	for i, e := range entities {
		out[i] = e
	}
	return out
}

// Actor implements command.World
func (w *World) Actor(idOrName string) (command.Actor, bool) {
	e, ok := w.Entity(idOrName)
	if !ok {
		return nil, false
	}
	return e, true
}

// Raycast implements resolve.Raycaster. Living entities other than the
// caster are spheres of HitRadius; the ground is the plane y = Ground.
func (w *World) Raycast(ray resolve.Ray) (resolve.RayHit, bool) {
	dir := ray.Direction.Normalize()
	best := resolve.RayHit{Distance: math.Inf(1)}
	found := false

	mask := strings.ToLower(ray.Mask)
	if mask == "" || mask == MaskActors || mask == MaskAll {
		for _, e := range w.Entities() {
			if (ray.Caster != nil && e.id == ray.Caster.ID()) || !e.Alive() {
				continue
			}
			if d, ok := sphere(ray.Origin, dir, e.Position(), HitRadius); ok && d <= ray.Distance && d < best.Distance {
				best = resolve.RayHit{Point: ray.Origin.Add(dir.Scale(d)), Actor: e, Distance: d}
				found = true
			}
		}
	}
	if mask == MaskGround || mask == MaskAll {
		if dir.Y < 0 {
			d := (w.Ground - ray.Origin.Y) / dir.Y
			if d >= 0 && d <= ray.Distance && d < best.Distance {
				best = resolve.RayHit{Point: ray.Origin.Add(dir.Scale(d)), Distance: d}
				found = true
			}
		}
	}
	return best, found
}

// sphere returns the distance along a unit direction to the first
// intersection with a sphere.
func sphere(origin, dir, center command.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	root := math.Sqrt(disc)
	if d := -b - root; d >= 0 {
		return d, true
	}
	if d := -b + root; d >= 0 {
		return 0, true // origin inside the sphere
	}
	return 0, false
}

// Property resolves $world references: $world.count, $world.alive and
// $world.ground. It is registered as a resolve.PropertyFunc.
func (w *World) Property(_ *command.Context, path []string) (any, error) {
	if len(path) != 1 {
		return nil, fmt.Errorf("$world needs one of count, alive, ground")
	}
	switch strings.ToLower(path[0]) {
	case "count":
		return len(w.Entities()), nil
	case "alive":
		n := 0
		for _, e := range w.Entities() {
			if e.Alive() {
				n++
			}
		}
		return n, nil
	case "ground":
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.Ground, nil
	default:
		return nil, fmt.Errorf("unknown world property %s", path[0])
	}
}
