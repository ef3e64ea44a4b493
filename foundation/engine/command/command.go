// File: command.go
// Title: Command Descriptors and Overloads
// Description: The registered definition of a command: name, permission,
//              visibility, timeout, aliases, enabled channels and overloads
//              addressed by sub-path. Registries finalize descriptors once;
//              they are read-only during dispatch.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/msto63/cmdkit/foundation/engine/token"
)

// Handler is the operation body of an overload
type Handler func(ctx *Context, args Args) (Outcome, error)

// Method adapts a function taking the pooled instance as receiver
func Method[T any](fn func(inst T, ctx *Context, args Args) (Outcome, error)) Handler {
	return func(ctx *Context, args Args) (Outcome, error) {
		inst, ok := ctx.Instance.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("instance %T is not %T", ctx.Instance, zero)
		}
		return fn(inst, ctx, args)
	}
}

// Continuable is implemented by instances that keep a conversation going
// across several caller turns.
type Continuable interface {
	// Continue receives the next raw line from the caller
	Continue(ctx *Context, input string) (Outcome, error)
	// OnTimeout fires once when no input arrived within the timeout
	OnTimeout(ctx *Context) error
}

// Resetter is implemented by instances that clear state on pool return
type Resetter interface {
	Reset()
}

// ParseResult is the outcome of resolving one parameter
type ParseResult struct {
	Success  bool
	Value    any
	Err      error
	Param    *Parameter
	Resolver Resolver
}

// Resolver converts the token at index into a value for param
type Resolver interface {
	Name() string
	Resolve(tokens []token.Token, index int, ctx *Context, param *Parameter) ParseResult
}

// Overload is one addressable form of a command
type Overload struct {
	// Name is the sub-path as declared, empty for the default overload
	Name        string
	Description string
	Params      []Parameter
	Permission  string
	Default     bool
	Handler     Handler

	// Set during registration
	SubPath    []string
	Discipline Discipline
	Resolvers  []Resolver
	required   int
	buffer     Args
}

// Required returns the number of parameters without defaults
func (o *Overload) Required() int {
	return o.required
}

// Buffer returns the reusable argument buffer, cleared
func (o *Overload) Buffer() Args {
	clear(o.buffer)
	return o.buffer
}

// Detach hands the current buffer over to a deferred invocation and gives
// the overload a fresh one.
func (o *Overload) Detach() {
	o.buffer = make(Args, len(o.Params))
}

// Greedy reports whether the final parameter takes the rest of the line
func (o *Overload) Greedy() bool {
	return len(o.Params) > 0 && o.Params[len(o.Params)-1].Greedy
}

// Compatible reports whether argc remaining arguments can bind to the
// overload's parameters. Surplus arguments only fit a greedy overload.
func (o *Overload) Compatible(argc int) bool {
	if argc < o.required {
		return false
	}
	return argc <= len(o.Params) || o.Greedy()
}

// Finalize computes the sub-path, required count and argument buffer
func (o *Overload) Finalize() error {
	o.SubPath = strings.Fields(strings.ToLower(o.Name))
	o.required = 0
	optional := false
	for i := range o.Params {
		p := &o.Params[i]
		if p.Name == "" {
			return fmt.Errorf("parameter %d has no name", i)
		}
		if p.Type == "" {
			p.Type = TypeString
		}
		if p.Greedy && (i != len(o.Params)-1 || p.Type != TypeString) {
			return fmt.Errorf("greedy parameter %q must be the final string parameter", p.Name)
		}
		if p.Required() {
			if optional {
				return fmt.Errorf("required parameter %q follows an optional one", p.Name)
			}
			o.required++
		} else {
			optional = true
		}
	}
	o.buffer = make(Args, len(o.Params))
	return nil
}

// Usage renders the overload's parameters after the given command path
func (o *Overload) Usage(path string) string {
	parts := []string{path}
	parts = append(parts, o.SubPath...)
	for i := range o.Params {
		parts = append(parts, o.Params[i].Usage())
	}
	return strings.Join(parts, " ")
}

// Descriptor is a registered command
type Descriptor struct {
	Name        string
	Description string
	Permission  string
	Hidden      bool
	Timeout     time.Duration
	Aliases     []string
	// Channels enables input channels; zero means all
	Channels  Channel
	Overloads []*Overload
	// Factory creates operation instances; nil for static commands
	Factory func() any

	Path            []string
	AliasPaths      [][]string
	defaultOverload *Overload
	pool            *Pool
}

// Static reports whether the command runs without an instance
func (d *Descriptor) Static() bool {
	return d.Factory == nil
}

// DefaultOverload returns the overload marked default, if any
func (d *Descriptor) DefaultOverload() *Overload {
	return d.defaultOverload
}

// Pool returns the instance pool of a non-static command
func (d *Descriptor) Pool() *Pool {
	return d.pool
}

// Names returns the name followed by the aliases
func (d *Descriptor) Names() []string {
	return append([]string{d.Name}, d.Aliases...)
}

// Finalize validates the descriptor and computes paths, the default
// overload, overload disciplines and the instance pool.
func (d *Descriptor) Finalize() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("command name is empty")
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("command %q has no description", d.Name)
	}
	if d.Channels == ChannelNone {
		d.Channels = ChannelAll
	}
	if d.Channels&ChannelAll == 0 {
		return fmt.Errorf("command %q enables no input channel", d.Name)
	}
	if len(d.Overloads) == 0 {
		return fmt.Errorf("command %q has no overloads", d.Name)
	}

	d.Path = strings.Fields(strings.ToLower(d.Name))
	d.AliasPaths = d.AliasPaths[:0]
	for _, alias := range d.Aliases {
		if p := strings.Fields(strings.ToLower(alias)); len(p) > 0 {
			d.AliasPaths = append(d.AliasPaths, p)
		}
	}

	var continuable bool
	if d.Factory != nil {
		d.pool = NewPool(d.Factory)
		inst, err := d.pool.Get()
		if err != nil {
			return err
		}
		_, continuable = inst.(Continuable)
		d.pool.Put(inst)
	}

	d.defaultOverload = nil
	seen := make(map[string]bool, len(d.Overloads))
	for _, o := range d.Overloads {
		if o.Handler == nil {
			return fmt.Errorf("overload %q of %q has no handler", o.Name, d.Name)
		}
		if err := o.Finalize(); err != nil {
			return fmt.Errorf("overload %q of %q: %w", o.Name, d.Name, err)
		}
		key := strings.Join(o.SubPath, " ")
		if seen[key] {
			return fmt.Errorf("duplicate overload path %q in %q", key, d.Name)
		}
		seen[key] = true
		if o.Default || len(o.SubPath) == 0 {
			if d.defaultOverload != nil {
				return fmt.Errorf("command %q has more than one default overload", d.Name)
			}
			d.defaultOverload = o
		}
		o.Discipline = DisciplineRegular
		if continuable {
			o.Discipline = DisciplineContinuable
		}
	}
	return nil
}

// Usage returns one usage line per overload
func (d *Descriptor) Usage() []string {
	path := strings.Join(d.Path, " ")
	lines := make([]string, 0, len(d.Overloads))
	for _, o := range d.Overloads {
		lines = append(lines, o.Usage(path))
	}
	return lines
}
