// File: context.go
// Title: Invocation Context
// Description: Per-turn state of one dispatch attempt. Continuation turns
//              get a fresh context chained to the previous one.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/cmdkit/foundation/engine/token"
)

// SessionID is the handle of a caller's entry in the session table
type SessionID uint64

// Context carries one turn of an invocation
type Context struct {
	ID      string
	Caller  Caller
	Channel Channel
	Session SessionID
	Line    string
	// Input is the raw line of a continuation or input turn
	Input      string
	Tokens     []token.Token
	Descriptor *Descriptor
	Overload   *Overload
	Instance   any
	Response   *Response
	Previous   *Context
	World      World
	Started    time.Time
	// Discipline reports the runner state driving this turn
	Discipline Discipline

	values map[string]any
}

// NewContext creates the context of a fresh dispatch attempt
func NewContext(caller Caller, channel Channel, line string) *Context {
	return &Context{
		ID:       uuid.NewString(),
		Caller:   caller,
		Channel:  channel,
		Line:     line,
		Started:  time.Now(),
		Response: NewResponse(),
	}
}

// Next returns the context of the following turn of the same invocation
func (c *Context) Next(input string) *Context {
	return &Context{
		ID:         uuid.NewString(),
		Caller:     c.Caller,
		Channel:    c.Channel,
		Session:    c.Session,
		Line:       c.Line,
		Input:      input,
		Descriptor: c.Descriptor,
		Overload:   c.Overload,
		Instance:   c.Instance,
		Response:   NewResponse(),
		Previous:   c,
		World:      c.World,
		Started:    time.Now(),
		Discipline: c.Discipline,
	}
}

// Turn returns how many turns precede this one
func (c *Context) Turn() int {
	n := 0
	for p := c.Previous; p != nil; p = p.Previous {
		n++
	}
	return n
}

// Set stores a per-turn value
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Value returns a per-turn value
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Reply appends a formatted line to the response
func (c *Context) Reply(format string, args ...any) {
	c.Response.Print(fmt.Sprintf(format, args...))
}

// Fail marks the response as failed
func (c *Context) Fail(format string, args ...any) {
	c.Response.Fail(fmt.Sprintf(format, args...))
}

// KeepAlive marks the response as continued so the next line from the
// caller is routed to the instance's Continue.
func (c *Context) KeepAlive() {
	c.Response.Continued = true
}

// Ask requests free-text input; cb receives the caller's next line
func (c *Context) Ask(prompt string, cb InputCallback) {
	c.Response.InputRequested = true
	c.Response.Prompt = prompt
	c.Response.OnInput = cb
}

// Self returns the caller's actor in the world, if any
func (c *Context) Self() (Actor, bool) {
	if c.World == nil || c.Caller == nil {
		return nil, false
	}
	return c.World.Actor(c.Caller.ID())
}
