// File: manager.go
// Title: Runner Manager and Session Table
// Description: Owns the per-caller session table, the runners that need
//              ticks and the mailbox through which futures completing on
//              other goroutines hand work back to the logic thread.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package runner

import (
	"slices"
	"sync"
	"time"

	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// Sink receives every finished turn's response exactly once
type Sink func(ctx *command.Context, resp *command.Response)

// Options configures a Manager
type Options struct {
	Logger *log.Logger
	Sink   Sink
}

// Session is a caller's entry in the session table
type Session struct {
	ID      command.SessionID
	Caller  command.Caller
	active  *Runner
	runners []*Runner
}

// Active returns the runner that currently owns the caller's input slot
func (s *Session) Active() *Runner {
	return s.active
}

// Runners returns the caller's runners that are not cleared
func (s *Session) Runners() []*Runner {
	return slices.Clone(s.runners)
}

func (s *Session) remove(r *Runner) {
	s.runners = slices.DeleteFunc(s.runners, func(x *Runner) bool { return x == r })
}

// Manager drives runners. All methods except Post must be called from the
// logic thread.
type Manager struct {
	sessions map[string]*Session
	nextID   command.SessionID
	live     []*Runner
	sink     Sink
	logger   *log.Logger

	mu      sync.Mutex
	mailbox []func()
}

// New creates a manager
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.GetDefault()
	}
	if opts.Sink == nil {
		opts.Sink = func(*command.Context, *command.Response) {}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		sink:     opts.Sink,
		logger:   opts.Logger.WithField("component", "command-runner"),
	}
}

// Session returns the caller's session, creating it on first use
func (m *Manager) Session(caller command.Caller) *Session {
	if s, ok := m.sessions[caller.ID()]; ok {
		s.Caller = caller
		return s
	}
	m.nextID++
	s := &Session{ID: m.nextID, Caller: caller}
	m.sessions[caller.ID()] = s
	return s
}

// Active returns the caller's active runner, if any
func (m *Manager) Active(caller command.Caller) *Runner {
	if s, ok := m.sessions[caller.ID()]; ok {
		return s.active
	}
	return nil
}

// Busy reports whether one of the caller's runners is stepping or
// awaiting a future. Runners waiting for input do not count.
func (m *Manager) Busy(caller command.Caller) bool {
	s, ok := m.sessions[caller.ID()]
	if !ok {
		return false
	}
	for _, r := range s.runners {
		switch r.Discipline() {
		case command.DisciplineCoroutine, command.DisciplineAsync:
			return true
		}
	}
	return false
}

// Run starts a runner for a resolved invocation. ctx must carry the
// descriptor, overload and, for non-static commands, the instance.
func (m *Manager) Run(ctx *command.Context, args command.Args) *Runner {
	s := m.Session(ctx.Caller)
	ctx.Session = s.ID
	r := &Runner{
		id:      ctx.ID,
		manager: m,
		session: s,
		ctx:     ctx,
		origin:  ctx.Overload.Discipline,
		state:   running{},
	}
	ctx.Discipline = r.origin
	s.runners = append(s.runners, r)

	handler := ctx.Overload.Handler
	r.invoke("run", func() (command.Outcome, error) { return handler(ctx, args) })
	return r
}

// ShouldContinue reports whether input from caller belongs to a waiting
// conversation rather than to normal dispatch.
func (m *Manager) ShouldContinue(caller command.Caller, input string) bool {
	r := m.Active(caller)
	return r != nil && r.ShouldContinue(input, caller)
}

// Continue routes input to the caller's waiting runner. It returns false
// when no runner was waiting.
func (m *Manager) Continue(caller command.Caller, input string) bool {
	if !m.ShouldContinue(caller, input) {
		return false
	}
	m.Active(caller).feed(input)
	return true
}

// Post schedules fn on the logic thread. Safe for concurrent use.
func (m *Manager) Post(fn func()) {
	m.mu.Lock()
	m.mailbox = append(m.mailbox, fn)
	m.mu.Unlock()
}

// Tick drains the mailbox, then advances countdowns and stepped
// computations by delta.
func (m *Manager) Tick(delta time.Duration) {
	m.mu.Lock()
	queue := m.mailbox
	m.mailbox = nil
	m.mu.Unlock()
	for _, fn := range queue {
		fn()
	}

	for _, r := range slices.Clone(m.live) {
		if !r.Done() {
			r.tick(delta)
		}
	}
}

// Unregister forcibly clears every runner of the caller and drops its
// session.
func (m *Manager) Unregister(caller command.Caller) {
	s, ok := m.sessions[caller.ID()]
	if !ok {
		return
	}
	for _, r := range s.Runners() {
		r.finish()
	}
	delete(m.sessions, caller.ID())
	m.logger.Debug("Session removed", log.Fields{"caller": caller.Name(), "session": uint64(s.ID)})
}

// Live returns the number of runners that receive ticks
func (m *Manager) Live() int {
	return len(m.live)
}

// Sessions returns the number of known callers
func (m *Manager) Sessions() int {
	return len(m.sessions)
}

func (m *Manager) deliver(ctx *command.Context, resp *command.Response) {
	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("Response delivery panicked", log.Fields{"panic": p, "invocation": ctx.ID})
		}
	}()
	m.sink(ctx, resp)
}
