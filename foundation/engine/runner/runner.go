// File: runner.go
// Title: Execution Runner
// Description: Drives one invocation through its disciplines: a regular
//              call, a continuable conversation, a stepped computation, a
//              pending future or a free-text input request. Every call into
//              operation code is protected; failures become responses.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package runner

import (
	"fmt"
	"iter"
	"time"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// Runner is the execution state of one invocation
type Runner struct {
	id       string
	manager  *Manager
	session  *Session
	ctx      *command.Context
	origin   command.Discipline
	state    state
	previous *Runner

	installed bool
	tracked   bool
	detached  bool
}

// ID returns the id of the invocation's first context
func (r *Runner) ID() string { return r.id }

// Context returns the context of the current turn
func (r *Runner) Context() *command.Context { return r.ctx }

// Discipline returns the discipline currently driving the runner
func (r *Runner) Discipline() command.Discipline {
	switch r.state.(type) {
	case *continuation:
		return command.DisciplineContinuable
	case *stepping:
		return command.DisciplineCoroutine
	case *awaiting:
		return command.DisciplineAsync
	case inputWait:
		return command.DisciplineInput
	default:
		return r.origin
	}
}

// Done reports whether the runner has been cleared
func (r *Runner) Done() bool {
	_, ok := r.state.(finished)
	return ok
}

// ShouldContinue reports whether input from caller must be routed to this
// runner instead of normal dispatch.
func (r *Runner) ShouldContinue(input string, caller command.Caller) bool {
	if caller == nil || r.session.Caller.ID() != caller.ID() {
		return false
	}
	return r.state.waiting()
}

// ShouldPool reports whether the instance may return to its pool
func (r *Runner) ShouldPool() bool {
	return r.Done()
}

type stepResult struct {
	wait time.Duration
	ok   bool
}

// protect runs operation code and converts a panic into an EXECUTION error
func protect[T any](op string, call func() (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			v = zero
			err = ckerror.Newf("%s panicked: %v", op, p).
				WithCode(ckerror.CodeExecution).
				WithOperation("runner."+op).
				WithDetail("panic", fmt.Sprint(p))
		}
	}()
	return call()
}

func (r *Runner) invoke(op string, call func() (command.Outcome, error)) {
	r.state = running{}
	r.untrack()
	r.manager.logger.Debug("Runner invoking", log.Fields{
		"runner": r.id, "op": op, "command": r.command(), "discipline": r.origin.String(),
	})
	outcome, err := protect(op, call)
	if err != nil {
		r.fail(err)
		return
	}
	r.handle(outcome)
}

func (r *Runner) handle(outcome command.Outcome) {
	switch o := outcome.(type) {
	case nil, command.Done:
		r.completeTurn()
	case command.Steps:
		if o.Seq == nil {
			r.completeTurn()
			return
		}
		r.detach()
		next, stop := iter.Pull(o.Seq)
		st := &stepping{next: next, stop: stop, finish: o.Finish}
		r.state = st
		r.install()
		r.track()
		r.ctx.Discipline = command.DisciplineCoroutine
		r.advance(st)
	case command.Await:
		if o.Future == nil {
			r.fail(ckerror.New("awaited a nil future").WithCode(ckerror.CodeExecution))
			return
		}
		r.detach()
		st := &awaiting{future: o.Future, finish: o.Finish}
		r.state = st
		r.install()
		r.ctx.Discipline = command.DisciplineAsync
		o.Future.OnComplete(func(value any, err error) {
			r.manager.Post(func() { r.resolve(st, value, err) })
		})
	default:
		r.fail(ckerror.Newf("unknown outcome %T", outcome).WithCode(ckerror.CodeExecution))
	}
}

func (r *Runner) advance(st *stepping) {
	res, err := protect("step", func() (stepResult, error) {
		wait, ok := st.next()
		return stepResult{wait: wait, ok: ok}, nil
	})
	if err != nil {
		r.fail(err)
		return
	}
	if res.ok {
		st.wait = res.wait
		return
	}

	st.stop()
	r.untrack()
	if st.finish != nil {
		if _, err := protect("finish", func() (struct{}, error) { return struct{}{}, st.finish(r.ctx) }); err != nil {
			r.fail(err)
			return
		}
	}
	r.completeTurn()
}

func (r *Runner) resolve(st *awaiting, value any, err error) {
	if r.state != state(st) {
		return
	}
	if st.finish != nil {
		if _, ferr := protect("complete", func() (struct{}, error) { return struct{}{}, st.finish(r.ctx, value, err) }); ferr != nil {
			r.fail(ferr)
			return
		}
	} else if err != nil {
		r.fail(err)
		return
	}
	r.completeTurn()
}

// completeTurn delivers the turn's response and decides whether the
// runner waits for more input or is cleared.
func (r *Runner) completeTurn() {
	resp := r.ctx.Response
	r.manager.deliver(r.ctx, resp)

	switch {
	case resp.InputRequested && resp.OnInput != nil:
		r.detach()
		r.state = inputWait{callback: resp.OnInput}
		r.untrack()
		r.install()
		r.manager.logger.Debug("Runner awaiting input", log.Fields{"runner": r.id, "command": r.command()})
	case resp.Continued && r.origin == command.DisciplineContinuable:
		r.detach()
		timeout := r.ctx.Descriptor.Timeout
		r.state = &continuation{timeout: timeout, remaining: timeout}
		r.install()
		if timeout > 0 {
			r.track()
		} else {
			r.untrack()
		}
		r.manager.logger.Debug("Runner continuing", log.Fields{
			"runner": r.id, "command": r.command(), "timeout": timeout.String(),
		})
	default:
		r.finish()
	}
}

// feed routes a line from the caller into a waiting runner
func (r *Runner) feed(input string) {
	switch st := r.state.(type) {
	case *continuation:
		ctx := r.ctx.Next(input)
		ctx.Discipline = command.DisciplineContinuable
		r.ctx = ctx
		inst, ok := ctx.Instance.(command.Continuable)
		if !ok {
			r.fail(ckerror.Newf("instance %T cannot continue", ctx.Instance).WithCode(ckerror.CodeInstanceResolution))
			return
		}
		r.invoke("continue", func() (command.Outcome, error) { return inst.Continue(ctx, input) })
	case inputWait:
		ctx := r.ctx.Next(input)
		ctx.Discipline = command.DisciplineInput
		r.ctx = ctx
		cb := st.callback
		r.invoke("input", func() (command.Outcome, error) { return cb(ctx, input) })
	}
}

func (r *Runner) tick(delta time.Duration) {
	switch st := r.state.(type) {
	case *continuation:
		st.remaining -= delta
		if st.remaining <= 0 {
			r.expire()
		}
	case *stepping:
		st.wait -= delta
		if st.wait <= 0 {
			r.advance(st)
		}
	}
}

// expire fires the timeout entry point once and clears the runner
func (r *Runner) expire() {
	ctx := r.ctx.Next("")
	r.ctx = ctx
	r.state = running{}
	r.untrack()
	r.manager.logger.Info("Continuation timed out", log.Fields{
		"runner": r.id, "command": r.command(), "caller": r.session.Caller.Name(),
	})

	inst, ok := ctx.Instance.(command.Continuable)
	if ok {
		if _, err := protect("timeout", func() (struct{}, error) { return struct{}{}, inst.OnTimeout(ctx) }); err != nil {
			r.fail(err)
			return
		}
	}
	r.manager.deliver(ctx, ctx.Response)
	r.finish()
}

func (r *Runner) fail(err error) {
	fields := log.Fields{"runner": r.id, "command": r.command()}
	if r.session.Caller != nil {
		fields["caller"] = r.session.Caller.Name()
	}
	r.manager.logger.LogError(err, fields)

	resp := command.Failure(err)
	r.ctx.Response = resp
	r.manager.deliver(r.ctx, resp)
	r.finish()
}

// finish clears the runner and returns the instance to its pool
func (r *Runner) finish() {
	if r.Done() {
		return
	}
	if st, ok := r.state.(*stepping); ok {
		st.stop()
	}
	r.state = finished{}
	r.untrack()
	r.uninstall()
	r.session.remove(r)
	r.release()
	r.manager.logger.Debug("Runner cleared", log.Fields{"runner": r.id, "command": r.command()})
}

func (r *Runner) release() {
	d := r.ctx.Descriptor
	if d == nil || d.Pool() == nil || r.ctx.Instance == nil || !r.ShouldPool() {
		return
	}
	if err := d.Pool().Put(r.ctx.Instance); err != nil {
		r.manager.logger.Warn("Instance not returned to pool", log.Fields{
			"command": d.Name, "error": err.Error(),
		})
	}
}

// detach keeps the argument buffer with this invocation once it outlives
// the dispatch call.
func (r *Runner) detach() {
	if r.detached || r.ctx.Overload == nil {
		return
	}
	r.ctx.Overload.Detach()
	r.detached = true
}

func (r *Runner) install() {
	if r.installed {
		return
	}
	r.previous = r.session.active
	r.session.active = r
	r.installed = true
}

func (r *Runner) uninstall() {
	if !r.installed {
		return
	}
	s := r.session
	if s.active == r {
		s.active = r.previous
	} else {
		for p := s.active; p != nil; p = p.previous {
			if p.previous == r {
				p.previous = r.previous
				break
			}
		}
	}
	r.previous = nil
	r.installed = false
}

func (r *Runner) track() {
	if !r.tracked {
		r.manager.live = append(r.manager.live, r)
		r.tracked = true
	}
}

func (r *Runner) untrack() {
	if !r.tracked {
		return
	}
	live := r.manager.live
	for i, l := range live {
		if l == r {
			r.manager.live = append(live[:i], live[i+1:]...)
			break
		}
	}
	r.tracked = false
}

func (r *Runner) command() string {
	if r.ctx.Descriptor == nil {
		return ""
	}
	return r.ctx.Descriptor.Name
}
