// File: outcome.go
// Title: Execution Outcomes and Futures
// Description: Every operation body returns an Outcome: finished, a stepped
//              computation advanced once per tick, or a pending future.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"iter"
	"sync"
	"time"
)

// Outcome is Done, Steps or Await. A nil Outcome means Done.
type Outcome interface {
	outcome()
}

// Done means the turn finished synchronously
type Done struct{}

// Steps is a cooperative computation. Each yielded duration suspends the
// computation for at least that long of host ticks; Finish runs on the
// logic thread once the sequence is exhausted.
type Steps struct {
	Seq    iter.Seq[time.Duration]
	Finish func(ctx *Context) error
}

// Await is a pending computation. Finish runs on the logic thread after
// the future completes.
type Await struct {
	Future *Future
	Finish func(ctx *Context, value any, err error) error
}

func (Done) outcome()  {}
func (Steps) outcome() {}
func (Await) outcome() {}

// Complete returns the Done outcome
func Complete() (Outcome, error) {
	return Done{}, nil
}

// Stepped returns a Steps outcome
func Stepped(seq iter.Seq[time.Duration], finish func(ctx *Context) error) (Outcome, error) {
	return Steps{Seq: seq, Finish: finish}, nil
}

// Awaiting returns an Await outcome
func Awaiting(f *Future, finish func(ctx *Context, value any, err error) error) (Outcome, error) {
	return Await{Future: f, Finish: finish}, nil
}

// Future is a value that completes once, possibly on another goroutine
type Future struct {
	mu        sync.Mutex
	done      bool
	value     any
	err       error
	callbacks []func(any, error)
}

// NewFuture returns a pending future
func NewFuture() *Future {
	return &Future{}
}

// Go runs fn on a new goroutine and completes the future with its result
func Go(fn func() (any, error)) *Future {
	f := NewFuture()
	go func() {
		var (
			v   any
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
			f.Complete(v, err)
		}()
		v, err = fn()
	}()
	return f
}

// Complete resolves the future. Only the first call has an effect.
func (f *Future) Complete(value any, err error) bool {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return false
	}
	f.done = true
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
	return true
}

// OnComplete registers cb; it runs immediately if the future is done
func (f *Future) OnComplete(cb func(any, error)) {
	f.mu.Lock()
	if !f.done {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	cb(value, err)
}

// Done reports whether the future completed
func (f *Future) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Result returns the value and error of a completed future
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}
