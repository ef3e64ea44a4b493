// File: state.go
// Title: Runner States
// Description: One variant per execution discipline. Discipline specific
//              state lives in its variant; the runner switches on the type.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package runner

import (
	"time"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

type state interface {
	waiting() bool
}

// running: a turn is executing on the logic thread
type running struct{}

// continuation: the instance waits for the caller's next line
type continuation struct {
	timeout   time.Duration
	remaining time.Duration
}

// stepping: a cooperative sequence advanced from Tick
type stepping struct {
	next   func() (time.Duration, bool)
	stop   func()
	wait   time.Duration
	finish func(ctx *command.Context) error
}

// awaiting: a future has not completed yet
type awaiting struct {
	future *command.Future
	finish func(ctx *command.Context, value any, err error) error
}

// inputWait: the next line is passed verbatim to callback
type inputWait struct {
	callback command.InputCallback
}

// finished: the runner is cleared
type finished struct{}

func (running) waiting() bool       { return false }
func (*continuation) waiting() bool { return true }
func (*stepping) waiting() bool     { return false }
func (*awaiting) waiting() bool     { return false }
func (inputWait) waiting() bool     { return true }
func (finished) waiting() bool      { return false }
