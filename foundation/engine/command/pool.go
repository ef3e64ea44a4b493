// File: pool.go
// Title: Instance Pool
// Description: Reuses operation instances of non-static commands. Only the
//              logic thread touches a pool, so it needs no locking.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
)

// Pool hands out instances created by a factory
type Pool struct {
	factory func() any
	free    []any
	created int
}

// NewPool creates a pool around factory
func NewPool(factory func() any) *Pool {
	return &Pool{factory: factory}
}

// Get returns a free instance or creates one
func (p *Pool) Get() (inst any, err error) {
	if n := len(p.free); n > 0 {
		inst = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return inst, nil
	}

	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = ckerror.Newf("instance factory panicked: %v", r).
				WithCode(ckerror.CodeInstanceResolution).
				WithOperation("pool.Get")
		}
	}()
	inst = p.factory()
	if inst == nil {
		return nil, ckerror.New("instance factory returned nil").
			WithCode(ckerror.CodeInstanceResolution).
			WithOperation("pool.Get")
	}
	p.created++
	return inst, nil
}

// Put resets inst and returns it to the pool. A panicking Reset drops the
// instance instead.
func (p *Pool) Put(inst any) (err error) {
	if inst == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reset panicked: %v", r)
		}
	}()
	if r, ok := inst.(Resetter); ok {
		r.Reset()
	}
	p.free = append(p.free, inst)
	return nil
}

// Free returns the number of idle instances
func (p *Pool) Free() int { return len(p.free) }

// Created returns the number of instances made by the factory
func (p *Pool) Created() int { return p.created }
