// File: timer.go
// Title: Performance Timer
// Description: Measures the duration of an operation and logs it on stop.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18

package log

import (
	"time"
)

// Timer measures the duration of a single operation
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		start:     time.Now(),
		fields:    make(Fields),
	}
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the elapsed time at debug level. Only the first call logs.
func (t *Timer) Stop() time.Duration {
	return t.stop(nil)
}

// StopWithError logs the elapsed time together with a failure at warn level
func (t *Timer) StopWithError(err error) time.Duration {
	return t.stop(err)
}

func (t *Timer) stop(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.logger == nil {
		return elapsed
	}

	entry := NewEntry(LevelDebug, t.operation+" completed")
	if err != nil {
		entry.Level = LevelWarn
		entry.Message = t.operation + " failed"
		entry.Error = err
	}
	entry.Fields = t.fields.Merge(Fields{"operation": t.operation})
	entry.Duration = elapsed
	if t.logger.IsLevelEnabled(entry.Level) {
		t.logger.write(entry)
	}
	return elapsed
}
