// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     logging
// Description: Key/value logging levels for the compatibility logger
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import cklog "github.com/msto63/cmdkit/foundation/core/log"

// Level is the minimum severity of a key/value Logger. Hosts raise it to
// LevelWarn when stdout carries command responses, as exec does.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the name used in configuration files
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// foundation maps the level onto the engine logger. Unknown levels log at
// info.
func (l Level) foundation() cklog.Level {
	switch l {
	case LevelDebug:
		return cklog.LevelDebug
	case LevelWarn:
		return cklog.LevelWarn
	case LevelError:
		return cklog.LevelError
	default:
		return cklog.LevelInfo
	}
}
