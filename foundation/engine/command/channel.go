// File: channel.go
// Title: Input Channels and Execution Disciplines
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"
	"strings"
)

// Channel tags where a command line came from. Descriptors enable a set of
// channels as a bitmask.
type Channel uint8

const (
	ChannelConsole Channel = 1 << iota
	ChannelInteractive
	ChannelProgrammatic

	ChannelNone Channel = 0
	ChannelAll          = ChannelConsole | ChannelInteractive | ChannelProgrammatic
)

// Has reports whether every bit of o is enabled in c
func (c Channel) Has(o Channel) bool {
	return o != 0 && c&o == o
}

// String returns the channel names joined by '|'
func (c Channel) String() string {
	if c == ChannelNone {
		return "none"
	}
	var names []string
	if c.Has(ChannelConsole) {
		names = append(names, "console")
	}
	if c.Has(ChannelInteractive) {
		names = append(names, "interactive")
	}
	if c.Has(ChannelProgrammatic) {
		names = append(names, "programmatic")
	}
	return strings.Join(names, "|")
}

// ParseChannel parses a single channel name or "all"
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console":
		return ChannelConsole, nil
	case "interactive":
		return ChannelInteractive, nil
	case "programmatic":
		return ChannelProgrammatic, nil
	case "all":
		return ChannelAll, nil
	default:
		return ChannelNone, fmt.Errorf("unknown channel %q", s)
	}
}

// ParseChannels parses a list of channel names into a bitmask
func ParseChannels(names []string) (Channel, error) {
	var c Channel
	for _, n := range names {
		ch, err := ParseChannel(n)
		if err != nil {
			return ChannelNone, err
		}
		c |= ch
	}
	return c, nil
}

// Discipline identifies how an invocation is driven to completion.
// Overloads are either Regular or Continuable; the remaining values are
// states a runner can enter while executing.
type Discipline int

const (
	DisciplineRegular Discipline = iota
	DisciplineContinuable
	DisciplineCoroutine
	DisciplineAsync
	DisciplineInput
)

func (d Discipline) String() string {
	switch d {
	case DisciplineRegular:
		return "regular"
	case DisciplineContinuable:
		return "continuable"
	case DisciplineCoroutine:
		return "coroutine"
	case DisciplineAsync:
		return "async"
	case DisciplineInput:
		return "input"
	default:
		return "unknown"
	}
}
