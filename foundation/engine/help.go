// File: help.go
// Title: Built-in Help Command
// Description: Lists the commands visible on the caller's channel or shows
//              the usage lines of one command.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package engine

import (
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/utils/stringx"
)

func (e *Engine) helpCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "help",
		Description: "Lists commands or shows how to use one",
		Aliases:     []string{"?"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("command", command.TypeString, command.Default(""), command.Describe("command to explain")),
			},
			Handler: e.help,
		}},
	}
}

func (e *Engine) help(ctx *command.Context, args command.Args) (command.Outcome, error) {
	name := args.String(0)
	if stringx.IsBlank(name) {
		cmds := e.registry.Commands(ctx.Channel)
		width := 0
		for _, d := range cmds {
			width = max(width, len(d.Name))
		}
		ctx.Reply("%d commands available:", len(cmds))
		for _, d := range cmds {
			ctx.Reply("  %s  %s", stringx.PadRight(d.Name, width, ' '), d.Description)
		}
		return command.Complete()
	}

	match, err := e.registry.Find(strings.Fields(name), ctx.Channel)
	if err != nil {
		return nil, err
	}
	d := match.Descriptor
	ctx.Reply("%s: %s", d.Name, d.Description)
	if len(d.Aliases) > 0 {
		ctx.Reply("aliases: %s", strings.Join(d.Aliases, ", "))
	}
	for _, u := range d.Usage() {
		ctx.Reply("  %s", u)
	}
	return command.Complete()
}
