package commands

import (
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

func (s *Set) broadcast() *command.Descriptor {
	return &command.Descriptor{
		Name:        "broadcast",
		Description: "Sends a message to everyone",
		Permission:  PermBroadcast,
		Aliases:     []string{"say all", "bc"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{command.Param("message", command.TypeString, command.Greedy(), command.Describe("the rest of the line"))},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				message := strings.TrimSpace(args.String(0))
				if message == "" {
					ctx.Fail("Nothing to broadcast")
					return command.Complete()
				}
				if s.announcer == nil {
					ctx.Reply("[%s] %s", ctx.Caller.Name(), message)
					return command.Complete()
				}
				s.announcer.Announce(ctx.Caller.Name(), message)
				ctx.Reply("Broadcast sent")
				return command.Complete()
			},
		}},
	}
}
