package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/world"
)

func (s *Set) give() *command.Descriptor {
	return &command.Descriptor{
		Name:        "give",
		Description: "Gives items to actors",
		Aliases:     []string{"g"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("targets", command.TypeActors, command.Describe("who receives the items")),
				command.Param("item", command.TypeString),
				command.Param("count", command.TypeInt, command.Default(1), command.Range(1, 999)),
			},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				targets, err := targetsOrSelf(ctx, args, 0)
				if err != nil {
					return nil, err
				}
				item, count := strings.ToLower(args.String(1)), args.Int(2)
				for _, e := range targets {
					e.Give(item, count)
				}
				ctx.Reply("Gave %d %s to %s", count, item, names(targets))
				return command.Complete()
			},
		}},
	}
}

func (s *Set) kill() *command.Descriptor {
	return &command.Descriptor{
		Name:        "kill",
		Description: "Kills actors",
		Permission:  PermKill,
		Aliases:     []string{"slay"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{command.Param("targets", command.TypeActors)},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				targets, err := targetsOrSelf(ctx, args, 0)
				if err != nil {
					return nil, err
				}
				for _, e := range targets {
					e.Kill()
				}
				ctx.Reply("Killed %s", names(targets))
				return command.Complete()
			},
		}},
	}
}

func (s *Set) heal() *command.Descriptor {
	return &command.Descriptor{
		Name:        "heal",
		Description: "Restores health, reviving the dead",
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("targets", command.TypeActors, command.Default(nil), command.Describe("defaults to yourself")),
				command.Param("amount", command.TypeInt, command.Default(world.MaxHealth), command.Range(1, world.MaxHealth)),
			},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				targets, err := targetsOrSelf(ctx, args, 0)
				if err != nil {
					return nil, err
				}
				for _, e := range targets {
					ctx.Reply("%s now has %d health", e.Name(), e.Heal(args.Int(1)))
				}
				return command.Complete()
			},
		}},
	}
}

func (s *Set) list() *command.Descriptor {
	return &command.Descriptor{
		Name:        "list",
		Description: "Lists actors",
		Aliases:     []string{"who"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("filter", command.TypeEnum, command.Default("all"), command.OneOf("all", "alive", "dead", "privileged")),
			},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				filter := args.String(0)
				var shown []*world.Entity
				for _, e := range s.world.Entities() {
					switch {
					case filter == "alive" && !e.Alive(),
						filter == "dead" && e.Alive(),
						filter == "privileged" && !e.Privileged():
						continue
					}
					shown = append(shown, e)
				}
				ctx.Reply("%d actors (%s)", len(shown), filter)
				for _, e := range shown {
					ctx.Reply("  %s", e)
				}
				return command.Complete()
			},
		}},
	}
}

func (s *Set) teleport() *command.Descriptor {
	move := func(ctx *command.Context, e *world.Entity, to command.Vec3) {
		e.Teleport(to)
		ctx.Reply("Teleported %s to %s", e.Name(), to)
	}
	return &command.Descriptor{
		Name:        "tp",
		Description: "Teleports actors",
		Aliases:     []string{"teleport"},
		Overloads: []*command.Overload{
			{
				Description: "Teleports yourself",
				Params:      []command.Parameter{command.Param("destination", command.TypePosition)},
				Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
					e, err := self(ctx)
					if err != nil {
						return nil, err
					}
					move(ctx, e, args.Position(0))
					return command.Complete()
				},
			},
			{
				Name:        "player",
				Description: "Teleports someone else",
				Permission:  PermTeleport,
				Params: []command.Parameter{
					command.Param("target", command.TypeActor),
					command.Param("destination", command.TypePosition),
				},
				Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
					e, err := entity(args.Actor(0))
					if err != nil {
						return nil, err
					}
					move(ctx, e, args.Position(1))
					return command.Complete()
				},
			},
		},
	}
}

func (s *Set) where() *command.Descriptor {
	return &command.Descriptor{
		Name:        "where",
		Description: "Shows where an actor is and what it looks at",
		Overloads: []*command.Overload{{
			Params: []command.Parameter{command.Param("target", command.TypeActor, command.Default(nil))},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				var (
					e   *world.Entity
					err error
				)
				if args.Has(0) {
					e, err = entity(args.Actor(0))
				} else {
					e, err = self(ctx)
				}
				if err != nil {
					return nil, err
				}
				ctx.Reply("%s is at %s facing %s", e.Name(), e.Position(), e.Facing())
				return command.Complete()
			},
		}},
	}
}

func (s *Set) inventory() *command.Descriptor {
	return &command.Descriptor{
		Name:        "inventory",
		Description: "Shows an inventory",
		Aliases:     []string{"inv"},
		Overloads: []*command.Overload{{
			Params: []command.Parameter{command.Param("target", command.TypeActor, command.Default(nil))},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				var (
					e   *world.Entity
					err error
				)
				if args.Has(0) {
					e, err = entity(args.Actor(0))
				} else {
					e, err = self(ctx)
				}
				if err != nil {
					return nil, err
				}
				inv := e.Inventory()
				if len(inv) == 0 {
					ctx.Reply("%s carries nothing", e.Name())
					return command.Complete()
				}
				items := make([]string, 0, len(inv))
				for item := range inv {
					items = append(items, item)
				}
				sort.Strings(items)
				ctx.Reply("%s carries:", e.Name())
				for _, item := range items {
					ctx.Reply("  %dx %s", inv[item], item)
				}
				return command.Complete()
			},
		}},
	}
}

// clear asks for confirmation before it empties inventories
func (s *Set) clear() *command.Descriptor {
	return &command.Descriptor{
		Name:        "clear",
		Description: "Empties inventories after confirmation",
		Permission:  PermClear,
		Overloads: []*command.Overload{{
			Params: []command.Parameter{command.Param("targets", command.TypeActors)},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				targets, err := targetsOrSelf(ctx, args, 0)
				if err != nil {
					return nil, err
				}
				prompt := fmt.Sprintf("Empty the inventory of %s? (yes/no)", names(targets))
				var answer command.InputCallback
				answer = func(ctx *command.Context, input string) (command.Outcome, error) {
					switch strings.ToLower(strings.TrimSpace(input)) {
					case "yes", "y":
						removed := 0
						for _, e := range targets {
							removed += e.Clear()
						}
						ctx.Reply("Removed %d items", removed)
					case "no", "n":
						ctx.Reply("Nothing was cleared")
					default:
						ctx.Ask("Please answer yes or no", answer)
					}
					return command.Complete()
				}
				ctx.Ask(prompt, answer)
				return command.Complete()
			},
		}},
	}
}
