package commands

import (
	"context"
	"iter"
	"time"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/audit"
)

// historyTimeout bounds one audit query
const historyTimeout = 5 * time.Second

func (s *Set) countdown() *command.Descriptor {
	return &command.Descriptor{
		Name:        "countdown",
		Description: "Counts down, one line per second",
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("seconds", command.TypeInt, command.Default(3), command.Range(1, 60)),
			},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				n := args.Int(0)
				seq := func(yield func(time.Duration) bool) {
					for i := n; i > 0; i-- {
						ctx.Reply("%d...", i)
						if !yield(time.Second) {
							return
						}
					}
				}
				return command.Stepped(iter.Seq[time.Duration](seq), func(ctx *command.Context) error {
					ctx.Reply("Go!")
					return nil
				})
			},
		}},
	}
}

func (s *Set) history() *command.Descriptor {
	return &command.Descriptor{
		Name:        "history",
		Description: "Shows recent invocations from the audit trail",
		Permission:  PermHistory,
		Overloads: []*command.Overload{{
			Params: []command.Parameter{
				command.Param("caller", command.TypeString, command.Default(""), command.Describe("empty for everyone")),
				command.Param("limit", command.TypeInt, command.Default(10), command.Range(1, 100)),
			},
			Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
				if s.audit == nil {
					ctx.Fail("The audit trail is disabled")
					return command.Complete()
				}
				filter := audit.Filter{Caller: args.String(0), Limit: args.Int(1)}
				store := s.audit
				future := command.Go(func() (any, error) {
					qctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
					defer cancel()
					return store.Query(qctx, filter)
				})
				return command.Awaiting(future, func(ctx *command.Context, value any, err error) error {
					if err != nil {
						return err
					}
					recs, _ := value.([]*audit.Record)
					if len(recs) == 0 {
						ctx.Reply("No invocations recorded")
						return nil
					}
					for _, rec := range recs {
						status := "ok"
						if !rec.Success {
							status = rec.Code
						}
						ctx.Reply("%s %-10s %-8s %s", rec.Timestamp.Local().Format(time.TimeOnly), rec.Caller, status, rec.Line)
					}
					return nil
				})
			},
		}},
	}
}
