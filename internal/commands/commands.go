package commands

import (
	"fmt"
	"strings"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/audit"
	"github.com/msto63/cmdkit/internal/world"
)

// Permissions used by the sample commands
const (
	PermKill      = "cmdkit.kill"
	PermTeleport  = "cmdkit.tp.others"
	PermClear     = "cmdkit.clear"
	PermBroadcast = "cmdkit.broadcast"
	PermHistory   = "cmdkit.history"
)

// Announcer delivers a message to every connected caller
type Announcer interface {
	Announce(from, message string)
}

// Options holds the collaborators of the sample commands
type Options struct {
	World     *world.World
	Audit     audit.Store
	Announcer Announcer
	Logger    *cklog.Logger
}

// Set is the sample command set of one host
type Set struct {
	world     *world.World
	audit     audit.Store
	announcer Announcer
	logger    *cklog.Logger
	surveys   *Results
}

// Registrar accepts descriptors, e.g. the engine
type Registrar interface {
	Register(descriptors ...*command.Descriptor) error
}

// New creates the command set
func New(opts Options) *Set {
	if opts.World == nil {
		opts.World = world.New()
	}
	if opts.Logger == nil {
		opts.Logger = cklog.GetDefault()
	}
	return &Set{
		world:     opts.World,
		audit:     opts.Audit,
		announcer: opts.Announcer,
		logger:    opts.Logger.WithField("component", "commands"),
		surveys:   &Results{},
	}
}

// Surveys returns the collected survey answers
func (s *Set) Surveys() *Results { return s.surveys }

// Descriptors returns every command of the set
func (s *Set) Descriptors() []*command.Descriptor {
	return []*command.Descriptor{
		s.give(),
		s.kill(),
		s.heal(),
		s.list(),
		s.teleport(),
		s.where(),
		s.inventory(),
		s.clear(),
		s.broadcast(),
		s.countdown(),
		s.history(),
		s.survey(),
	}
}

// Register registers every command of the set
func (s *Set) Register(r Registrar) error {
	return r.Register(s.Descriptors()...)
}

// entity converts a resolved actor back to a world entity
func entity(a command.Actor) (*world.Entity, error) {
	e, ok := a.(*world.Entity)
	if !ok {
		return nil, fmt.Errorf("%s is not part of this world", a.Name())
	}
	return e, nil
}

// self returns the caller's entity
func self(ctx *command.Context) (*world.Entity, error) {
	a, ok := ctx.Self()
	if !ok {
		return nil, fmt.Errorf("this command needs an in-world caller")
	}
	return entity(a)
}

// targetsOrSelf returns the resolved actors of position i or the caller
func targetsOrSelf(ctx *command.Context, args command.Args, i int) ([]*world.Entity, error) {
	actors := args.Actors(i)
	if len(actors) == 0 {
		e, err := self(ctx)
		if err != nil {
			return nil, err
		}
		return []*world.Entity{e}, nil
	}
	out := make([]*world.Entity, 0, len(actors))
	for _, a := range actors {
		e, err := entity(a)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func names(entities []*world.Entity) string {
	parts := make([]string, len(entities))
	for i, e := range entities {
		parts[i] = e.Name()
	}
	return strings.Join(parts, ", ")
}
