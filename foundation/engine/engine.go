// File: engine.go
// Title: Command Engine
// Description: Owns the parser, resolver set, registry and runner manager
//              of one host and implements the dispatch pipeline from a raw
//              line to a running invocation. Everything except Post on the
//              runner mailbox runs on the host's logic thread.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package engine

import (
	"strings"
	"time"
	"unicode"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/parser"
	"github.com/msto63/cmdkit/foundation/engine/registry"
	"github.com/msto63/cmdkit/foundation/engine/resolve"
	"github.com/msto63/cmdkit/foundation/engine/runner"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

// DefaultMaxLineLength bounds a single command line in runes
const DefaultMaxLineLength = 4096

// Formatter turns a response into the text delivered to the caller
type Formatter interface {
	Format(resp *command.Response) string
}

// Observer sees every delivered response, e.g. an audit trail
type Observer interface {
	Observe(ctx *command.Context, resp *command.Response)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx *command.Context, resp *command.Response)

// Observe calls f
func (f ObserverFunc) Observe(ctx *command.Context, resp *command.Response) { f(ctx, resp) }

// Options configures an Engine
type Options struct {
	Logger      *log.Logger
	Permissions command.PermissionChecker
	World       command.World
	Parser      *parser.Parser
	Resolvers   *resolve.Set
	Formatter   Formatter
	Observers   []Observer

	MaxLineLength       int
	SuggestionCount     int
	SuggestionThreshold float64
	// DisableHelp skips registration of the built-in help command
	DisableHelp bool
}

// Engine is the command parsing and execution engine of one host
type Engine struct {
	parser      *parser.Parser
	resolvers   *resolve.Set
	registry    *registry.Registry
	runners     *runner.Manager
	permissions command.PermissionChecker
	world       command.World
	formatter   Formatter
	observers   []Observer
	logger      *log.Logger
	options     Options
}

// New creates an engine. The built-in help command is registered unless
// disabled.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.GetDefault()
	}
	if opts.Permissions == nil {
		opts.Permissions = command.AllowAll
	}
	if opts.Parser == nil {
		opts.Parser = parser.New()
	}
	if opts.Resolvers == nil {
		opts.Resolvers = resolve.NewSet()
	}
	if opts.Formatter == nil {
		opts.Formatter = PlainFormatter{}
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}

	e := &Engine{
		parser:      opts.Parser,
		resolvers:   opts.Resolvers,
		permissions: opts.Permissions,
		world:       opts.World,
		formatter:   opts.Formatter,
		observers:   opts.Observers,
		logger:      opts.Logger.WithField("component", "command-engine"),
		options:     opts,
	}
	e.registry = registry.New(registry.Options{
		Logger:              opts.Logger,
		Resolvers:           opts.Resolvers,
		SuggestionCount:     opts.SuggestionCount,
		SuggestionThreshold: opts.SuggestionThreshold,
	})
	e.runners = runner.New(runner.Options{Logger: opts.Logger, Sink: e.deliver})

	if !opts.DisableHelp {
		if err := e.registry.Register(e.helpCommand()); err != nil {
			e.logger.LogError(err)
		}
	}

	e.logger.Info("Command engine initialized", log.Fields{
		"scanners":      strings.Join(e.parser.Scanners(), ","),
		"maxLineLength": opts.MaxLineLength,
		"help":          !opts.DisableHelp,
	})
	return e
}

// Register adds a descriptor. Registration happens at startup, before the
// first dispatch.
func (e *Engine) Register(descriptors ...*command.Descriptor) error {
	for _, d := range descriptors {
		if err := e.registry.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the command registry
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Resolvers returns the resolver set, including the method table
func (e *Engine) Resolvers() *resolve.Set { return e.resolvers }

// Runners returns the runner manager
func (e *Engine) Runners() *runner.Manager { return e.runners }

// Commands lists the visible commands enabled on channel
func (e *Engine) Commands(channel command.Channel) []*command.Descriptor {
	return e.registry.Commands(channel)
}

// AddObserver registers an observer for delivered responses
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// Dispatch handles one raw line from caller. Input for a waiting
// conversation is routed to it; anything else goes through lookup,
// permission checks and argument resolution before a runner invokes the
// operation. Failures before invocation are delivered without side
// effects. The returned response is the one of the first turn.
func (e *Engine) Dispatch(caller command.Caller, channel command.Channel, line string) *command.Response {
	ctx := command.NewContext(caller, channel, line)
	ctx.World = e.world

	if n := len([]rune(line)); n > e.options.MaxLineLength {
		return e.reject(ctx, ckerror.Newf("line is %d characters long, the limit is %d", n, e.options.MaxLineLength).
			WithCode(ckerror.CodeLineTooLong).
			WithOperation("engine.Dispatch"))
	}

	if active := e.runners.Active(caller); active != nil && active.ShouldContinue(line, caller) {
		e.runners.Continue(caller, line)
		return active.Context().Response
	}

	if strings.TrimSpace(line) == "" {
		return ctx.Response
	}

	timer := e.logger.StartTimer("dispatch").WithField("caller", caller.Name())
	r, err := e.prepare(ctx)
	if err != nil {
		timer.StopWithError(err)
		return e.reject(ctx, err)
	}
	timer.WithField("command", ctx.Descriptor.Name)

	e.logger.Debug("Dispatching command", log.Fields{
		"invocation": ctx.ID,
		"caller":     caller.Name(),
		"command":    ctx.Descriptor.Name,
		"overload":   ctx.Overload.Name,
		"channel":    channel.String(),
	})
	run := e.runners.Run(ctx, r)
	timer.Stop()
	return run.Context().Response
}

// prepare runs every pre-invocation stage and fills ctx
func (e *Engine) prepare(ctx *command.Context) (command.Args, error) {
	words := strings.Fields(ctx.Line)
	match, err := e.registry.Find(words, ctx.Channel)
	if err != nil {
		return nil, err
	}
	d := match.Descriptor
	ctx.Descriptor = d
	if !e.allowed(ctx.Caller, d.Permission) {
		return nil, denied(d.Name, d.Permission)
	}

	rest := skipWords(ctx.Line, match.Consumed)
	all, err := e.parser.Tokenize(rest, 0)
	if err != nil {
		return nil, err
	}
	o, consumed := e.registry.FindOverload(token.Strings(all), d)
	if o == nil {
		return nil, ckerror.Newf("no form of %s takes %d arguments", d.Name, len(all)).
			WithCode(ckerror.CodeUnknownOverload).
			WithOperation("engine.Dispatch").
			WithDetail("command", d.Name).
			WithDetail("diagnostics", d.Usage())
	}
	ctx.Overload = o
	if !e.allowed(ctx.Caller, o.Permission) {
		return nil, denied(d.Name, o.Permission)
	}

	tokens := all
	if consumed > 0 || o.Greedy() {
		max := 0
		if o.Greedy() {
			max = len(o.Params)
		}
		if tokens, err = e.parser.Tokenize(skipWords(rest, consumed), max); err != nil {
			return nil, err
		}
	}
	ctx.Tokens = tokens

	args, _, err := resolve.ResolveAll(ctx, o, tokens)
	if err != nil {
		return nil, err
	}

	if pool := d.Pool(); pool != nil {
		inst, err := pool.Get()
		if err != nil {
			return nil, err
		}
		ctx.Instance = inst
	}
	return args, nil
}

func (e *Engine) allowed(caller command.Caller, permission string) bool {
	return permission == "" || e.permissions.HasPermission(caller, permission)
}

func denied(name, permission string) error {
	return ckerror.Newf("you lack the permission %q to use %s", permission, name).
		WithCode(ckerror.CodeMissingPermission).
		WithOperation("engine.Dispatch").
		WithDetail("permission", permission)
}

// reject delivers a pre-invocation failure
func (e *Engine) reject(ctx *command.Context, err error) *command.Response {
	fields := log.Fields{"invocation": ctx.ID, "caller": ctx.Caller.Name(), "code": ckerror.GetCode(err).String()}
	if ctx.Descriptor != nil {
		fields["command"] = ctx.Descriptor.Name
	}
	e.logger.Warn("Dispatch rejected: "+err.Error(), fields)

	resp := command.Failure(err)
	ctx.Response = resp
	e.deliver(ctx, resp)
	return resp
}

// deliver is the runner sink: it formats the response, hands it to the
// caller and notifies observers.
func (e *Engine) deliver(ctx *command.Context, resp *command.Response) {
	for _, o := range e.observers {
		e.observe(o, ctx, resp)
	}
	if resp.Empty() {
		return
	}
	ctx.Caller.Deliver(resp, e.formatter.Format(resp))
}

func (e *Engine) observe(o Observer, ctx *command.Context, resp *command.Response) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("Observer panicked", log.Fields{"panic": p, "invocation": ctx.ID})
		}
	}()
	o.Observe(ctx, resp)
}

// Tick advances every countdown and stepped computation and runs work
// posted by completed futures. Hosts call it once per update.
func (e *Engine) Tick(delta time.Duration) {
	e.runners.Tick(delta)
}

// Unregister clears every runner of a disconnecting caller
func (e *Engine) Unregister(caller command.Caller) {
	e.runners.Unregister(caller)
}

// skipWords returns line without its first n whitespace-separated words
func skipWords(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}
