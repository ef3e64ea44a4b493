// File: registry.go
// Title: Command Registry
// Description: Holds registered command descriptors, validates them on
//              registration and resolves argument words to a descriptor
//              and overload by longest path match. Populated at startup and
//              read-only during dispatch.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package registry

import (
	"sort"
	"strings"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/resolve"
)

const (
	DefaultSuggestionCount     = 5
	DefaultSuggestionThreshold = 0.5
)

// Options configures a Registry
type Options struct {
	Logger    *log.Logger
	Resolvers *resolve.Set
	// SuggestionCount caps "did you mean" suggestions
	SuggestionCount int
	// SuggestionThreshold is the minimum name similarity for a suggestion
	SuggestionThreshold float64
}

// Registry holds command descriptors in registration order
type Registry struct {
	descriptors []*command.Descriptor
	keys        map[string]*command.Descriptor
	resolvers   *resolve.Set
	logger      *log.Logger
	options     Options
}

// Match is the result of a successful Find
type Match struct {
	Descriptor *command.Descriptor
	// Consumed is the number of argument words taken by the command path
	Consumed int
}

// New creates an empty registry
func New(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.GetDefault()
	}
	if opts.Resolvers == nil {
		opts.Resolvers = resolve.NewSet()
	}
	if opts.SuggestionCount <= 0 {
		opts.SuggestionCount = DefaultSuggestionCount
	}
	if opts.SuggestionThreshold <= 0 {
		opts.SuggestionThreshold = DefaultSuggestionThreshold
	}
	return &Registry{
		keys:      make(map[string]*command.Descriptor),
		resolvers: opts.Resolvers,
		logger:    opts.Logger.WithField("component", "command-registry"),
		options:   opts,
	}
}

// Resolvers returns the resolver set overloads are bound against
func (r *Registry) Resolvers() *resolve.Set {
	return r.resolvers
}

// Register validates d and adds it. Names and aliases must not collide
// with any registered name or alias.
func (r *Registry) Register(d *command.Descriptor) error {
	if d == nil {
		return ckerror.New("descriptor cannot be nil").
			WithCode(ckerror.CodeInvalidDescriptor).
			WithOperation("registry.Register")
	}
	if err := d.Finalize(); err != nil {
		return ckerror.Wrap(err, "invalid command descriptor").
			WithCode(ckerror.CodeInvalidDescriptor).
			WithOperation("registry.Register").
			WithDetail("command", d.Name)
	}
	for _, o := range d.Overloads {
		if err := r.resolvers.Bind(o); err != nil {
			return ckerror.Wrap(err, "invalid command descriptor").
				WithCode(ckerror.CodeInvalidDescriptor).
				WithOperation("registry.Register").
				WithDetail("command", d.Name)
		}
	}

	keys := []string{strings.Join(d.Path, " ")}
	for _, p := range d.AliasPaths {
		keys = append(keys, strings.Join(p, " "))
	}
	for _, k := range keys {
		if other, exists := r.keys[k]; exists {
			return ckerror.Newf("command path %q already registered by %s", k, other.Name).
				WithCode(ckerror.CodeDuplicateCommand).
				WithOperation("registry.Register").
				WithDetail("command", d.Name)
		}
	}
	for _, k := range keys {
		r.keys[k] = d
	}
	r.descriptors = append(r.descriptors, d)

	r.logger.Info("Command registered", log.Fields{
		"command":   d.Name,
		"aliases":   len(d.Aliases),
		"overloads": len(d.Overloads),
		"static":    d.Static(),
		"channels":  d.Channels.String(),
		"hidden":    d.Hidden,
	})
	return nil
}

// Find returns the descriptor whose name or alias path is the longest
// prefix of args among those enabled on channel. When nothing matches, the
// error carries "did you mean" suggestions.
func (r *Registry) Find(args []string, channel command.Channel) (Match, error) {
	var (
		best     Match
		disabled *command.Descriptor
	)
	for _, d := range r.descriptors {
		n := longestPrefix(d, args)
		if n == 0 {
			continue
		}
		if !d.Channels.Has(channel) {
			disabled = d
			continue
		}
		if n > best.Consumed {
			best = Match{Descriptor: d, Consumed: n}
		}
	}
	if best.Descriptor != nil {
		return best, nil
	}

	if disabled != nil {
		return Match{}, ckerror.Newf("%s is not available on the %s channel", disabled.Name, channel).
			WithCode(ckerror.CodeChannelDisabled).
			WithOperation("registry.Find").
			WithDetail("command", disabled.Name)
	}

	word := ""
	if len(args) > 0 {
		word = args[0]
	}
	suggestions := r.Suggest(args, channel)
	return Match{}, ckerror.Newf("unknown command %q", word).
		WithCode(ckerror.CodeCommandNotFound).
		WithOperation("registry.Find").
		WithDetail("suggestions", suggestions)
}

func longestPrefix(d *command.Descriptor, args []string) int {
	n := 0
	if hasPrefix(args, d.Path) {
		n = len(d.Path)
	}
	for _, p := range d.AliasPaths {
		if len(p) > n && hasPrefix(args, p) {
			n = len(p)
		}
	}
	return n
}

func hasPrefix(args, path []string) bool {
	if len(path) == 0 || len(path) > len(args) {
		return false
	}
	for i, seg := range path {
		if !strings.EqualFold(args[i], seg) {
			return false
		}
	}
	return true
}

// FindOverload picks the overload for the words following the command
// path. The longest matching sub-path whose parameters can take the rest
// wins; otherwise the default overload is used when compatible. consumed
// is the number of words taken by the sub-path.
func (r *Registry) FindOverload(args []string, d *command.Descriptor) (o *command.Overload, consumed int) {
	best := -1
	for _, candidate := range d.Overloads {
		n := len(candidate.SubPath)
		if n == 0 || n <= best || !hasPrefix(args, candidate.SubPath) {
			continue
		}
		if candidate.Compatible(len(args) - n) {
			o, best = candidate, n
		}
	}
	if o != nil {
		return o, best
	}
	if def := d.DefaultOverload(); def != nil && def.Compatible(len(args)) {
		return def, 0
	}
	return nil, 0
}

// Get returns the descriptor registered under a name or alias
func (r *Registry) Get(name string) (*command.Descriptor, bool) {
	d, ok := r.keys[strings.Join(strings.Fields(strings.ToLower(name)), " ")]
	return d, ok
}

// All returns every descriptor in registration order
func (r *Registry) All() []*command.Descriptor {
	out := make([]*command.Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Commands returns the non-hidden descriptors enabled on channel, sorted
// by name.
func (r *Registry) Commands(channel command.Channel) []*command.Descriptor {
	var out []*command.Descriptor
	for _, d := range r.descriptors {
		if !d.Hidden && d.Channels.Has(channel) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i].Path, " ") < strings.Join(out[j].Path, " ")
	})
	return out
}
