package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/pkg/core/config"
)

// DefaultOverload is the manifest key of an overload without sub-path
const DefaultOverload = "default"

// Manifest holds metadata overrides keyed by command name. Overrides are
// applied to descriptors before they are registered.
type Manifest struct {
	Commands map[string]Command `toml:"commands" yaml:"commands"`
}

// Command overrides the metadata of one descriptor. Nil fields keep the
// value declared in code.
type Command struct {
	Description *string             `toml:"description" yaml:"description"`
	Permission  *string             `toml:"permission" yaml:"permission"`
	Hidden      *bool               `toml:"hidden" yaml:"hidden"`
	Timeout     *config.Duration    `toml:"timeout" yaml:"timeout"`
	Aliases     []string            `toml:"aliases" yaml:"aliases"`
	Channels    []string            `toml:"channels" yaml:"channels"`
	Overloads   map[string]Overload `toml:"overloads" yaml:"overloads"`
}

// Overload overrides the metadata of one overload
type Overload struct {
	Description *string `toml:"description" yaml:"description"`
	Permission  *string `toml:"permission" yaml:"permission"`
	Default     *bool   `toml:"default" yaml:"default"`
}

// Load reads a manifest from a TOML or YAML file
func Load(path string) (*Manifest, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ckerror.Newf("manifest not found: %s", path).
				WithCode(ckerror.CodeMissingConfig).
				WithOperation("manifest.Load")
		}
		return nil, ckerror.Wrap(err, "failed to read manifest").WithCode(ckerror.CodeConfigError)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = toml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, ckerror.Wrap(err, "failed to parse manifest").
			WithCode(ckerror.CodeInvalidConfig).
			WithDetail("path", path)
	}
	return &m, nil
}

// Apply applies the overrides to the matching descriptors. Every command
// and overload named in the manifest must exist; on error no descriptor is
// modified.
func (m *Manifest) Apply(descriptors []*command.Descriptor) error {
	if m == nil || len(m.Commands) == 0 {
		return nil
	}

	byName := make(map[string]*command.Descriptor, len(descriptors))
	for _, d := range descriptors {
		byName[strings.ToLower(d.Name)] = d
	}

	var (
		problems []string
		changes  []func()
	)
	for _, name := range m.names() {
		c := m.Commands[name]
		d, ok := byName[strings.ToLower(name)]
		if !ok {
			problems = append(problems, "unknown command "+name)
			continue
		}
		fns, errs := c.changes(d)
		problems = append(problems, errs...)
		changes = append(changes, fns...)
	}
	if len(problems) > 0 {
		return ckerror.Newf("manifest has %d invalid entries", len(problems)).
			WithCode(ckerror.CodeInvalidConfig).
			WithOperation("manifest.Apply").
			WithDetail("diagnostics", problems)
	}
	for _, fn := range changes {
		fn()
	}
	return nil
}

func (m *Manifest) names() []string {
	names := make([]string, 0, len(m.Commands))
	for name := range m.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Command) changes(d *command.Descriptor) ([]func(), []string) {
	var (
		fns      []func()
		problems []string
	)
	if c.Description != nil {
		v := *c.Description
		fns = append(fns, func() { d.Description = v })
	}
	if c.Permission != nil {
		v := *c.Permission
		fns = append(fns, func() { d.Permission = v })
	}
	if c.Hidden != nil {
		v := *c.Hidden
		fns = append(fns, func() { d.Hidden = v })
	}
	if c.Timeout != nil {
		v := c.Timeout.Duration
		if v < 0 {
			problems = append(problems, d.Name+": negative timeout")
		}
		fns = append(fns, func() { d.Timeout = v })
	}
	if c.Aliases != nil {
		v := append([]string(nil), c.Aliases...)
		fns = append(fns, func() { d.Aliases = v })
	}
	if c.Channels != nil {
		ch, err := command.ParseChannels(c.Channels)
		if err != nil {
			problems = append(problems, d.Name+": "+err.Error())
		}
		fns = append(fns, func() { d.Channels = ch })
	}

	keys := make([]string, 0, len(c.Overloads))
	for key := range c.Overloads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		o := find(d, key)
		if o == nil {
			problems = append(problems, d.Name+": unknown overload "+key)
			continue
		}
		fns = append(fns, c.Overloads[key].changes(o)...)
	}
	return fns, problems
}

func (ov Overload) changes(o *command.Overload) []func() {
	var fns []func()
	if ov.Description != nil {
		v := *ov.Description
		fns = append(fns, func() { o.Description = v })
	}
	if ov.Permission != nil {
		v := *ov.Permission
		fns = append(fns, func() { o.Permission = v })
	}
	if ov.Default != nil {
		v := *ov.Default
		fns = append(fns, func() { o.Default = v })
	}
	return fns
}

// find returns the overload declared under key, matching sub-paths
// case-insensitively and ignoring repeated spaces.
func find(d *command.Descriptor, key string) *command.Overload {
	want := strings.Join(strings.Fields(strings.ToLower(key)), " ")
	for _, o := range d.Overloads {
		name := strings.Join(strings.Fields(strings.ToLower(o.Name)), " ")
		if name == want || (name == "" && want == DefaultOverload) {
			return o
		}
	}
	return nil
}
