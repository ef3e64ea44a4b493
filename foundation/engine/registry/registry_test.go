package registry

import (
	"reflect"
	"testing"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

func noop(*command.Context, command.Args) (command.Outcome, error) { return command.Complete() }

func desc(name string, overloads ...*command.Overload) *command.Descriptor {
	if len(overloads) == 0 {
		overloads = []*command.Overload{{Handler: noop}}
	}
	return &command.Descriptor{Name: name, Description: name + " command", Overloads: overloads}
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(Options{Logger: log.Discard()})

	tp := desc("teleport",
		&command.Overload{Handler: noop, Params: []command.Parameter{command.Param("target", command.TypeActors), command.Param("to", command.TypePosition)}},
		&command.Overload{Name: "home", Handler: noop, Params: []command.Parameter{command.Param("target", command.TypeActors, command.Default("@me"))}},
		&command.Overload{Name: "home set", Handler: noop},
	)
	tp.Aliases = []string{"tp"}

	survey := desc("survey start", &command.Overload{Handler: noop, Params: []command.Parameter{command.Param("q", command.TypeString)}})
	debug := desc("debug")
	debug.Hidden = true
	console := desc("shutdown")
	console.Channels = command.ChannelConsole

	for _, d := range []*command.Descriptor{tp, desc("heal"), desc("help"), desc("give"), desc("survey"), survey, debug, console} {
		if err := r.Register(d); err != nil {
			t.Fatalf("Register(%s): %v", d.Name, err)
		}
	}
	return r
}

func TestRegister_Rejects(t *testing.T) {
	r := newRegistry(t)
	tests := []struct {
		name string
		d    *command.Descriptor
		code ckerror.Code
	}{
		{"nil", nil, ckerror.CodeInvalidDescriptor},
		{"no description", &command.Descriptor{Name: "x", Overloads: []*command.Overload{{Handler: noop}}}, ckerror.CodeInvalidDescriptor},
		{"unknown parameter type", desc("x", &command.Overload{Handler: noop, Params: []command.Parameter{command.Param("c", "colour")}}), ckerror.CodeInvalidDescriptor},
		{"duplicate name", desc("HEAL"), ckerror.CodeDuplicateCommand},
		{"alias collides with name", func() *command.Descriptor { d := desc("cure"); d.Aliases = []string{"heal"}; return d }(), ckerror.CodeDuplicateCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.d)
			if !ckerror.HasCode(err, tt.code) {
				t.Errorf("Register() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFind(t *testing.T) {
	r := newRegistry(t)
	tests := []struct {
		name     string
		args     []string
		channel  command.Channel
		want     string
		consumed int
		code     ckerror.Code
	}{
		{"by name", []string{"heal", "bob"}, command.ChannelInteractive, "heal", 1, ""},
		{"by alias", []string{"tp", "bob", "1,2,3"}, command.ChannelInteractive, "teleport", 1, ""},
		{"case insensitive", []string{"HeAl"}, command.ChannelInteractive, "heal", 1, ""},
		{"longest path wins", []string{"survey", "start", "why"}, command.ChannelInteractive, "survey start", 2, ""},
		{"shorter path", []string{"survey", "stop"}, command.ChannelInteractive, "survey", 1, ""},
		{"hidden still dispatchable", []string{"debug"}, command.ChannelInteractive, "debug", 1, ""},
		{"channel enabled", []string{"shutdown"}, command.ChannelConsole, "shutdown", 1, ""},
		{"channel disabled", []string{"shutdown"}, command.ChannelProgrammatic, "", 0, ckerror.CodeChannelDisabled},
		{"unknown", []string{"fly"}, command.ChannelInteractive, "", 0, ckerror.CodeCommandNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.Find(tt.args, tt.channel)
			if tt.code != "" {
				if !ckerror.HasCode(err, tt.code) {
					t.Fatalf("Find() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if m.Descriptor.Name != tt.want || m.Consumed != tt.consumed {
				t.Errorf("Find() = %s/%d, want %s/%d", m.Descriptor.Name, m.Consumed, tt.want, tt.consumed)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	r := newRegistry(t)
	tests := []struct {
		input []string
		want  []string
	}{
		{[]string{"telport", "bob"}, []string{"teleport"}},
		{[]string{"hea"}, []string{"heal", "help"}},
		{[]string{"debu"}, []string{}},
		{[]string{"survey", "strat"}, []string{"survey", "survey start"}},
	}
	for _, tt := range tests {
		got := r.Suggest(tt.input, command.ChannelInteractive)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Suggest(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}

	_, err := r.Find([]string{"telport"}, command.ChannelInteractive)
	ckErr, _ := ckerror.As(err)
	if v, _ := ckErr.Detail("suggestions"); !reflect.DeepEqual(v, []string{"teleport"}) {
		t.Errorf("not-found suggestions = %v", v)
	}
}

func TestFindOverload(t *testing.T) {
	r := newRegistry(t)
	tp, _ := r.Get("tp")
	tests := []struct {
		name     string
		args     []string
		want     string
		consumed int
		found    bool
	}{
		{"default", []string{"bob", "1,2,3"}, "", 0, true},
		{"sub-path", []string{"home", "bob"}, "home", 1, true},
		{"sub-path optional param", []string{"home"}, "home", 1, true},
		{"longest sub-path", []string{"home", "set"}, "home set", 2, true},
		{"too few for default", []string{"bob"}, "", 0, false},
		{"too many for default", []string{"bob", "1,2,3", "extra"}, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, n := r.FindOverload(tt.args, tp)
			if !tt.found {
				if o != nil {
					t.Errorf("FindOverload() = %q, want none", o.Name)
				}
				return
			}
			if o == nil || o.Name != tt.want || n != tt.consumed {
				t.Fatalf("FindOverload() = %v/%d, want %q/%d", o, n, tt.want, tt.consumed)
			}
			for i := 0; i < 10; i++ {
				again, m := r.FindOverload(tt.args, tp)
				if again != o || m != n {
					t.Fatalf("FindOverload is not stable across calls")
				}
			}
		})
	}
}

func TestCommands_HidesHiddenAndDisabled(t *testing.T) {
	r := newRegistry(t)
	var names []string
	for _, d := range r.Commands(command.ChannelInteractive) {
		names = append(names, d.Name)
	}
	want := []string{"give", "heal", "help", "survey", "survey start", "teleport"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Commands() = %v, want %v", names, want)
	}
	if len(r.All()) != 8 {
		t.Errorf("All() = %d descriptors", len(r.All()))
	}
}
