package resolve

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/engine/parser"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

type fakeActor struct {
	id, name          string
	alive, privileged bool
	pos, facing       command.Vec3
}

func (a *fakeActor) ID() string             { return a.id }
func (a *fakeActor) Name() string           { return a.name }
func (a *fakeActor) Alive() bool            { return a.alive }
func (a *fakeActor) Privileged() bool       { return a.privileged }
func (a *fakeActor) Position() command.Vec3 { return a.pos }
func (a *fakeActor) Facing() command.Vec3   { return a.facing }

type fakeWorld struct{ actors []command.Actor }

func (w *fakeWorld) Actors() []command.Actor { return w.actors }

func (w *fakeWorld) Actor(idOrName string) (command.Actor, bool) {
	for _, a := range w.actors {
		if a.ID() == idOrName || strings.EqualFold(a.Name(), idOrName) {
			return a, true
		}
	}
	return nil, false
}

// Raycast hits the nearest actor within one unit of the ray. The blocks
// mask only hits terrain, and there is none.
func (w *fakeWorld) Raycast(r Ray) (RayHit, bool) {
	if r.Mask == "blocks" {
		return RayHit{}, false
	}
	var best *RayHit
	for _, a := range w.actors {
		if a == r.Caster {
			continue
		}
		rel := a.(command.Locatable).Position().Sub(r.Origin)
		along := rel.Dot(r.Direction)
		if along <= 0 || along > r.Distance {
			continue
		}
		if rel.Sub(r.Direction.Scale(along)).Length() > 1 {
			continue
		}
		if best == nil || along < best.Distance {
			best = &RayHit{Point: r.Origin.Add(r.Direction.Scale(along)), Actor: a, Distance: along}
		}
	}
	if best == nil {
		return RayHit{}, false
	}
	return *best, true
}

type fakeCaller struct{ id, name string }

func (c fakeCaller) ID() string                        { return c.id }
func (c fakeCaller) Name() string                      { return c.name }
func (c fakeCaller) Deliver(*command.Response, string) {}

func newWorld() *fakeWorld {
	return &fakeWorld{actors: []command.Actor{
		&fakeActor{id: "a", name: "Alice", alive: true, privileged: true, facing: command.Vec3{X: 1}},
		&fakeActor{id: "b", name: "Bob", alive: false, privileged: false, pos: command.Vec3{X: 5}},
		&fakeActor{id: "c", name: "Carol", alive: true, privileged: false, pos: command.Vec3{Y: 5}},
		&fakeActor{id: "d", name: "Dave", alive: false, privileged: true, pos: command.Vec3{X: 20}},
	}}
}

func newCtx(w command.World, callerID string) *command.Context {
	ctx := command.NewContext(fakeCaller{id: callerID, name: callerID}, command.ChannelInteractive, "")
	ctx.World = w
	return ctx
}

func ids(actors []command.Actor) []string {
	out := make([]string, len(actors))
	for i, a := range actors {
		out[i] = a.ID()
	}
	return out
}

func TestSigilSelection(t *testing.T) {
	tests := []struct {
		sigil string
		want  []string
	}{
		{"@me", []string{"a"}},
		{"*", []string{"a", "b", "c", "d"}},
		{"*!", []string{"b", "c", "d"}},
		{"*&", []string{"a", "c"}},
		{"*!&", []string{"c"}},
		{"*&!", []string{"b", "d"}},
		{"*!&!", []string{"b", "d"}},
		{"*|", []string{"a", "d"}},
		{"*!|", []string{"d"}},
		{"*|!", []string{"b", "c"}},
		{"*!|!", []string{"b", "c"}},
	}
	ctx := newCtx(newWorld(), "a")
	for _, tt := range tests {
		t.Run(tt.sigil, func(t *testing.T) {
			sg, ok := ParseSigil(tt.sigil)
			if !ok {
				t.Fatalf("ParseSigil(%q) not recognised", tt.sigil)
			}
			got, err := sg.Select(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Select(%s) = %v, want %v", tt.sigil, ids(got), tt.want)
			}
		})
	}
}

func TestParseSigil_Rejects(t *testing.T) {
	for _, s := range []string{"alice", "*x", "*&&", "*!!", "**", "*&!!", "@you"} {
		if _, ok := ParseSigil(s); ok {
			t.Errorf("ParseSigil(%q) accepted", s)
		}
	}
}

func TestExcludeSelf_ThreeCallers(t *testing.T) {
	w := &fakeWorld{actors: []command.Actor{
		&fakeActor{id: "A", name: "A", alive: true},
		&fakeActor{id: "B", name: "B", alive: true},
		&fakeActor{id: "C", name: "C", alive: true},
	}}
	set := NewSet()
	r, _ := set.For(command.TypeActors)
	p := command.Param("targets", command.TypeActors)

	res := r.Resolve(token.Plains("*!"), 0, newCtx(w, "A"), &p)
	if !res.Success {
		t.Fatalf("resolve failed: %v", res.Err)
	}
	if got := ids(res.Value.([]command.Actor)); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("*! by A = %v, want [B C]", got)
	}
}

func TestLookupActor(t *testing.T) {
	ctx := newCtx(newWorld(), "a")
	tests := []struct {
		name      string
		input     string
		precision float64
		want      string
		wantErr   bool
	}{
		{"exact id", "c", 0.6, "c", false},
		{"exact name any case", "bOB", 0.6, "b", false},
		{"fuzzy", "Carl", 0.6, "c", false},
		{"below precision", "Carl", 0.9, "", true},
		{"no match", "zzzzz", 0.6, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := LookupActor(ctx, tt.input, tt.precision)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", a.ID())
				}
				return
			}
			if err != nil || a.ID() != tt.want {
				t.Errorf("LookupActor(%q) = %v, %v", tt.input, a, err)
			}
		})
	}
}

func TestCollectionDeduplicates(t *testing.T) {
	set := NewSet()
	r, _ := set.For(command.TypeActors)
	p := command.Param("targets", command.TypeActors)
	tokens := []token.Token{token.Collection{Items: []string{"carol", "*&", "bob"}}}

	res := r.Resolve(tokens, 0, newCtx(newWorld(), "a"), &p)
	if !res.Success {
		t.Fatal(res.Err)
	}
	if got := ids(res.Value.([]command.Actor)); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("collection = %v", got)
	}
}

func TestScalarResolvers(t *testing.T) {
	set := NewSet()
	ctx := newCtx(newWorld(), "a")
	tests := []struct {
		name    string
		param   command.Parameter
		input   string
		want    any
		wantErr bool
	}{
		{"int", command.Param("n", command.TypeInt), "42", 42, false},
		{"int invalid", command.Param("n", command.TypeInt), "4x", nil, true},
		{"int range", command.Param("n", command.TypeInt, command.Range(1, 10)), "11", nil, true},
		{"float", command.Param("f", command.TypeFloat), "2.5", 2.5, false},
		{"bool", command.Param("b", command.TypeBool), "yes", true, false},
		{"duration seconds", command.Param("d", command.TypeDuration), "5", 5 * time.Second, false},
		{"duration go", command.Param("d", command.TypeDuration), "1m30s", 90 * time.Second, false},
		{"enum canonical", command.Param("e", command.TypeEnum, command.OneOf("Fast", "Slow")), "fast", "Fast", false},
		{"enum invalid", command.Param("e", command.TypeEnum, command.OneOf("Fast", "Slow")), "medium", nil, true},
		{"position", command.Param("p", command.TypePosition), "1,2,3", command.Vec3{X: 1, Y: 2, Z: 3}, false},
		{"position from actor", command.Param("p", command.TypePosition), "carol", command.Vec3{Y: 5}, false},
		{"map", command.Param("m", command.TypeStringMap), "hp:10", map[string]string{"hp": "10"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := set.For(tt.param.Type)
			if !ok {
				t.Fatalf("no resolver for %s", tt.param.Type)
			}
			res := r.Resolve(token.Plains(tt.input), 0, ctx, &tt.param)
			if tt.wantErr {
				if res.Success || !ckerror.HasCode(res.Err, ckerror.CodeInvalidArguments) {
					t.Errorf("expected INVALID_ARGS, got %+v", res)
				}
				return
			}
			if !res.Success {
				t.Fatalf("resolve failed: %v", res.Err)
			}
			if !reflect.DeepEqual(res.Value, tt.want) {
				t.Errorf("value = %#v, want %#v", res.Value, tt.want)
			}
		})
	}
}

func TestMethodsAndProperties(t *testing.T) {
	set := NewSet()
	set.Methods.Register("double", func(ctx *command.Context, call token.MethodCall) (any, error) {
		v, err := set.Eval(ctx, call.Args[0])
		if err != nil {
			return nil, err
		}
		n, err := parseInt(ctx, nil, v.(string))
		return n.(int) * 2, err
	})
	set.Methods.Register("explode", func(*command.Context, token.MethodCall) (any, error) {
		panic("boom")
	})
	ctx := newCtx(newWorld(), "a")

	tests := []struct {
		name    string
		line    string
		typ     command.Type
		want    any
		wantErr string
	}{
		{"method value", "double(21)", command.TypeInt, 42, ""},
		{"ray to player", "rayToPlayer(ray(10))", command.TypeActor, "b", ""},
		{"ray out of reach", "rayToPlayer(ray(3))", command.TypeActor, nil, "no actor in sight"},
		{"ray point", "rayPoint(ray(10))", command.TypePosition, command.Vec3{X: 5}, ""},
		{"ray point miss", "rayPoint(ray(blocks))", command.TypePosition, command.Vec3{X: DefaultRayDistance}, ""},
		{"ray NaN distance", "rayPoint(ray(NaN))", command.TypePosition, nil, "positive finite"},
		{"ray infinite distance", "rayPoint(ray(+Inf))", command.TypePosition, nil, "positive finite"},
		{"ray negative distance", "rayPoint(ray(-5))", command.TypePosition, nil, "positive finite"},
		{"property name", "$caller.name", command.TypeString, "a", ""},
		{"property actor", "$actor.carol.y", command.TypeFloat, 5.0, ""},
		{"unknown method", "nope(1)", command.TypeInt, nil, "unknown method"},
		{"panicking method", "explode()", command.TypeInt, nil, "panicked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := parser.Tokenize(tt.line, 0)
			if err != nil {
				t.Fatal(err)
			}
			p := command.Param("x", tt.typ)
			r, _ := set.For(tt.typ)
			res := r.Resolve(tokens, 0, ctx, &p)
			if tt.wantErr != "" {
				if res.Success || !strings.Contains(res.Err.Error(), tt.wantErr) {
					t.Errorf("want error %q, got %+v", tt.wantErr, res)
				}
				return
			}
			if !res.Success {
				t.Fatalf("resolve failed: %v", res.Err)
			}
			got := res.Value
			if a, ok := got.(command.Actor); ok {
				got = a.ID()
			}
			if v, ok := got.(command.Vec3); ok {
				want := tt.want.(command.Vec3)
				if math.Abs(v.Sub(want).Length()) > 1e-9 {
					t.Errorf("position = %v, want %v", v, want)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("value = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	set := NewSet()
	o := &command.Overload{
		Handler: func(*command.Context, command.Args) (command.Outcome, error) { return command.Complete() },
		Params: []command.Parameter{
			command.Param("target", command.TypeActor),
			command.Param("amount", command.TypeInt),
			command.Param("reason", command.TypeString, command.Default("none")),
		},
	}
	if err := o.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := set.Bind(o); err != nil {
		t.Fatal(err)
	}
	ctx := newCtx(newWorld(), "a")

	tests := []struct {
		name     string
		tokens   []token.Token
		wantCode ckerror.Code
		wantArgs command.Args
		diags    int
	}{
		{"all present", token.Plains("bob", "3", "why"), "", command.Args{"b", 3, "why"}, 0},
		{"default filled", token.Plains("bob", "3"), "", command.Args{"b", 3, "none"}, 0},
		{"missing required", token.Plains("bob"), ckerror.CodeMissingArguments, nil, 1},
		{"invalid beats missing", token.Plains("nobody-at-all"), ckerror.CodeInvalidArguments, nil, 2},
		{"all diagnostics collected", token.Plains("nobody-at-all", "x"), ckerror.CodeInvalidArguments, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, results, err := ResolveAll(ctx, o, tt.tokens)
			if len(results) != 3 {
				t.Fatalf("results = %d, want 3", len(results))
			}
			if tt.wantCode != "" {
				if !ckerror.HasCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				ckErr, _ := ckerror.As(err)
				d, _ := ckErr.Detail("diagnostics")
				if n := len(d.([]string)); n != tt.diags {
					t.Errorf("diagnostics = %d, want %d", n, tt.diags)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := command.Args{args.Actor(0).ID(), args.Int(1), args.String(2)}
			if !reflect.DeepEqual(got, tt.wantArgs) {
				t.Errorf("args = %v, want %v", got, tt.wantArgs)
			}
		})
	}
}

func TestBind_UnknownType(t *testing.T) {
	o := &command.Overload{Params: []command.Parameter{command.Param("x", "colour")}}
	if err := NewSet().Bind(o); err == nil {
		t.Error("Bind accepted an unknown type")
	}
}
