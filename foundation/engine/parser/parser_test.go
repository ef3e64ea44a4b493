package parser

import (
	"reflect"
	"testing"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/token"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  []token.Token
	}{
		{
			name:  "plain words",
			input: "give @me keycard",
			want:  token.Plains("give", "@me", "keycard"),
		},
		{
			name:  "extra whitespace",
			input: "  heal \t *!&  ",
			want:  token.Plains("heal", "*!&"),
		},
		{
			name:  "nested method call",
			input: "outer(inner(1;2);3)",
			want: []token.Token{token.MethodCall{Name: "outer", Args: []token.Token{
				token.MethodCall{Name: "inner", Args: token.Plains("1", "2")},
				token.Plain("3"),
			}}},
		},
		{
			name:  "three closing parens",
			input: "a(b(c(1)))",
			want: []token.Token{token.MethodCall{Name: "a", Args: []token.Token{
				token.MethodCall{Name: "b", Args: []token.Token{
					token.MethodCall{Name: "c", Args: token.Plains("1")},
				}},
			}}},
		},
		{
			name:  "method without arguments",
			input: "tp ray()",
			want:  []token.Token{token.Plain("tp"), token.MethodCall{Name: "ray"}},
		},
		{
			name:  "quoted argument hides parens",
			input: `say("a);b")`,
			want:  []token.Token{token.MethodCall{Name: "say", Args: token.Plains("a);b")}},
		},
		{
			name:  "escaped paren is literal",
			input: `echo(a\)b)`,
			want:  []token.Token{token.MethodCall{Name: "echo", Args: token.Plains("a)b")}},
		},
		{
			name:  "multi word argument",
			input: "say(hello world;2)",
			want:  []token.Token{token.MethodCall{Name: "say", Args: token.Plains("hello world", "2")}},
		},
		{
			name:  "collection",
			input: "kill [alice, bob]",
			want:  []token.Token{token.Plain("kill"), token.Collection{Items: []string{"alice", "bob"}}},
		},
		{
			name:  "empty collection",
			input: "[]",
			want:  []token.Token{token.Collection{Items: []string{}}},
		},
		{
			name:  "map",
			input: "{hp:10, armor : 2}",
			want:  []token.Token{token.Map{Entries: []token.Pair{{Key: "hp", Value: "10"}, {Key: "armor", Value: "2"}}}},
		},
		{
			name:  "property reference",
			input: "echo $caller.name",
			want:  []token.Token{token.Plain("echo"), token.PropertyRef{Path: []string{"caller", "name"}}},
		},
		{
			name:  "lone dollar is plain",
			input: "$ 5",
			want:  token.Plains("$", "5"),
		},
		{
			name:  "quoted string",
			input: `broadcast "hello there"`,
			want:  token.Plains("broadcast", "hello there"),
		},
		{
			name:  "escapes in plain string",
			input: `a\ b \[x \\`,
			want:  token.Plains("a b", "[x", `\`),
		},
		{
			name:  "identifier not followed by paren",
			input: "foo (bar)",
			want:  token.Plains("foo", "(bar)"),
		},
		{
			name:  "greedy remainder",
			input: "bob  hello   big world ",
			max:   2,
			want:  token.Plains("bob", "hello   big world"),
		},
		{
			name:  "greedy quoted tail",
			input: `say "hello world" again`,
			max:   2,
			want:  token.Plains("say", "hello world again"),
		},
		{
			name:  "greedy quoted single token",
			input: `say "hello world"`,
			max:   2,
			want:  token.Plains("say", "hello world"),
		},
		{
			name:  "greedy escaped tail",
			input: `say a\ b c`,
			max:   2,
			want:  token.Plains("say", "a b c"),
		},
		{
			name:  "greedy escaped quote kept",
			input: `say "a \" b" \"c`,
			max:   2,
			want:  token.Plains("say", `a " b "c`),
		},
		{
			name:  "max not exceeded",
			input: "a b",
			max:   3,
			want:  token.Plains("a", "b"),
		},
		{
			name:  "empty line",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input, tt.max)
			if err != nil {
				t.Fatalf("Tokenize(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q)\n got  %#v\n want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated method", "outer(inner(1;2)"},
		{"unterminated collection", "[a,b"},
		{"unterminated map", "{a:1"},
		{"unterminated quote", `"abc`},
		{"map entry without key", "{a}"},
		{"empty collection item", "[a,,b]"},
		{"empty property segment", "$a..b"},
		{"dangling escape", `abc\`},
		{"missing separator", "[a]b"},
		{"broken nested argument", "f([a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input, 0)
			if err == nil {
				t.Fatalf("Tokenize(%q) = %v, want error", tt.input, got)
			}
			if got != nil {
				t.Errorf("partial tokens returned: %v", got)
			}
			if !ckerror.HasCode(err, ckerror.CodeTokenParse) {
				t.Errorf("error code = %v, want TOKEN_PARSE", ckerror.GetCode(err))
			}
		})
	}
}

type hashScanner struct{ PlainScanner }

func (hashScanner) Name() string             { return "id" }
func (hashScanner) Starts(ctx *Context) bool { return ctx.Is('#') }
func (hashScanner) Emit(ctx *Context) (token.Token, error) {
	return token.PropertyRef{Path: []string{"id", ctx.Buffer.String()[1:]}}, nil
}

func TestRegister_InsertsBeforeCatchAll(t *testing.T) {
	p := New()
	p.Register(hashScanner{})

	names := p.Scanners()
	if names[len(names)-1] != "string" || names[len(names)-2] != "id" {
		t.Fatalf("scanner order = %v", names)
	}

	got, err := p.Tokenize("inspect #42", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []token.Token{token.Plain("inspect"), token.PropertyRef{Path: []string{"id", "42"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v", got)
	}
}
