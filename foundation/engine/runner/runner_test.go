package runner

import (
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

type caller struct{ id string }

func (c caller) ID() string                        { return c.id }
func (c caller) Name() string                      { return c.id }
func (c caller) Deliver(*command.Response, string) {}

type delivery struct {
	ctx  *command.Context
	resp *command.Response
}

type recorder struct{ got []delivery }

func (r *recorder) sink(ctx *command.Context, resp *command.Response) {
	r.got = append(r.got, delivery{ctx, resp})
}

func (r *recorder) last(t *testing.T) *command.Response {
	t.Helper()
	if len(r.got) == 0 {
		t.Fatal("nothing delivered")
	}
	return r.got[len(r.got)-1].resp
}

func newManager() (*Manager, *recorder) {
	rec := &recorder{}
	return New(Options{Logger: log.Discard(), Sink: rec.sink}), rec
}

// start finalizes d and runs its default overload like the engine does
func start(t *testing.T, m *Manager, who command.Caller, d *command.Descriptor, args ...any) *Runner {
	t.Helper()
	if d.DefaultOverload() == nil {
		if err := d.Finalize(); err != nil {
			t.Fatal(err)
		}
	}
	ctx := command.NewContext(who, command.ChannelInteractive, d.Name)
	ctx.Descriptor = d
	ctx.Overload = d.DefaultOverload()
	if pool := d.Pool(); pool != nil {
		inst, err := pool.Get()
		if err != nil {
			t.Fatal(err)
		}
		ctx.Instance = inst
	}
	buf := ctx.Overload.Buffer()
	copy(buf, args)
	return m.Run(ctx, buf)
}

func static(name string, h command.Handler) *command.Descriptor {
	return &command.Descriptor{Name: name, Description: name, Overloads: []*command.Overload{{Handler: h}}}
}

func TestRegular(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	r := start(t, m, alice, static("ping", func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
		ctx.Reply("pong")
		return command.Complete()
	}))

	if !r.Done() || m.Active(alice) != nil || m.Live() != 0 {
		t.Errorf("regular runner left state behind")
	}
	if len(rec.got) != 1 || rec.last(t).Content[0] != "pong" {
		t.Errorf("deliveries = %+v", rec.got)
	}
}

type survey struct {
	answers  []string
	timeouts int
	resets   int
}

func (s *survey) Continue(ctx *command.Context, input string) (command.Outcome, error) {
	s.answers = append(s.answers, input)
	if input == "panic" {
		panic("bad answer")
	}
	if len(s.answers) < 2 {
		ctx.Reply("next question")
		ctx.KeepAlive()
	} else {
		ctx.Reply("thanks: %s", strings.Join(s.answers, ","))
	}
	return command.Complete()
}

func (s *survey) OnTimeout(ctx *command.Context) error {
	s.timeouts++
	ctx.Reply("survey expired")
	return nil
}

func (s *survey) Reset() {
	s.answers = nil
	s.resets++
}

func surveyDescriptor(timeout time.Duration, last **survey) *command.Descriptor {
	return &command.Descriptor{
		Name: "survey", Description: "survey", Timeout: timeout,
		Factory: func() any { return &survey{} },
		Overloads: []*command.Overload{{Handler: command.Method(func(s *survey, ctx *command.Context, _ command.Args) (command.Outcome, error) {
			*last = s
			ctx.Reply("first question")
			ctx.KeepAlive()
			return command.Complete()
		})}},
	}
}

func TestContinuable_TimeoutFiresOnce(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	var s *survey
	d := surveyDescriptor(5*time.Second, &s)
	r := start(t, m, alice, d)

	if r.Discipline() != command.DisciplineContinuable || m.Active(alice) != r {
		t.Fatalf("continuation not installed: %v", r.Discipline())
	}
	if !m.ShouldContinue(alice, "anything") || m.ShouldContinue(caller{"bob"}, "x") {
		t.Fatal("ShouldContinue routing is wrong")
	}
	if d.Pool().Free() != 0 {
		t.Error("instance returned to pool while the conversation waits")
	}

	for i := 0; i < 4; i++ {
		m.Tick(time.Second)
	}
	if s.timeouts != 0 {
		t.Fatalf("timeout fired early")
	}
	m.Tick(time.Second)
	if s.timeouts != 1 {
		t.Fatalf("timeouts after 5 ticks = %d, want 1", s.timeouts)
	}
	if m.Active(alice) != nil || !r.Done() || m.Live() != 0 {
		t.Error("active slot not cleared after timeout")
	}
	for i := 0; i < 5; i++ {
		m.Tick(time.Second)
	}
	if s.timeouts != 1 {
		t.Errorf("timeout fired %d times", s.timeouts)
	}
	if rec.last(t).Content[0] != "survey expired" {
		t.Errorf("timeout response = %+v", rec.last(t))
	}
	if d.Pool().Free() != 1 {
		t.Error("instance not pooled after timeout")
	}
}

func TestContinuable_Conversation(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	var s *survey
	d := surveyDescriptor(10*time.Second, &s)
	r := start(t, m, alice, d)
	first := r.Context()
	if m.Busy(alice) {
		t.Error("a runner waiting for input counts as busy")
	}

	m.Tick(8 * time.Second)
	if !m.Continue(alice, "blue") {
		t.Fatal("input not routed")
	}
	second := r.Context()
	if second.Previous != first || second.Input != "blue" {
		t.Errorf("turn context not chained")
	}
	// the countdown restarts with every continued turn
	m.Tick(8 * time.Second)
	if s.timeouts != 0 || r.Done() {
		t.Fatal("countdown not restarted")
	}

	m.Continue(alice, "green")
	if !r.Done() || m.Active(alice) != nil {
		t.Error("conversation did not end")
	}
	if got := rec.last(t).Content[0]; got != "thanks: blue,green" {
		t.Errorf("final response = %q", got)
	}
	if m.Continue(alice, "late") {
		t.Error("input routed after the conversation ended")
	}
	if len(s.answers) != 0 || d.Pool().Free() != 1 {
		t.Errorf("instance not reset into the pool")
	}
}

func countdown(n int, out *[]int) iter.Seq[time.Duration] {
	return func(yield func(time.Duration) bool) {
		for i := n; i > 0; i-- {
			*out = append(*out, i)
			if !yield(time.Second) {
				return
			}
		}
	}
}

func TestCoroutine(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	var seen []int
	finished := false
	r := start(t, m, alice, static("countdown", func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
		return command.Stepped(countdown(3, &seen), func(ctx *command.Context) error {
			finished = true
			ctx.Reply("liftoff")
			return nil
		})
	}))

	if r.Discipline() != command.DisciplineCoroutine || m.Active(alice) != r {
		t.Fatalf("coroutine not installed")
	}
	if !m.Busy(alice) || m.Busy(caller{"bob"}) {
		t.Errorf("Busy() = %v, %v", m.Busy(alice), m.Busy(caller{"bob"}))
	}
	if len(seen) != 1 {
		t.Fatalf("first step should run on dispatch, seen %v", seen)
	}
	if m.ShouldContinue(alice, "x") {
		t.Error("a coroutine must not capture input")
	}
	m.Tick(500 * time.Millisecond)
	if len(seen) != 1 {
		t.Errorf("stepped before its wait elapsed")
	}
	m.Tick(500 * time.Millisecond)
	m.Tick(time.Second)
	if len(seen) != 3 || finished {
		t.Fatalf("seen %v finished %v", seen, finished)
	}
	m.Tick(time.Second)
	if !finished || !r.Done() || m.Active(alice) != nil || m.Busy(alice) {
		t.Fatal("coroutine did not complete")
	}
	if len(rec.got) != 1 || rec.last(t).Content[0] != "liftoff" {
		t.Errorf("deliveries = %+v", rec.got)
	}
}

func TestAsync(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	future := command.NewFuture()
	r := start(t, m, alice, static("lookup", func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
		return command.Awaiting(future, func(ctx *command.Context, v any, err error) error {
			ctx.Reply("answer %v", v)
			return err
		})
	}))

	if r.Discipline() != command.DisciplineAsync || len(rec.got) != 0 {
		t.Fatal("async runner should wait")
	}
	m.Tick(time.Second)
	if r.Done() {
		t.Fatal("completed before the future")
	}
	// completion happens off the logic thread; the result waits for a tick
	done := make(chan struct{})
	go func() {
		future.Complete("42", nil)
		close(done)
	}()
	<-done
	if r.Done() {
		t.Fatal("completion bypassed the tick")
	}
	m.Tick(time.Second)
	if !r.Done() || rec.last(t).Content[0] != "answer 42" {
		t.Errorf("async completion not delivered: %+v", rec.got)
	}
}

func TestInput(t *testing.T) {
	m, rec := newManager()
	alice := caller{"alice"}
	var answers []string
	var ask command.InputCallback
	ask = func(ctx *command.Context, input string) (command.Outcome, error) {
		answers = append(answers, input)
		if input == "again" {
			ctx.Ask("once more?", ask)
		}
		return command.Complete()
	}
	r := start(t, m, alice, static("confirm", func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
		ctx.Ask("are you sure?", ask)
		return command.Complete()
	}))

	if r.Discipline() != command.DisciplineInput || rec.last(t).Prompt != "are you sure?" {
		t.Fatal("input runner not installed")
	}
	m.Continue(alice, "again")
	if r.Done() {
		t.Fatal("re-requested input should keep the runner")
	}
	m.Continue(alice, "give @me keycard")
	if !r.Done() || m.Active(alice) != nil {
		t.Error("input runner not removed")
	}
	if strings.Join(answers, "|") != "again|give @me keycard" {
		t.Errorf("answers = %v", answers)
	}
}

func TestFailures_DoNotStopTheLoop(t *testing.T) {
	boom := func() { panic("boom") }
	tests := []struct {
		name  string
		desc  func() *command.Descriptor
		drive func(m *Manager, who command.Caller)
	}{
		{
			name: "regular panic",
			desc: func() *command.Descriptor {
				return static("a", func(*command.Context, command.Args) (command.Outcome, error) { boom(); return nil, nil })
			},
		},
		{
			name: "regular error",
			desc: func() *command.Descriptor {
				return static("a", func(*command.Context, command.Args) (command.Outcome, error) { return nil, errors.New("boom") })
			},
		},
		{
			name: "coroutine panic",
			desc: func() *command.Descriptor {
				return static("a", func(*command.Context, command.Args) (command.Outcome, error) {
					return command.Stepped(func(yield func(time.Duration) bool) {
						yield(time.Second)
						boom()
					}, nil)
				})
			},
			drive: func(m *Manager, _ command.Caller) { m.Tick(time.Second) },
		},
		{
			name: "async error",
			desc: func() *command.Descriptor {
				return static("a", func(*command.Context, command.Args) (command.Outcome, error) {
					f := command.NewFuture()
					f.Complete(nil, errors.New("boom"))
					return command.Awaiting(f, nil)
				})
			},
			drive: func(m *Manager, _ command.Caller) { m.Tick(time.Second) },
		},
		{
			name: "async finish panic",
			desc: func() *command.Descriptor {
				return static("a", func(*command.Context, command.Args) (command.Outcome, error) {
					f := command.NewFuture()
					f.Complete(1, nil)
					return command.Awaiting(f, func(*command.Context, any, error) error { boom(); return nil })
				})
			},
			drive: func(m *Manager, _ command.Caller) { m.Tick(time.Second) },
		},
		{
			name: "continuable panic",
			desc: func() *command.Descriptor {
				var s *survey
				return surveyDescriptor(time.Minute, &s)
			},
			drive: func(m *Manager, who command.Caller) { m.Continue(who, "panic") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newManager()
			alice := caller{"alice"}
			r := start(t, m, alice, tt.desc())
			if tt.drive != nil {
				tt.drive(m, alice)
			}
			resp := rec.last(t)
			if resp.Success || resp.Code != ckerror.CodeExecution || !strings.Contains(resp.Content[0], "boom") && !strings.Contains(resp.Content[0], "bad answer") {
				t.Errorf("failure response = %+v", resp)
			}
			if !r.Done() || m.Active(alice) != nil || m.Live() != 0 {
				t.Error("failed runner not cleared")
			}

			after := start(t, m, alice, static("ok", func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
				ctx.Reply("still alive")
				return command.Complete()
			}))
			if !after.Done() || rec.last(t).Content[0] != "still alive" {
				t.Error("dispatch after a failure did not work")
			}
		})
	}
}

func TestContinuation_SteppedTurnRestoresConversation(t *testing.T) {
	m, _ := newManager()
	alice := caller{"alice"}
	var s *survey
	d := surveyDescriptor(time.Minute, &s)
	r := start(t, m, alice, d)

	// a regular coroutine started meanwhile sits on top and is removed again
	var seen []int
	co := start(t, m, alice, static("countdown", func(*command.Context, command.Args) (command.Outcome, error) {
		return command.Stepped(countdown(1, &seen), nil)
	}))
	if m.Active(alice) != co || co.previous != r {
		t.Fatal("coroutine did not save the previous runner")
	}
	if m.ShouldContinue(alice, "x") {
		t.Error("input must not reach the conversation while a coroutine is on top")
	}
	m.Tick(time.Second)
	if !co.Done() || m.Active(alice) != r {
		t.Fatal("previous runner not restored")
	}
	if !m.ShouldContinue(alice, "x") {
		t.Error("conversation no longer receives input")
	}
}

func TestDeferredInvocationKeepsArguments(t *testing.T) {
	m, _ := newManager()
	alice := caller{"alice"}
	var got []string
	d := &command.Descriptor{Name: "later", Description: "later", Overloads: []*command.Overload{{
		Params: []command.Parameter{command.Param("msg", command.TypeString)},
		Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
			return command.Stepped(func(yield func(time.Duration) bool) {
				yield(time.Second)
				got = append(got, args.String(0))
			}, nil)
		},
	}}}
	start(t, m, alice, d, "first")
	start(t, m, caller{"bob"}, d, "second")
	m.Tick(time.Second)

	if strings.Join(got, ",") != "first,second" {
		t.Errorf("deferred args = %v", got)
	}
}

func TestUnregister(t *testing.T) {
	m, _ := newManager()
	alice := caller{"alice"}
	var s *survey
	d := surveyDescriptor(time.Minute, &s)
	r := start(t, m, alice, d)
	var seen []int
	co := start(t, m, alice, static("countdown", func(*command.Context, command.Args) (command.Outcome, error) {
		return command.Stepped(countdown(5, &seen), nil)
	}))

	m.Unregister(alice)
	if !r.Done() || !co.Done() || m.Live() != 0 || m.Sessions() != 0 {
		t.Error("runners survive unregister")
	}
	m.Tick(time.Minute)
	if s.timeouts != 0 || len(seen) != 1 {
		t.Errorf("cleared runners still ticking: timeouts=%d steps=%v", s.timeouts, seen)
	}
	if d.Pool().Free() != 1 {
		t.Error("instance not pooled on unregister")
	}
}
