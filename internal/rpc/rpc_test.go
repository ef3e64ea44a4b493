package rpc

import (
	"context"
	"iter"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/host"
	ckgrpc "github.com/msto63/cmdkit/pkg/core/grpc"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

type fixture struct {
	service *Service
	client  *Client

	mu           sync.Mutex
	connected    []string
	disconnected chan string
}

func ticks(n int) iter.Seq[time.Duration] {
	return func(yield func(time.Duration) bool) {
		for range n {
			if !yield(10 * time.Millisecond) {
				return
			}
		}
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	e := engine.New(engine.Options{Logger: cklog.Discard()})
	f := &fixture{disconnected: make(chan string, 8)}

	err := e.Register(
		&command.Descriptor{
			Name: "whoami", Description: "Shows the caller",
			Overloads: []*command.Overload{{
				Handler: func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
					ctx.Reply("%s via %s", ctx.Caller.Name(), ctx.Channel)
					return command.Complete()
				},
			}},
		},
		&command.Descriptor{
			Name: "shout", Description: "Broadcasts",
			Overloads: []*command.Overload{{
				Params: []command.Parameter{command.Param("message", command.TypeString, command.Greedy())},
				Handler: func(ctx *command.Context, args command.Args) (command.Outcome, error) {
					f.service.Announce(ctx.Caller.Name(), args.String(0))
					return command.Complete()
				},
			}},
		},
		&command.Descriptor{
			Name: "confirm", Description: "Asks first",
			Overloads: []*command.Overload{{
				Handler: func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
					ctx.Ask("sure?", func(ctx *command.Context, input string) (command.Outcome, error) {
						ctx.Reply("answer %s", input)
						return command.Complete()
					})
					return command.Complete()
				},
			}},
		},
		&command.Descriptor{
			Name: "launch", Description: "Counts down",
			Overloads: []*command.Overload{{
				Handler: func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
					return command.Stepped(ticks(3), func(ctx *command.Context) error {
						ctx.Reply("liftoff")
						return nil
					})
				},
			}},
		},
		&command.Descriptor{
			Name: "secret", Description: "Hidden", Hidden: true,
			Overloads: []*command.Overload{{
				Handler: func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
					return command.Complete()
				},
			}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	h := host.New(host.Options{Engine: e, TickInterval: 5 * time.Millisecond, Logger: cklog.Discard()})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	for h.Do(ctx, func(*engine.Engine) {}) == host.ErrStopped {
		time.Sleep(time.Millisecond)
	}

	logger := logging.Wrap("test", cklog.Discard())
	f.service = New(Options{
		Host:   h,
		Logger: logger,
		OnConnect: func(c *Caller) {
			f.mu.Lock()
			f.connected = append(f.connected, c.Name())
			f.mu.Unlock()
		},
		OnDisconnect: func(c *Caller) { f.disconnected <- c.Name() },
	})

	lis := bufconn.Listen(1 << 20)
	srv := ckgrpc.NewServer(ckgrpc.DefaultServerConfig(), logger)
	f.service.Register(srv.GRPCServer())
	go func() { _ = srv.Serve(lis) }()

	cfg := ckgrpc.DefaultClientConfig("passthrough:///bufnet")
	cfg.Logger = logger
	conn, err := ckgrpc.Dial(cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	f.client = NewClient(conn)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		cancel()
		<-h.Done()
	})
	return f
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	reply, err := f.client.Dispatch(ctx, &DispatchRequest{Caller: "bot", Line: "whoami"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(reply.Responses) != 1 || !reply.Responses[0].Success || reply.Responses[0].Text != "bot via programmatic" {
		t.Errorf("responses = %+v", reply.Responses)
	}

	reply, err = f.client.Dispatch(ctx, &DispatchRequest{Caller: "bot", Line: "whoamy"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	resp := reply.Responses[0]
	if resp.Success || resp.Code != "COMMAND_NOT_FOUND" || len(resp.Suggestions) == 0 || resp.Suggestions[0] != "whoami" {
		t.Errorf("typo = %+v", resp)
	}

	select {
	case name := <-f.disconnected:
		if name != "bot" {
			t.Errorf("disconnected %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("short-lived caller not released")
	}
}

func TestDispatch_WaitsForRunners(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	reply, err := f.client.Dispatch(ctx, &DispatchRequest{Caller: "bot", Line: "launch"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(reply.Responses) != 0 {
		t.Errorf("without a wait the countdown is still running: %+v", reply.Responses)
	}

	reply, err = f.client.Dispatch(ctx, &DispatchRequest{Caller: "bot", Line: "launch", WaitMillis: 2000})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(reply.Responses) != 1 || reply.Responses[0].Text != "liftoff" {
		t.Errorf("responses = %+v", reply.Responses)
	}
}

func TestDispatch_PromptEndsWithCall(t *testing.T) {
	f := newFixture(t)
	reply, err := f.client.Dispatch(testContext(t), &DispatchRequest{Caller: "bot", Line: "confirm", WaitMillis: 50})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(reply.Responses) != 1 || !reply.Responses[0].InputRequested || reply.Responses[0].Prompt != "sure?" {
		t.Errorf("responses = %+v", reply.Responses)
	}
}

func TestDispatch_RejectsBadCaller(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"", "  ", "two words"} {
		_, err := f.client.Dispatch(testContext(t), &DispatchRequest{Caller: name, Line: "whoami"})
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("caller %q: code = %v, want InvalidArgument", name, status.Code(err))
		}
	}
}

func TestCommands(t *testing.T) {
	f := newFixture(t)
	reply, err := f.client.Commands(testContext(t))
	if err != nil {
		t.Fatalf("Commands() error = %v", err)
	}
	names := map[string]*CommandInfo{}
	for _, c := range reply.Commands {
		names[c.Name] = c
	}
	if _, ok := names["secret"]; ok {
		t.Error("hidden command listed")
	}
	shout, ok := names["shout"]
	if !ok {
		t.Fatalf("shout missing from %v", reply.Commands)
	}
	if len(shout.Usage) != 1 || !strings.Contains(shout.Usage[0], "string...") {
		t.Errorf("shout usage = %v", shout.Usage)
	}
}

func openSession(t *testing.T, f *fixture, name string) grpc.BidiStreamingClient[SessionRequest, SessionEvent] {
	t.Helper()
	stream, err := f.client.Session(testContext(t))
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if err := stream.Send(&SessionRequest{Caller: name}); err != nil {
		t.Fatal(err)
	}
	ev := recv(t, stream)
	if ev.Welcome == nil || ev.Welcome.Name != name || ev.Welcome.Session == "" {
		t.Fatalf("first event = %+v", ev)
	}
	return stream
}

func recv(t *testing.T, stream grpc.BidiStreamingClient[SessionRequest, SessionEvent]) *SessionEvent {
	t.Helper()
	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	return ev
}

func say(t *testing.T, stream grpc.BidiStreamingClient[SessionRequest, SessionEvent], line string) *Response {
	t.Helper()
	if err := stream.Send(&SessionRequest{Line: line}); err != nil {
		t.Fatal(err)
	}
	ev := recv(t, stream)
	if ev.Response == nil {
		t.Fatalf("event = %+v, want a response", ev)
	}
	return ev.Response
}

func TestSession_Conversation(t *testing.T) {
	f := newFixture(t)
	stream := openSession(t, f, "alice")

	if resp := say(t, stream, "whoami"); resp.Text != "alice via programmatic" {
		t.Errorf("whoami = %+v", resp)
	}
	if resp := say(t, stream, "confirm"); !resp.InputRequested || resp.Prompt != "sure?" {
		t.Fatalf("confirm = %+v", resp)
	}
	if resp := say(t, stream, "yes"); resp.Text != "answer yes" {
		t.Errorf("answer = %+v", resp)
	}
	if n := f.service.Sessions(); n != 1 {
		t.Errorf("Sessions() = %d, want 1", n)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-f.disconnected:
		if name != "alice" {
			t.Errorf("disconnected %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect hook not called")
	}
}

func TestSession_FlushesAfterHalfClose(t *testing.T) {
	f := newFixture(t)
	stream := openSession(t, f, "alice")

	if err := stream.Send(&SessionRequest{Line: "whoami"}); err != nil {
		t.Fatal(err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}
	if ev := recv(t, stream); ev.Response == nil || ev.Response.Text != "alice via programmatic" {
		t.Errorf("event = %+v", ev)
	}
}

func TestSession_Announce(t *testing.T) {
	f := newFixture(t)
	alice := openSession(t, f, "alice")
	bob := openSession(t, f, "bob")

	if err := alice.Send(&SessionRequest{Line: `shout "hello all"`}); err != nil {
		t.Fatal(err)
	}
	for _, stream := range []grpc.BidiStreamingClient[SessionRequest, SessionEvent]{alice, bob} {
		ev := recv(t, stream)
		if ev.Announce == nil || ev.Announce.From != "alice" || ev.Announce.Message != "hello all" {
			t.Errorf("announcement = %+v", ev)
		}
	}
}

func TestSession_RejectsBadCaller(t *testing.T) {
	f := newFixture(t)
	stream, err := f.client.Session(testContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Send(&SessionRequest{Caller: "two words"}); err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Recv(); status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestHostStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{host.ErrStopped, codes.Unavailable},
		{host.ErrBusy, codes.ResourceExhausted},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{net.ErrClosed, codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(hostStatus(tt.err)); got != tt.want {
			t.Errorf("hostStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDispatch_StoppedHost(t *testing.T) {
	e := engine.New(engine.Options{Logger: cklog.Discard()})
	h := host.New(host.Options{Engine: e, Logger: cklog.Discard()})
	s := New(Options{Host: h, Logger: logging.Wrap("test", cklog.Discard())})

	_, err := s.Dispatch(context.Background(), &DispatchRequest{Caller: "bot", Line: "help"})
	if status.Code(err) != codes.Unavailable {
		t.Errorf("code = %v, want Unavailable", status.Code(err))
	}
}
