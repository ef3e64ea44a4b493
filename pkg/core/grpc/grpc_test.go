package grpc

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/msto63/cmdkit/pkg/core/logging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type echoMsg struct {
	Text      string `json:"text"`
	RequestID string `json:"request_id,omitempty"`
}

type echoServer interface {
	Echo(context.Context, *echoMsg) (*echoMsg, error)
}

type echoService struct{}

func (echoService) Echo(ctx context.Context, in *echoMsg) (*echoMsg, error) {
	if in.Text == "panic" {
		panic("boom")
	}
	return &echoMsg{Text: strings.ToUpper(in.Text), RequestID: GetRequestID(ctx)}, nil
}

func echoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(echoMsg)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(echoServer).Echo(ctx, req.(*echoMsg))
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/cmdkit.test.Echo/Echo"}, handler)
}

var echoDesc = grpc.ServiceDesc{
	ServiceName: "cmdkit.test.Echo",
	HandlerType: (*echoServer)(nil),
	Methods:     []grpc.MethodDesc{{MethodName: "Echo", Handler: echoHandler}},
}

func startEcho(t *testing.T) (*grpc.ClientConn, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	logger := logging.Wrap("rpc", logging.NewLogger(logging.LoggerConfig{
		ServiceName: "rpc", Level: "debug", Format: "logfmt", Output: out,
	}))

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(DefaultServerConfig(), logger)
	srv.GRPCServer().RegisterService(&echoDesc, echoService{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cfg := DefaultClientConfig("passthrough:///bufnet")
	cfg.Logger = logger
	conn, err := Dial(cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, out
}

func TestServer_JSONRoundTrip(t *testing.T) {
	conn, logs := startEcho(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var header metadata.MD
	out := new(echoMsg)
	ctx = WithRequestID(ctx, "req-1")
	if err := conn.Invoke(ctx, "/cmdkit.test.Echo/Echo", &echoMsg{Text: "hello"}, out, grpc.Header(&header)); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out.Text != "HELLO" {
		t.Errorf("Text = %q, want HELLO", out.Text)
	}
	if out.RequestID != "req-1" {
		t.Errorf("server saw request id %q, want req-1", out.RequestID)
	}
	if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-1" {
		t.Errorf("header %s = %v", RequestIDHeader, got)
	}
	if !strings.Contains(logs.String(), "/cmdkit.test.Echo/Echo") {
		t.Errorf("call not logged: %q", logs.String())
	}
}

func TestServer_GeneratesRequestID(t *testing.T) {
	conn, _ := startEcho(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// no id in the context: the client interceptor mints one
	out := new(echoMsg)
	if err := conn.Invoke(ctx, "/cmdkit.test.Echo/Echo", &echoMsg{Text: "x"}, out); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out.RequestID == "" {
		t.Error("request id not set")
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	conn, logs := startEcho(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Invoke(ctx, "/cmdkit.test.Echo/Echo", &echoMsg{Text: "panic"}, new(echoMsg))
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want Internal", status.Code(err))
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Errorf("panic not logged: %q", logs.String())
	}

	// the server keeps serving
	if err := conn.Invoke(ctx, "/cmdkit.test.Echo/Echo", &echoMsg{Text: "ok"}, new(echoMsg)); err != nil {
		t.Errorf("Invoke() after panic error = %v", err)
	}
}

func TestJSONCodec(t *testing.T) {
	var c jsonCodec
	if c.Name() != "json" {
		t.Errorf("Name() = %q", c.Name())
	}
	data, err := c.Marshal(&echoMsg{Text: "a"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"text":"a"}` {
		t.Errorf("Marshal() = %s", data)
	}
	if err := c.Unmarshal([]byte("{"), new(echoMsg)); err == nil {
		t.Error("Unmarshal() accepted truncated input")
	}
}

func TestServerConfigFrom(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Port != 9190 || cfg.MaxRecvMsgSize != 4*1024*1024 || cfg.KeepaliveInterval != 30*time.Second {
		t.Errorf("DefaultServerConfig() = %+v", cfg)
	}
	if got := NewServer(cfg, nil).Address(); got != "127.0.0.1:9190" {
		t.Errorf("Address() before start = %q", got)
	}
}
