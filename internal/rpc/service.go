// Package rpc exposes an engine host over gRPC for programmatic callers.
// Messages are plain structs carried by the JSON codec of pkg/core/grpc.
package rpc

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/host"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "cmdkit.v1.Commands"

	dispatchMethod = "/" + ServiceName + "/Dispatch"
	commandsMethod = "/" + ServiceName + "/Commands"
	sessionMethod  = "/" + ServiceName + "/Session"

	eventBuffer  = 64
	pollInterval = 10 * time.Millisecond
)

// CommandsServer is the server API of the Commands service
type CommandsServer interface {
	Dispatch(context.Context, *DispatchRequest) (*DispatchReply, error)
	Commands(context.Context, *CommandsRequest) (*CommandsReply, error)
	Session(grpc.BidiStreamingServer[SessionRequest, SessionEvent]) error
}

// ServiceDesc describes the Commands service to grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommandsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dispatch", Handler: dispatchHandler},
		{MethodName: "Commands", Handler: commandsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Session", Handler: sessionHandler, ServerStreams: true, ClientStreams: true},
	},
	Metadata: "cmdkit/v1/commands",
}

func dispatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DispatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandsServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: dispatchMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CommandsServer).Dispatch(ctx, req.(*DispatchRequest))
	})
}

func commandsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CommandsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandsServer).Commands(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: commandsMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CommandsServer).Commands(ctx, req.(*CommandsRequest))
	})
}

func sessionHandler(srv any, stream grpc.ServerStream) error {
	return srv.(CommandsServer).Session(&grpc.GenericServerStream[SessionRequest, SessionEvent]{ServerStream: stream})
}

// Options configures a Service
type Options struct {
	Host   *host.Host
	Logger *logging.Logger
	// MaxWait caps DispatchRequest.WaitMillis
	MaxWait time.Duration
	// OnConnect and OnDisconnect run on the logic thread
	OnConnect    func(c *Caller)
	OnDisconnect func(c *Caller)
}

// Service implements CommandsServer on top of a host
type Service struct {
	host    *host.Host
	logger  *logging.Logger
	maxWait time.Duration

	onConnect    func(c *Caller)
	onDisconnect func(c *Caller)

	mu       sync.RWMutex
	sessions map[string]*Caller
}

// New creates a service
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.New("cmdkit-rpc")
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 30 * time.Second
	}
	return &Service{
		host:         opts.Host,
		logger:       opts.Logger,
		maxWait:      opts.MaxWait,
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		sessions:     make(map[string]*Caller),
	}
}

// Register adds the service to a gRPC server
func (s *Service) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&ServiceDesc, s)
}

// Caller is one gRPC caller; it implements command.Caller
type Caller struct {
	id     string
	name   string
	events chan *SessionEvent
	logger *logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func (c *Caller) ID() string               { return c.id }
func (c *Caller) Name() string             { return c.name }
func (c *Caller) Channel() command.Channel { return command.ChannelProgrammatic }

// Deliver queues a response. It never blocks the logic thread; events
// beyond the buffer are dropped.
func (c *Caller) Deliver(resp *command.Response, text string) {
	c.enqueue(&SessionEvent{Response: newResponse(resp, text)})
}

func (c *Caller) enqueue(ev *SessionEvent) {
	select {
	case <-c.closed:
	case c.events <- ev:
	default:
		c.logger.Warn("Dropping event for slow caller", "caller", c.name, "session", c.id)
	}
}

func (c *Caller) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// responses drains the queued responses
func (c *Caller) responses() []*Response {
	var out []*Response
	for {
		select {
		case ev := <-c.events:
			if ev.Response != nil {
				out = append(out, ev.Response)
			}
		default:
			return out
		}
	}
}

// Dispatch runs one line for a caller that exists for this call only
func (s *Service) Dispatch(ctx context.Context, req *DispatchRequest) (*DispatchReply, error) {
	c, err := s.open(ctx, req.Caller)
	if err != nil {
		return nil, err
	}
	defer s.release(c)

	err = s.host.Do(ctx, func(e *engine.Engine) {
		e.Dispatch(c, command.ChannelProgrammatic, req.Line)
	})
	if err != nil {
		return nil, hostStatus(err)
	}
	if err := s.settle(ctx, c, s.wait(req.WaitMillis)); err != nil {
		return nil, err
	}
	return &DispatchReply{Responses: c.responses()}, nil
}

// wait converts and caps a requested wait
func (s *Service) wait(millis int64) time.Duration {
	if millis <= 0 {
		return 0
	}
	return min(time.Duration(millis)*time.Millisecond, s.maxWait)
}

// settle polls until no runner of the caller is stepping or awaiting, or
// wait expires
func (s *Service) settle(ctx context.Context, c *Caller, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var busy bool
		if err := s.host.Do(ctx, func(e *engine.Engine) { busy = e.Runners().Busy(c) }); err != nil {
			return hostStatus(err)
		}
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
		}
	}
}

// Commands lists the visible commands enabled for programmatic callers
func (s *Service) Commands(ctx context.Context, _ *CommandsRequest) (*CommandsReply, error) {
	reply := &CommandsReply{}
	err := s.host.Do(ctx, func(e *engine.Engine) {
		for _, d := range e.Commands(command.ChannelProgrammatic) {
			reply.Commands = append(reply.Commands, &CommandInfo{
				Name:        d.Name,
				Description: d.Description,
				Aliases:     d.Aliases,
				Permission:  d.Permission,
				Usage:       d.Usage(),
			})
		}
	})
	if err != nil {
		return nil, hostStatus(err)
	}
	return reply, nil
}

// Session keeps a caller connected for as long as the stream is open
func (s *Service) Session(stream grpc.BidiStreamingServer[SessionRequest, SessionEvent]) error {
	ctx := stream.Context()
	first, err := stream.Recv()
	if err != nil {
		return err
	}
	c, err := s.open(ctx, first.Caller)
	if err != nil {
		return err
	}
	defer s.release(c)

	s.mu.Lock()
	s.sessions[c.id] = c
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, c.id)
		s.mu.Unlock()
	}()
	s.logger.Info("RPC session opened", "session", c.id, "name", c.name)

	c.enqueue(&SessionEvent{Welcome: &Welcome{Session: c.id, Name: c.name}})
	if first.Line != "" {
		s.submit(c, first.Line)
	}

	sent := make(chan error, 1)
	go func() { sent <- s.sendLoop(stream, c) }()

	recvErr := s.recvLoop(stream, c)
	c.close()
	sendErr := <-sent
	s.logger.Info("RPC session closed", "session", c.id)

	if recvErr != nil {
		return recvErr
	}
	return sendErr
}

func (s *Service) recvLoop(stream grpc.BidiStreamingServer[SessionRequest, SessionEvent], c *Caller) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			// lines already submitted are dispatched before the stream ends
			_ = s.host.Do(stream.Context(), func(*engine.Engine) {})
			return nil
		}
		if err != nil {
			return err
		}
		s.submit(c, req.Line)
	}
}

func (s *Service) submit(c *Caller, line string) {
	if err := s.host.Submit(c, command.ChannelProgrammatic, line); err != nil {
		c.enqueue(&SessionEvent{Error: &Error{Code: "unavailable", Message: err.Error()}})
	}
}

// sendLoop forwards events until the caller closes, then flushes
func (s *Service) sendLoop(stream grpc.BidiStreamingServer[SessionRequest, SessionEvent], c *Caller) error {
	for {
		select {
		case ev := <-c.events:
			if err := stream.Send(ev); err != nil {
				return err
			}
		case <-c.closed:
			for {
				select {
				case ev := <-c.events:
					if err := stream.Send(ev); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

// Announce sends a broadcast to every open session
func (s *Service) Announce(from, message string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.sessions {
		c.enqueue(&SessionEvent{Announce: &Announce{From: from, Message: message}})
	}
}

// Sessions returns the number of open session streams
func (s *Service) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) open(ctx context.Context, name string) (*Caller, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsFunc(name, unicode.IsSpace) {
		return nil, status.Error(codes.InvalidArgument, "a caller name without spaces is required")
	}
	c := &Caller{
		id:     uuid.NewString(),
		name:   name,
		events: make(chan *SessionEvent, eventBuffer),
		logger: s.logger,
		closed: make(chan struct{}),
	}
	if s.onConnect != nil {
		if err := s.host.Do(ctx, func(*engine.Engine) { s.onConnect(c) }); err != nil {
			return nil, hostStatus(err)
		}
	}
	return c, nil
}

// release removes the caller's runners and world presence
func (s *Service) release(c *Caller) {
	c.close()
	var cleanup func()
	if s.onDisconnect != nil {
		cleanup = func() { s.onDisconnect(c) }
	}
	if err := s.host.Disconnect(c, cleanup); err != nil {
		s.logger.Warn("Disconnect not processed", "session", c.id, "error", err)
	}
}

func hostStatus(err error) error {
	switch {
	case errors.Is(err, host.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, host.ErrBusy):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
