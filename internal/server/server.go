// Package server exposes an engine host over websockets. Every connection
// is one caller; its lines are dispatched on the host's logic thread.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/host"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Options configures a Server
type Options struct {
	Host        *host.Host
	Channel     command.Channel
	ReadTimeout time.Duration
	Logger      *logging.Logger
	// OnConnect and OnDisconnect run on the logic thread
	OnConnect    func(s *Session)
	OnDisconnect func(s *Session)
}

// Server is the websocket transport of a host
type Server struct {
	host     *host.Host
	channel  command.Channel
	timeout  time.Duration
	logger   *logging.Logger
	upgrader websocket.Upgrader

	onConnect    func(s *Session)
	onDisconnect func(s *Session)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a server
func New(opts Options) *Server {
	if opts.Channel == command.ChannelNone {
		opts.Channel = command.ChannelInteractive
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("cmdkit-server")
	}
	return &Server{
		host:    opts.Host,
		channel: opts.Channel,
		timeout: opts.ReadTimeout,
		logger:  opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // callers authenticate through permissions, not origin
			},
		},
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		sessions:     make(map[string]*Session),
	}
}

// Session is one websocket connection; it implements command.Caller
type Session struct {
	id      string
	name    string
	channel command.Channel
	conn    *websocket.Conn
	send    chan ServerMessage
	server  *Server

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Name() string             { return s.name }
func (s *Session) Channel() command.Channel { return s.channel }

// Deliver queues a response for the client. It never blocks the logic
// thread; a client that does not keep up loses messages.
func (s *Session) Deliver(resp *command.Response, text string) {
	s.enqueue(ServerMessage{Type: TypeResponse, Response: responsePayload(resp, text)})
}

func (s *Session) enqueue(msg ServerMessage) {
	select {
	case <-s.closed:
	case s.send <- msg:
	default:
		s.server.logger.Warn("Dropping message for slow client", "session", s.id, "type", msg.Type)
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// ServeHTTP upgrades the connection. The caller name comes from the name
// query parameter; mode=programmatic or mode=interactive picks the channel.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" || strings.ContainsFunc(name, func(r rune) bool { return r == ' ' || r == '\t' }) {
		http.Error(w, "a name without spaces is required", http.StatusBadRequest)
		return
	}
	channel := srv.channel
	if mode := r.URL.Query().Get("mode"); mode != "" {
		ch, err := command.ParseChannel(mode)
		if err == nil && ch != command.ChannelInteractive && ch != command.ChannelProgrammatic {
			err = fmt.Errorf("mode must be interactive or programmatic")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		channel = ch
	}

	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	s := &Session{
		id:      uuid.NewString(),
		name:    name,
		channel: channel,
		conn:    conn,
		send:    make(chan ServerMessage, sendBuffer),
		server:  srv,
		closed:  make(chan struct{}),
	}
	srv.handle(s)
}

func (srv *Server) handle(s *Session) {
	defer s.conn.Close()

	srv.mu.Lock()
	srv.sessions[s.id] = s
	srv.mu.Unlock()
	srv.logger.Info("WebSocket connection established", "session", s.id, "name", s.name, "remote", s.conn.RemoteAddr().String())

	if srv.onConnect != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := srv.host.Do(ctx, func(*engine.Engine) { srv.onConnect(s) })
		cancel()
		if err != nil {
			srv.logger.Warn("Connect hook failed", "session", s.id, "error", err)
		}
	}
	s.enqueue(ServerMessage{Type: TypeWelcome, Welcome: &WelcomePayload{Session: s.id, Name: s.name, Channel: s.channel.String()}})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		srv.writeLoop(s)
	}()

	srv.readLoop(s)

	s.close()
	<-writerDone
	srv.mu.Lock()
	delete(srv.sessions, s.id)
	srv.mu.Unlock()

	var cleanup func()
	if srv.onDisconnect != nil {
		cleanup = func() { srv.onDisconnect(s) }
	}
	if err := srv.host.Disconnect(s, cleanup); err != nil {
		srv.logger.Warn("Disconnect not processed", "session", s.id, "error", err)
	}
	srv.logger.Info("WebSocket connection closed", "session", s.id)
}

func (srv *Server) readLoop(s *Session) {
	s.conn.SetReadDeadline(time.Now().Add(srv.timeout))
	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				srv.logger.Error("WebSocket read error", "session", s.id, "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(srv.timeout))

		switch msg.Type {
		case TypePing:
			s.enqueue(ServerMessage{Type: TypePong})
		case TypeLine:
			if err := srv.host.Submit(s, s.channel, msg.Line); err != nil {
				s.enqueue(errorMessage("unavailable", err.Error()))
			}
		default:
			s.enqueue(errorMessage("unknown_type", "Unknown message type: "+msg.Type))
		}
	}
}

func (srv *Server) writeLoop(s *Session) {
	for {
		select {
		case <-s.closed:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				srv.logger.Error("WebSocket send error", "session", s.id, "error", err)
				s.close()
				s.conn.Close()
				return
			}
		}
	}
}

// Announce sends a broadcast to every connected session
func (srv *Server) Announce(from, message string) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, s := range srv.sessions {
		s.enqueue(ServerMessage{Type: TypeAnnounce, Announce: &AnnouncePayload{From: from, Message: message}})
	}
}

// Sessions returns the number of open connections
func (srv *Server) Sessions() int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.sessions)
}

func errorMessage(code, message string) ServerMessage {
	return ServerMessage{Type: TypeError, Error: &ErrorPayload{Code: code, Message: message}}
}
