// Package host runs the logic thread of a headless engine host. Every
// dispatch and tick happens on one goroutine; transports submit work to it.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// DefaultTickInterval is used when Options.TickInterval is zero
const DefaultTickInterval = 50 * time.Millisecond

// ErrStopped is returned for work submitted to a host that is not running
var ErrStopped = errors.New("host is not running")

// ErrBusy is returned when the inbox is full
var ErrBusy = errors.New("host inbox is full")

// Options configures a Host
type Options struct {
	Engine       *engine.Engine
	TickInterval time.Duration
	QueueSize    int
	Logger       *cklog.Logger
}

// Host owns the logic thread of an engine
type Host struct {
	engine   *engine.Engine
	interval time.Duration
	inbox    chan func()
	logger   *cklog.Logger

	mu      sync.RWMutex
	running bool
	started bool
	done    chan struct{}
	ticks   uint64
}

// New creates a host; Run starts its loop
func New(opts Options) *Host {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = cklog.GetDefault()
	}
	return &Host{
		engine:   opts.Engine,
		interval: opts.TickInterval,
		inbox:    make(chan func(), opts.QueueSize),
		logger:   opts.Logger.WithField("component", "host"),
		done:     make(chan struct{}),
	}
}

// Engine returns the hosted engine. Use it only from the logic thread.
func (h *Host) Engine() *engine.Engine { return h.engine }

// Run drives the logic thread until ctx is cancelled
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return errors.New("host was already started")
	}
	h.started = true
	h.running = true
	h.mu.Unlock()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.stop()

	h.logger.Info("Host started", cklog.Fields{"tickInterval": h.interval.String()})
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.drain()
			h.logger.Info("Host stopped", cklog.Fields{"ticks": h.ticks})
			return nil
		case fn := <-h.inbox:
			h.run(fn)
		case now := <-ticker.C:
			h.Step(now.Sub(last))
			last = now
		}
	}
}

// Step runs queued work and advances the engine by delta. Run calls it
// once per tick; hosts without a loop call it directly.
func (h *Host) Step(delta time.Duration) {
	h.drain()
	h.ticks++
	h.engine.Tick(delta)
}

// Submit queues a line from caller without waiting for its response
func (h *Host) Submit(caller command.Caller, channel command.Channel, line string) error {
	return h.post(func() { h.engine.Dispatch(caller, channel, line) })
}

// Disconnect queues the removal of every runner of caller. cleanup, if
// not nil, runs on the logic thread afterwards.
func (h *Host) Disconnect(caller command.Caller, cleanup func()) error {
	return h.post(func() {
		h.engine.Unregister(caller)
		if cleanup != nil {
			cleanup()
		}
	})
}

// Do runs fn on the logic thread and waits for it
func (h *Host) Do(ctx context.Context, fn func(e *engine.Engine)) error {
	done := make(chan struct{})
	if err := h.post(func() {
		defer close(done)
		fn(h.engine)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrStopped
	}
}

// Done is closed when Run returns
func (h *Host) Done() <-chan struct{} { return h.done }

func (h *Host) post(fn func()) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return ErrStopped
	}
	select {
	case h.inbox <- fn:
		return nil
	default:
		return ErrBusy
	}
}

func (h *Host) drain() {
	for {
		select {
		case fn := <-h.inbox:
			h.run(fn)
		default:
			return
		}
	}
}

func (h *Host) run(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("Host task panicked", cklog.Fields{"panic": p})
		}
	}()
	fn()
}

func (h *Host) stop() {
	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
	close(h.done)
}
