package audit

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// RecorderConfig configures a Recorder
type RecorderConfig struct {
	BatchSize   int
	FlushPeriod time.Duration
	QueueSize   int
	Logger      *cklog.Logger
}

// DefaultRecorderConfig returns default configuration
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BatchSize:   100,
		FlushPeriod: 2 * time.Second,
		QueueSize:   1024,
	}
}

// Recorder turns delivered responses into audit records and writes them
// in batches off the logic thread. It implements engine.Observer.
type Recorder struct {
	store  Store
	cfg    RecorderConfig
	logger *cklog.Logger

	queue   chan *Record
	flushCh chan chan struct{}
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	dropped int
}

// NewRecorder starts a recorder writing to store
func NewRecorder(store Store, cfg RecorderConfig) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushPeriod <= 0 {
		cfg.FlushPeriod = def.FlushPeriod
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = cklog.GetDefault()
	}

	r := &Recorder{
		store:   store,
		cfg:     cfg,
		logger:  cfg.Logger.WithField("component", "audit-recorder"),
		queue:   make(chan *Record, cfg.QueueSize),
		flushCh: make(chan chan struct{}),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Observe records one delivered response. It never blocks; records are
// dropped when the queue is full.
func (r *Recorder) Observe(ctx *command.Context, resp *command.Response) {
	rec := FromResponse(ctx, resp)
	select {
	case r.queue <- rec:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns the number of records lost to a full queue
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Flush blocks until every queued record is written
func (r *Recorder) Flush() {
	ack := make(chan struct{})
	select {
	case r.flushCh <- ack:
		<-ack
	case <-r.done:
	}
}

// Close flushes pending records and stops the recorder. The store stays
// open.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		ack := make(chan struct{})
		r.flushCh <- ack
		<-ack
		close(r.done)
	})
	return nil
}

func (r *Recorder) loop() {
	ticker := time.NewTicker(r.cfg.FlushPeriod)
	defer ticker.Stop()

	batch := make([]*Record, 0, r.cfg.BatchSize)
	write := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		accepted, rejected, err := r.store.RecordBatch(ctx, batch)
		cancel()
		if err != nil || rejected > 0 {
			r.logger.Warn("Audit batch not fully written", cklog.Fields{
				"accepted": accepted, "rejected": rejected, "error": errString(err),
			})
		}
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case rec := <-r.queue:
				batch = append(batch, rec)
				if len(batch) >= r.cfg.BatchSize {
					write()
				}
			default:
				return
			}
		}
	}

	for {
		select {
		case rec := <-r.queue:
			batch = append(batch, rec)
			if len(batch) >= r.cfg.BatchSize {
				write()
			}
		case <-ticker.C:
			write()
		case ack := <-r.flushCh:
			drain()
			write()
			close(ack)
		case <-r.done:
			return
		}
	}
}

// FromResponse builds the record of one delivered response
func FromResponse(ctx *command.Context, resp *command.Response) *Record {
	rec := &Record{
		Timestamp:  time.Now(),
		Invocation: ctx.ID,
		Channel:    ctx.Channel.String(),
		Line:       ctx.Line,
		Success:    resp.Success,
		Code:       string(resp.Code),
		Duration:   time.Since(ctx.Started),
	}
	for root := ctx; root != nil; root = root.Previous {
		rec.Invocation = root.ID
	}
	if ctx.Previous != nil {
		rec.Line = ctx.Input
		rec.Metadata = map[string]string{"turn": strconv.Itoa(ctx.Turn())}
	}
	if ctx.Caller != nil {
		rec.Caller = ctx.Caller.Name()
	}
	if ctx.Descriptor != nil {
		rec.Command = ctx.Descriptor.Name
		rec.Discipline = ctx.Discipline.String()
	}
	if len(resp.Content) > 0 {
		rec.Message = strings.Join(resp.Content, "\n")
	}
	if len(resp.Diagnostics) > 0 {
		rec.Diagnostics = append([]string(nil), resp.Diagnostics...)
	}
	return rec
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
