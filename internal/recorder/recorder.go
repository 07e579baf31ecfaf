// Package recorder persists pose label transitions of a running pipeline.
//
// Frame results arrive on the delivery lane through Observe, which never
// blocks: results that do not fit in the queue are dropped and counted.
// A single writer goroutine (Run) reduces them to transitions and stores
// them in batches under one session.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/metrics"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/store"
)

// ErrClosed is returned by Run when the recorder was already used.
var ErrClosed = errors.New("recorder closed")

// Recorder records one session.
type Recorder struct {
	store   *store.Store
	session *store.Session

	capacity      int
	batchSize     int
	flushInterval time.Duration
	log           logger.Logger

	queue   chan pipeline.FrameResult
	mu      sync.RWMutex
	closed  bool
	running atomic.Bool
	done    chan struct{}

	frames  atomic.Int64
	dropped atomic.Int64
	written atomic.Int64

	tracker pipeline.Tracker
	batch   []store.PoseEvent
}

// New starts a session for source and returns its recorder. Run must be
// called to write anything.
func New(st *store.Store, source string, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		store:         st,
		capacity:      defaultCapacity,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		log:           logger.Nop(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = make(chan pipeline.FrameResult, r.capacity)

	sess, err := st.Sessions().Create(source)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	r.session = sess

	return r, nil
}

// Session returns the session being recorded.
func (r *Recorder) Session() *store.Session {
	return r.session
}

// Observe queues a frame result. It has the pipeline.ResultFunc signature
// and is safe to call after Close.
func (r *Recorder) Observe(res pipeline.FrameResult) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}
	r.frames.Add(1)

	select {
	case r.queue <- res:
	default:
		r.dropped.Add(1)
		metrics.RecordRecorderDrop()
	}
}

// Frames returns how many results were observed, dropped ones included.
func (r *Recorder) Frames() int64 { return r.frames.Load() }

// Dropped returns how many results were discarded because the queue was full.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Written returns how many events have been stored.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Close stops accepting results. Run drains what is already queued and
// then ends the session.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.queue)
}

// Run writes queued results until the recorder is closed or ctx is done,
// then flushes and ends the session.
func (r *Recorder) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrClosed
	}
	defer close(r.done)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	for {
		select {
		case <-ctxDone:
			r.Close()
			ctxDone = nil
		case <-ticker.C:
			r.flush(ctx)
		case res, ok := <-r.queue:
			if !ok {
				return r.finish(ctx)
			}
			r.batch = append(r.batch, r.events(res)...)
			if len(r.batch) >= r.batchSize {
				r.flush(ctx)
			}
		}
	}
}

// Shutdown closes the recorder and waits for Run to finish.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.Close()
	if !r.running.Load() {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.log.Warn(ctx, "recorder shutdown timed out")
		return fmt.Errorf("recorder shutdown timed out: %w", ctx.Err())
	}
}

func (r *Recorder) flush(ctx context.Context) {
	if len(r.batch) == 0 {
		return
	}

	if err := r.store.Events().Append(r.batch); err != nil {
		r.log.Error(ctx, "failed to write pose events",
			logger.String("session", r.session.ID),
			logger.Int("events", len(r.batch)),
			logger.Error(err),
		)
	} else {
		r.written.Add(int64(len(r.batch)))
		for range r.batch {
			metrics.RecordRecorderWrite()
		}
	}
	r.batch = r.batch[:0]
}

func (r *Recorder) finish(ctx context.Context) error {
	r.flush(ctx)

	frames := r.frames.Load()
	if err := r.store.Sessions().End(r.session.ID, frames); err != nil {
		return fmt.Errorf("end session %s: %w", r.session.ID, err)
	}

	r.log.Info(ctx, "session recorded",
		logger.String("session", r.session.ID),
		logger.Any("frames", frames),
		logger.Any("events", r.written.Load()),
		logger.Any("dropped", r.dropped.Load()),
	)
	return nil
}

// events turns the label changes in res into rows of the current session.
func (r *Recorder) events(res pipeline.FrameResult) []store.PoseEvent {
	var events []store.PoseEvent
	for _, tr := range r.tracker.Observe(res) {
		events = append(events, store.PoseEvent{
			SessionID: r.session.ID,
			Seq:       tr.Seq,
			Kind:      store.EventKind(tr.Kind),
			Slot:      tr.Slot,
			Pose:      tr.Pose,
			At:        tr.Timestamp,
		})
	}
	return events
}
