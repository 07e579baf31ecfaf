package hook

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/metrics"
	"github.com/ayusman/aronvision/internal/pipeline"
)

const defaultQueueSize = 32

type job struct {
	binding    Binding
	transition pipeline.Transition
}

// Runner fires hooks for the label transitions of a running pipeline.
// Transitions are found on the caller's goroutine and hooks run one at a
// time on Run's goroutine, so a slow hook never holds up delivery.
type Runner struct {
	manager  *Manager
	executor *Executor
	log      logger.Logger

	mu      sync.Mutex
	tracker pipeline.Tracker
	closed  bool
	queue   chan job

	runs    atomic.Int64
	dropped atomic.Int64
}

// NewRunner creates a Runner over the manager's hooks.
func NewRunner(m *Manager, e *Executor, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		manager:  m,
		executor: e,
		log:      log,
		queue:    make(chan job, defaultQueueSize),
	}
}

// Observe has the pipeline.ResultFunc signature. It never blocks: runs that
// do not fit the queue are dropped and counted.
func (r *Runner) Observe(res pipeline.FrameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	for _, tr := range r.tracker.Observe(res) {
		for _, b := range r.manager.Match(tr) {
			select {
			case r.queue <- job{binding: b, transition: tr}:
			default:
				r.dropped.Add(1)
				metrics.RecordHookDrop()
				r.log.Warn(context.Background(), "hook queue full, dropping run",
					logger.String("hook", b.Hook.Manifest.Name), logger.String("pose", tr.Pose))
			}
		}
	}
}

// Close stops accepting results. Run finishes the queued runs and returns.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.queue)
}

// Run executes queued hooks until Close. When ctx is done the queue is
// abandoned and Run returns ctx's error.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return ctx.Err()
		case j, ok := <-r.queue:
			if !ok {
				return nil
			}
			r.execute(ctx, j)
		}
	}
}

func (r *Runner) execute(ctx context.Context, j job) {
	name := j.binding.Hook.Manifest.Name
	fields := []logger.Field{
		logger.String("hook", name),
		logger.String("action", j.binding.Trigger.Action),
		logger.String("pose", j.transition.Pose),
		logger.Uint64("seq", j.transition.Seq),
	}
	r.runs.Add(1)

	resp, err := r.executor.Execute(ctx, j.binding.Hook, j.binding.Request(j.transition))
	switch {
	case err != nil:
		metrics.RecordHookRun(name, "error")
		r.log.Error(ctx, "hook failed", append(fields, logger.Error(err))...)
	case !resp.Success:
		metrics.RecordHookRun(name, "error")
		r.log.Warn(ctx, "hook reported failure", append(fields, logger.String("reason", resp.Error))...)
	default:
		metrics.RecordHookRun(name, "ok")
		r.log.Debug(ctx, "hook ran", fields...)
	}
}

// Runs returns how many hook runs were started.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Dropped returns how many hook runs were dropped.
func (r *Runner) Dropped() int64 { return r.dropped.Load() }
