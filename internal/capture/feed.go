package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/metrics"
)

// maxReadErrors is how many consecutive failed reads end a feed.
const maxReadErrors = 30

// ErrFeedStopped is returned by Next once the feed has been stopped.
var ErrFeedStopped = errors.New("feed stopped")

// FeedConfig controls how a Feed paces the camera.
type FeedConfig struct {
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration
	MotionThreshold float64
}

// DefaultFeedConfig returns the idle/active pacing used for live cameras.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		IdleFPS:         5,
		ActiveFPS:       15,
		IdleTimeout:     2 * time.Second,
		MotionThreshold: 1.0,
	}
}

// Feed reads a live camera on its own goroutine. Only the newest unconsumed
// frame is kept: when the reader falls behind, the stale frame is closed and
// replaced. Frames are paced by a motion Throttle.
type Feed struct {
	camera   Camera
	motion   *MotionDetector
	throttle *Throttle
	log      logger.Logger
	now      func() time.Time

	slot chan Frame
	stop chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	mu  sync.Mutex
	err error
}

// NewFeed creates a Feed over camera. Start opens the camera.
func NewFeed(camera Camera, cfg FeedConfig, log logger.Logger) *Feed {
	if log == nil {
		log = logger.Nop()
	}
	return &Feed{
		camera:   camera,
		motion:   NewMotionDetector(cfg.MotionThreshold),
		throttle: NewThrottle(cfg.IdleFPS, cfg.ActiveFPS, cfg.IdleTimeout),
		log:      log,
		now:      time.Now,
		slot:     make(chan Frame, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start opens the camera and begins capturing until ctx ends or Stop is called.
func (f *Feed) Start(ctx context.Context) error {
	var err error
	f.startOnce.Do(func() {
		if err = f.camera.Open(); err != nil {
			f.fail(err)
			close(f.done)
			return
		}
		f.camera.SetFPS(f.throttle.FPS())
		metrics.UpdateCaptureFPS(float64(f.throttle.FPS()))
		go f.run(ctx)
	})
	return err
}

// Stop ends capture, closes the camera and releases any pending frame.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		// A feed that never started has no run goroutine to close done.
		f.startOnce.Do(func() { close(f.done) })
		close(f.stop)
		<-f.done
		if err := f.camera.Close(); err != nil {
			f.log.Warn(context.Background(), "close camera", logger.Error(err))
		}
		f.motion.Close()
		f.drain()
	})
}

// Next blocks until a frame is available. After the feed ends it returns the
// error that ended it, ErrFeedStopped, or io.EOF when the source ran out.
func (f *Feed) Next(ctx context.Context) (Frame, error) {
	select {
	case fr := <-f.slot:
		return fr, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-f.done:
	}
	select {
	case fr := <-f.slot:
		return fr, nil
	default:
	}
	return Frame{}, f.Err()
}

// Done is closed when capture has ended.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Err reports why the feed ended.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return ErrFeedStopped
}

func (f *Feed) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(time.Second / time.Duration(f.throttle.FPS()))
	defer ticker.Stop()

	var seq uint64
	readErrors := 0

	for {
		select {
		case <-ctx.Done():
			f.fail(ctx.Err())
			return
		case <-f.stop:
			return
		case <-ticker.C:
		}

		mat, err := f.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrCameraNotOpen) {
				f.fail(err)
				return
			}
			readErrors++
			f.log.Warn(ctx, "read frame", logger.Error(err), logger.Int("consecutive", readErrors))
			if readErrors >= maxReadErrors {
				f.fail(err)
				return
			}
			continue
		}
		readErrors = 0

		moving, changed := f.motion.Detect(mat)
		if fps, ok := f.throttle.Observe(moving, f.now()); ok {
			f.camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			metrics.UpdateCaptureFPS(float64(fps))
			f.log.Debug(ctx, "capture rate changed", logger.Int("fps", fps), logger.Bool("active", f.throttle.Active()))
		}

		seq++
		f.offer(Frame{Seq: seq, Timestamp: f.now(), Image: mat, Motion: changed})
	}
}

// offer puts fr in the slot, replacing an unconsumed frame. run is the only
// sender, so after the drain the send cannot block.
func (f *Feed) offer(fr Frame) {
	select {
	case f.slot <- fr:
		return
	default:
	}
	select {
	case stale := <-f.slot:
		stale.Close()
		metrics.RecordFeedDrop()
	default:
	}
	f.slot <- fr
}

func (f *Feed) drain() {
	for {
		select {
		case fr := <-f.slot:
			fr.Close()
		default:
			return
		}
	}
}
