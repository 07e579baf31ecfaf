// Package pipeline turns frames into hand and body poses and delivers them
// to consumers.
//
// Each frame goes through one detector call, a per-group confidence filter,
// the coordinate mapping into the viewport and the pose rules, then exactly
// one synchronous delivery on the lane. A failed detection skips that
// frame's callbacks; too many failures in a row halt the dispatcher.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ayusman/aronvision/internal/capture"
	"github.com/ayusman/aronvision/internal/detector"
	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
	"github.com/ayusman/aronvision/internal/lane"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/metrics"
	"github.com/ayusman/aronvision/internal/pose"
)

var (
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid pipeline config")
	// ErrStopped is returned by Process after Stop.
	ErrStopped = errors.New("pipeline stopped")
	// ErrHalted is returned once consecutive detection failures reach the
	// failure limit. It wraps the last DetectionError.
	ErrHalted = errors.New("pipeline halted")
)

// FrameSource yields frames one at a time. Next returns io.EOF when the
// source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (capture.Frame, error)
}

// Dispatcher runs the per-frame pipeline.
type Dispatcher struct {
	detector detector.Detector
	lane     *lane.Lane
	opts     options
	log      logger.Logger
	now      func() time.Time

	// mu serializes delivery against Stop.
	mu       sync.Mutex
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once

	failMu   sync.Mutex
	failures int
	haltErr  error
	halted   chan struct{}
}

// New validates the configuration and returns a Dispatcher that delivers
// on ln. Invalid settings return an error wrapping ErrInvalidConfig.
func New(det detector.Detector, ln *lane.Lane, opts ...Option) (*Dispatcher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if det == nil {
		return nil, fmt.Errorf("%w: nil detector", ErrInvalidConfig)
	}
	if ln == nil {
		return nil, fmt.Errorf("%w: nil lane", ErrInvalidConfig)
	}
	if o.handCap < 1 || o.handCap > MaxHandCap {
		return nil, fmt.Errorf("%w: hand cap must be in [1, %d], got %d", ErrInvalidConfig, MaxHandCap, o.handCap)
	}
	if err := o.thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.viewport == nil {
		return nil, fmt.Errorf("%w: nil viewport", ErrInvalidConfig)
	}
	if err := o.viewport.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.failureLimit < 1 {
		return nil, fmt.Errorf("%w: failure limit must be positive, got %d", ErrInvalidConfig, o.failureLimit)
	}

	return &Dispatcher{
		detector: det,
		lane:     ln,
		opts:     o,
		log:      o.log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		halted:   make(chan struct{}),
	}, nil
}

// Process runs one frame through detection, classification and delivery.
// The hand and body callbacks each fire exactly once per successful frame,
// on the lane, before Process returns. A detection failure returns a
// *detector.DetectionError and fires nothing. Process does not close the
// frame.
func (d *Dispatcher) Process(ctx context.Context, frame capture.Frame) (FrameResult, error) {
	if d.isStopped() {
		return FrameResult{}, ErrStopped
	}
	if err := d.HaltErr(); err != nil {
		return FrameResult{}, err
	}

	obs, err := d.detector.Detect(frame.Image)
	if err != nil {
		derr := &detector.DetectionError{Seq: frame.Seq, Err: err}
		metrics.RecordDetectionError()
		d.log.Error(ctx, "detection failed", logger.Uint64("seq", frame.Seq), logger.Error(err))
		d.recordFailure(ctx, derr)
		return FrameResult{}, derr
	}
	d.resetFailures()

	result := d.classify(frame, obs)

	delivered := false
	err = d.lane.Sync(ctx, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.stopped {
			return
		}
		delivered = true
		d.deliver(result)
	})
	if err != nil {
		if errors.Is(err, lane.ErrClosed) {
			return result, fmt.Errorf("deliver frame %d: %w", frame.Seq, ErrStopped)
		}
		return result, fmt.Errorf("deliver frame %d: %w", frame.Seq, err)
	}
	if !delivered {
		return result, ErrStopped
	}

	metrics.RecordFrameProcessed()
	metrics.RecordFrameLatency(float64(result.Latency) / float64(time.Millisecond))
	for _, h := range result.Hands {
		metrics.RecordHandPose(string(h.Pose))
	}
	metrics.RecordBodyPose(string(result.Body.Pose))

	return result, nil
}

func (d *Dispatcher) classify(frame capture.Frame, obs detector.Observation) FrameResult {
	hands := obs.Hands
	if len(hands) > d.opts.handCap {
		hands = hands[:d.opts.handCap]
	}

	result := FrameResult{
		Seq:       frame.Seq,
		Timestamp: frame.Timestamp,
		Hands:     make([]HandResult, 0, len(hands)),
		Body:      BodyResult{Pose: pose.BodyUnsure, Points: []geometry.Point{}},
	}

	th, vp := d.opts.thresholds, d.opts.viewport
	for _, h := range hands {
		filtered := landmark.Filter(h, landmark.GroupHand, th.Hand)
		result.Hands = append(result.Hands, HandResult{
			Pose:   pose.ClassifyHand(filtered),
			Points: fingertips(filtered, vp),
		})
	}

	if obs.Body != nil {
		arms := landmark.Filter(obs.Body, landmark.GroupArms, th.Arms)
		full := landmark.Filter(obs.Body, landmark.GroupBody, th.Body)
		result.Body = BodyResult{
			Pose:   pose.ClassifyBody(arms, full),
			Points: geometry.MapAll(full.Points(), vp),
		}
	}

	if !frame.Timestamp.IsZero() {
		result.Latency = d.now().Sub(frame.Timestamp)
	}
	return result
}

// fingertips maps the present fingertips, thumb first.
func fingertips(s landmark.JointSet, vp geometry.Viewport) []geometry.Point {
	points := make([]geometry.Point, 0, len(landmark.Fingertips))
	for _, n := range landmark.Fingertips {
		if p, ok := s.Point(n); ok {
			points = append(points, geometry.Map(p, vp))
		}
	}
	return points
}

// deliver runs on the lane with d.mu held.
func (d *Dispatcher) deliver(r FrameResult) {
	if d.opts.onHand != nil {
		d.opts.onHand(r.HandPoints(), r.HandPoses())
	}
	if d.opts.onBody != nil {
		d.opts.onBody(r.Body.Points, r.Body.Pose)
	}
	for _, fn := range d.opts.onResult {
		fn(r)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, derr *detector.DetectionError) {
	d.failMu.Lock()
	defer d.failMu.Unlock()

	d.failures++
	if d.failures < d.opts.failureLimit || d.haltErr != nil {
		return
	}
	d.haltErr = fmt.Errorf("%w after %d consecutive detection failures: %w", ErrHalted, d.failures, derr)
	close(d.halted)
	metrics.RecordHalt()
	d.log.Error(ctx, "pipeline halted", logger.Int("failures", d.failures), logger.Error(derr))
}

func (d *Dispatcher) resetFailures() {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	d.failures = 0
}

// Failures returns the current run of consecutive detection failures.
func (d *Dispatcher) Failures() int {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	return d.failures
}

// Halted is closed when the dispatcher halts.
func (d *Dispatcher) Halted() <-chan struct{} {
	return d.halted
}

// HaltErr returns the halt error, or nil while running.
func (d *Dispatcher) HaltErr() error {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	return d.haltErr
}

// Run pulls frames from src and processes them one at a time, closing each
// frame afterwards. Detection failures are skipped. Run returns nil when src
// is exhausted or Stop is called, the context's error on cancellation, and
// an error wrapping ErrHalted on escalation.
func (d *Dispatcher) Run(ctx context.Context, src FrameSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		frame, err := src.Next(ctx)
		if err != nil {
			switch {
			case d.isStopped(), errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				return fmt.Errorf("next frame: %w", err)
			}
		}

		_, err = d.Process(ctx, frame)
		frame.Close()

		var derr *detector.DetectionError
		switch {
		case err == nil:
		case errors.Is(err, ErrStopped):
			return nil
		case errors.As(err, &derr):
			if herr := d.HaltErr(); herr != nil {
				return herr
			}
		case errors.Is(err, ErrHalted):
			return err
		case d.isStopped():
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}
}

// Stop prevents any further callback. Once it returns no callback is
// running or will run, and Process returns ErrStopped. Stop must not be
// called from inside a callback.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *Dispatcher) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}
