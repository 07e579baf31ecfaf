// Package app wires the camera, detector, pose pipeline and its consumers
// into a running aronvision instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ayusman/aronvision/internal/capture"
	"github.com/ayusman/aronvision/internal/config"
	"github.com/ayusman/aronvision/internal/detector"
	"github.com/ayusman/aronvision/internal/lane"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/recorder"
	"github.com/ayusman/aronvision/internal/server/api"
	"github.com/ayusman/aronvision/internal/store"
)

// settingEnabled is the settings key that remembers the enabled toggle.
const settingEnabled = "enabled"

// Config holds configuration options for the application. Only Settings is
// required.
type Config struct {
	Settings *config.Config
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Source   string

	OnHand  pipeline.HandFunc
	OnBody  pipeline.BodyFunc
	Results []pipeline.ResultFunc
	OnHalt  func(err error)

	Log logger.Logger
}

// App is the main application that runs the pose pipeline on a live camera.
type App struct {
	config   Config
	settings *config.Config
	log      logger.Logger
	camera   capture.Camera
	detector detector.Detector
	preview  *capture.Preview
	enabled  atomic.Bool

	mu         sync.Mutex
	dispatcher *pipeline.Dispatcher
	recorder   *recorder.Recorder
	cancel     context.CancelFunc
	done       chan struct{}
	lastErr    error
	halted     bool
}

// New creates a new App instance with the given configuration.
func New(cfg Config) (*App, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("%w: missing settings", config.ErrInvalidConfig)
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	a := &App{
		config:   cfg,
		settings: cfg.Settings,
		log:      log.Named("app"),
		camera:   cfg.Camera,
		detector: cfg.Detector,
		preview:  capture.NewPreview(),
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Settings.CameraID)
	}
	if a.config.Source == "" {
		a.config.Source = "camera:" + strconv.Itoa(cfg.Settings.CameraID)
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		a.detector = newDetector(cfg.Settings, a.log)
	}

	a.enabled.Store(a.loadEnabled())
	return a, nil
}

func newDetector(s *config.Config, log logger.Logger) detector.Detector {
	dc := detector.DefaultConfig()
	dc.MaxHands = s.HandCap
	dc.DataDir = s.DataDir

	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		log.Warn(context.Background(), "MediaPipe not available, using mock detector", logger.Error(err))
		return detector.NewMockDetector()
	}
	log.Info(context.Background(), "using MediaPipe landmark detection")
	return mp
}

func (a *App) loadEnabled() bool {
	if a.config.Store == nil {
		return true
	}
	v, err := a.config.Store.Settings().Get(settingEnabled)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warn(context.Background(), "failed to read enabled setting", logger.Error(err))
		}
		return true
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return enabled
}

// SetEnabled enables or disables detection. Frames captured while disabled
// are discarded before reaching the detector. The choice is remembered in
// the store.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	a.log.Info(context.Background(), "detection toggled", logger.Bool("enabled", enabled))

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingEnabled, strconv.FormatBool(enabled)); err != nil {
			a.log.Warn(context.Background(), "failed to save enabled setting", logger.Error(err))
		}
	}
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Preview returns the JPEG preview of the live camera.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

func (a *App) pipelineOptions(rec *recorder.Recorder) ([]pipeline.Option, error) {
	vp, err := a.settings.Viewport()
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithThresholds(a.settings.Thresholds()),
		pipeline.WithViewport(vp),
		pipeline.WithHandCap(a.settings.HandCap),
		pipeline.WithFailureLimit(a.settings.FailureLimit),
		pipeline.WithLogger(a.log.Named("pipeline")),
		pipeline.WithHandCallback(a.config.OnHand),
		pipeline.WithBodyCallback(a.config.OnBody),
	}
	for _, fn := range a.config.Results {
		opts = append(opts, pipeline.WithResultCallback(fn))
	}
	if rec != nil {
		opts = append(opts, pipeline.WithResultCallback(rec.Observe))
	}
	return opts, nil
}

// Start opens the camera and begins the pipeline. It returns nil when the
// pipeline is already running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running() {
		return nil
	}

	var rec *recorder.Recorder
	if a.config.Store != nil && a.settings.Record {
		r, err := recorder.New(a.config.Store, a.config.Source, recorder.WithLogger(a.log.Named("recorder")))
		if err != nil {
			return fmt.Errorf("start recorder: %w", err)
		}
		rec = r
	}

	ln := lane.New()
	opts, err := a.pipelineOptions(rec)
	var disp *pipeline.Dispatcher
	if err == nil {
		disp, err = pipeline.New(a.detector, ln, opts...)
	}
	if err != nil {
		ln.Close()
		a.discard(rec)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	feed := capture.NewFeed(a.camera, capture.FeedConfig{
		IdleFPS:         a.settings.IdleFPS,
		ActiveFPS:       a.settings.ActiveFPS,
		IdleTimeout:     a.settings.IdleTimeout(),
		MotionThreshold: a.settings.MotionThreshold,
	}, a.log.Named("capture"))
	if err := feed.Start(runCtx); err != nil {
		cancel()
		feed.Stop()
		ln.Close()
		a.discard(rec)
		return fmt.Errorf("open camera: %w", err)
	}

	recDone := make(chan struct{})
	if rec != nil {
		go func() {
			defer close(recDone)
			if err := rec.Run(context.Background()); err != nil {
				a.log.Error(runCtx, "recorder failed", logger.Error(err))
			}
		}()
	} else {
		close(recDone)
	}

	a.dispatcher = disp
	a.recorder = rec
	a.cancel = cancel
	a.done = make(chan struct{})
	a.lastErr = nil
	a.halted = false

	go a.run(runCtx, feed, disp, ln, rec, recDone, a.done)

	a.log.Info(ctx, "detection pipeline started", logger.String("source", a.config.Source))
	return nil
}

// discard removes the session of a recorder that never ran.
func (a *App) discard(rec *recorder.Recorder) {
	if rec == nil {
		return
	}
	rec.Close()
	if err := a.config.Store.Sessions().Delete(rec.Session().ID); err != nil {
		a.log.Warn(context.Background(), "failed to discard session", logger.Error(err))
	}
}

// running must be called with a.mu held.
func (a *App) running() bool {
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

func (a *App) run(ctx context.Context, feed *capture.Feed, disp *pipeline.Dispatcher, ln *lane.Lane,
	rec *recorder.Recorder, recDone, done chan struct{}) {
	defer close(done)

	err := disp.Run(ctx, &gatedSource{feed: feed, app: a})

	disp.Stop()
	feed.Stop()
	ln.Close()
	if rec != nil {
		rec.Close()
	}
	<-recDone

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	halted := errors.Is(err, pipeline.ErrHalted)

	a.mu.Lock()
	a.lastErr = err
	a.halted = halted
	a.mu.Unlock()

	switch {
	case halted:
		a.log.Error(ctx, "detection pipeline halted, capture stopped",
			logger.Int("failures", disp.Failures()), logger.Error(err))
		if a.config.OnHalt != nil {
			a.config.OnHalt(err)
		}
	case err != nil:
		a.log.Error(ctx, "detection pipeline failed", logger.Error(err))
	default:
		a.log.Info(context.Background(), "detection pipeline stopped")
	}
}

// Stop halts the pipeline and waits until no callback runs any more. It
// must not be called from a pipeline callback.
func (a *App) Stop() {
	a.mu.Lock()
	disp, cancel, done := a.dispatcher, a.cancel, a.done
	a.mu.Unlock()

	if disp == nil {
		return
	}
	disp.Stop()
	cancel()
	<-done
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	return a.detector.Close()
}

// Done is closed when the current run ends. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Err returns why the last run ended, or nil after a clean stop.
func (a *App) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Status reports the pipeline state for the HTTP API.
func (a *App) Status() api.PipelineStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := api.PipelineStatus{
		Running: a.running(),
		Enabled: a.enabled.Load(),
		Halted:  a.halted,
	}
	if a.dispatcher != nil {
		st.Failures = a.dispatcher.Failures()
	}
	if a.recorder != nil {
		st.Session = a.recorder.Session().ID
	}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	return st
}
