package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ayusman/aronvision/internal/capture"
	"github.com/ayusman/aronvision/internal/config"
	"github.com/ayusman/aronvision/internal/detector"
	"github.com/ayusman/aronvision/internal/lane"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/pose"
	"github.com/ayusman/aronvision/internal/recorder"
	"github.com/ayusman/aronvision/internal/store"
)

// replayQueue is the recorder queue used for replays, where the pipeline
// runs as fast as the detector allows.
const replayQueue = 4096

// ReplayConfig configures an offline run over a recorded video.
type ReplayConfig struct {
	Settings *config.Config
	Path     string

	// Optional.
	Camera   capture.Camera
	Store    *store.Store
	Detector detector.Detector
	OnStart  func(totalFrames int)
	OnResult pipeline.ResultFunc
	Log      logger.Logger
}

// Summary describes a finished replay.
type Summary struct {
	Frames    int                   `json:"frames"`
	Delivered int                   `json:"delivered"`
	Dropped   int64                 `json:"dropped_events"`
	Session   string                `json:"session,omitempty"`
	Hands     map[pose.HandPose]int `json:"hands"`
	Body      map[pose.BodyPose]int `json:"body"`
	Elapsed   time.Duration         `json:"elapsed_ns"`
}

// Failed returns how many frames failed detection.
func (s *Summary) Failed() int {
	return s.Frames - s.Delivered
}

func (s *Summary) add(r pipeline.FrameResult) {
	s.Delivered++
	for _, h := range r.Hands {
		s.Hands[h.Pose]++
	}
	s.Body[r.Body.Pose]++
}

// countingSource counts the frames handed to the pipeline.
type countingSource struct {
	src pipeline.FrameSource
	n   int
}

func (c *countingSource) Next(ctx context.Context) (capture.Frame, error) {
	fr, err := c.src.Next(ctx)
	if err == nil {
		c.n++
	}
	return fr, err
}

// Replay runs every frame of a video through the pipeline, in order and
// without dropping any, and returns what was seen. A halted run returns the
// partial summary along with an error wrapping pipeline.ErrHalted.
func Replay(ctx context.Context, cfg ReplayConfig) (*Summary, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("%w: missing settings", config.ErrInvalidConfig)
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("replay")

	cam := cfg.Camera
	if cam == nil {
		cam = capture.NewVideoFile(cfg.Path)
	}
	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	defer cam.Close()

	if cfg.OnStart != nil {
		total := -1
		if v, ok := cam.(*capture.VideoFile); ok {
			total = v.FrameCount()
		}
		cfg.OnStart(total)
	}

	det := cfg.Detector
	if det == nil {
		det = newDetector(cfg.Settings, log)
		defer det.Close()
	}

	summary := &Summary{
		Hands: make(map[pose.HandPose]int),
		Body:  make(map[pose.BodyPose]int),
	}

	vp, err := cfg.Settings.Viewport()
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithThresholds(cfg.Settings.Thresholds()),
		pipeline.WithViewport(vp),
		pipeline.WithHandCap(cfg.Settings.HandCap),
		pipeline.WithFailureLimit(cfg.Settings.FailureLimit),
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithResultCallback(summary.add),
		pipeline.WithResultCallback(cfg.OnResult),
	}

	var rec *recorder.Recorder
	recDone := make(chan error, 1)
	if cfg.Store != nil && cfg.Settings.Record {
		rec, err = recorder.New(cfg.Store, "replay:"+filepath.Base(cfg.Path),
			recorder.WithCapacity(replayQueue),
			recorder.WithLogger(log.Named("recorder")),
		)
		if err != nil {
			return nil, fmt.Errorf("start recorder: %w", err)
		}
		summary.Session = rec.Session().ID
		opts = append(opts, pipeline.WithResultCallback(rec.Observe))
		go func() { recDone <- rec.Run(context.Background()) }()
	}

	ln := lane.New()
	defer ln.Close()

	disp, err := pipeline.New(det, ln, opts...)
	if err != nil {
		if rec != nil {
			rec.Close()
			<-recDone
		}
		return nil, err
	}

	src := &countingSource{src: capture.NewReader(cam)}
	start := time.Now()
	runErr := disp.Run(ctx, src)
	disp.Stop()

	summary.Frames = src.n
	summary.Elapsed = time.Since(start)

	if rec != nil {
		rec.Close()
		if err := <-recDone; err != nil {
			log.Error(ctx, "recorder failed", logger.Error(err))
		}
		summary.Dropped = rec.Dropped()
	}

	log.Info(ctx, "replay finished",
		logger.String("path", cfg.Path),
		logger.Int("frames", summary.Frames),
		logger.Int("failed", summary.Failed()),
		logger.Duration("elapsed", summary.Elapsed),
	)
	return summary, runErr
}
