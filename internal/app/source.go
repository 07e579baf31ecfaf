package app

import (
	"context"

	"github.com/ayusman/aronvision/internal/capture"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/metrics"
)

// gatedSource feeds the preview with every live frame and passes frames on
// to the pipeline only while detection is enabled.
type gatedSource struct {
	feed *capture.Feed
	app  *App
}

func (s *gatedSource) Next(ctx context.Context) (capture.Frame, error) {
	for {
		fr, err := s.feed.Next(ctx)
		if err != nil {
			return capture.Frame{}, err
		}

		if err := s.app.preview.Publish(fr); err != nil {
			s.app.log.Debug(ctx, "preview frame dropped", logger.Error(err))
		}

		if s.app.IsEnabled() {
			return fr, nil
		}
		fr.Close()
		metrics.RecordFrameSkipped()
	}
}
