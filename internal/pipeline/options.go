package pipeline

import (
	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
	"github.com/ayusman/aronvision/internal/logger"
)

// Defaults.
const (
	MaxHandCap          = 2
	DefaultFailureLimit = 5
)

type options struct {
	handCap      int
	thresholds   landmark.Thresholds
	viewport     geometry.Viewport
	failureLimit int
	log          logger.Logger

	onHand   HandFunc
	onBody   BodyFunc
	onResult []ResultFunc
}

func defaultOptions() options {
	return options{
		handCap:      MaxHandCap,
		thresholds:   landmark.DefaultThresholds(),
		viewport:     geometry.Rect{Width: 1, Height: 1},
		failureLimit: DefaultFailureLimit,
		log:          logger.Nop(),
	}
}

// Option configures a Dispatcher.
type Option func(*options)

// WithHandCallback registers the hand consumer.
func WithHandCallback(fn HandFunc) Option {
	return func(o *options) { o.onHand = fn }
}

// WithBodyCallback registers the body consumer.
func WithBodyCallback(fn BodyFunc) Option {
	return func(o *options) { o.onBody = fn }
}

// WithResultCallback adds a consumer of whole frame results. It may be
// given more than once; consumers run in registration order.
func WithResultCallback(fn ResultFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.onResult = append(o.onResult, fn)
		}
	}
}

// WithThresholds sets the per-group confidence thresholds.
func WithThresholds(t landmark.Thresholds) Option {
	return func(o *options) { o.thresholds = t }
}

// WithViewport sets the display region points are mapped into.
func WithViewport(vp geometry.Viewport) Option {
	return func(o *options) { o.viewport = vp }
}

// WithHandCap sets how many hands are classified per frame, 1..MaxHandCap.
func WithHandCap(n int) Option {
	return func(o *options) { o.handCap = n }
}

// WithFailureLimit sets how many consecutive detection failures halt the
// dispatcher.
func WithFailureLimit(n int) Option {
	return func(o *options) { o.failureLimit = n }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
