package recorder

import (
	"time"

	"github.com/ayusman/aronvision/internal/logger"
)

// Default recorder configuration.
const (
	defaultCapacity      = 256
	defaultBatchSize     = 64
	defaultFlushInterval = time.Second
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithCapacity sets how many frame results may wait for the writer before
// new ones are dropped.
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithBatchSize sets how many events are buffered before a write.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithFlushInterval sets the longest time an event waits in the buffer.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.flushInterval = d
		}
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}
