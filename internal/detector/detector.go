// Package detector finds hand and body landmarks in video frames.
//
// Detectors report joints in detector space: normalized [0,1] coordinates
// whose axes are swapped and flipped relative to the display, so that
// geometry.Orient yields upright coordinates.
package detector

import (
	"fmt"
	"time"

	"github.com/ayusman/aronvision/internal/landmark"
	"gocv.io/x/gocv"
)

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns every hand and body instance
	// found in it. A frame with nothing in it is not an error.
	Detect(frame *gocv.Mat) (Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Observation is the raw detector output for one frame.
type Observation struct {
	// Hands holds one joint set per detected hand, in detector order.
	Hands []landmark.JointSet
	// Body is the detected body, or nil when no body was found.
	Body landmark.JointSet
}

// Empty reports whether nothing was detected.
func (o Observation) Empty() bool {
	return len(o.Hands) == 0 && o.Body == nil
}

// DetectionError reports a failed detection for a single frame.
type DetectionError struct {
	Seq uint64
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detect frame %d: %v", e.Seq, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Body enables body landmark detection alongside hands.
	Body bool

	// IdleTimeout stops the detection process after this long without a frame.
	IdleTimeout time.Duration

	// DataDir is searched for scripts/ and venv/ after the working directory.
	DataDir string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Body:            true,
		IdleTimeout:     30 * time.Second,
	}
}
