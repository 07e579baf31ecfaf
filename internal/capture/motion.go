package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// blurSize is the Gaussian kernel edge used to suppress sensor noise.
	blurSize = 21
	// diffThreshold is the per-pixel intensity change that counts as motion.
	diffThreshold = 25
)

// MotionDetector detects motion between consecutive video frames
// using frame differencing with Gaussian blur for noise reduction.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a new MotionDetector with the given threshold,
// the percentage of pixels that must change to count as motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame against the previous one and reports whether motion
// was seen and what percentage of pixels changed. The first frame only sets
// the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || blurred.Rows() != m.prevGray.Rows() || blurred.Cols() != m.prevGray.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// Throttle picks the capture rate from recent motion: idle until motion is
// seen, active until no motion has been seen for the idle timeout.
type Throttle struct {
	idleFPS     int
	activeFPS   int
	idleTimeout time.Duration
	active      bool
	lastMotion  time.Time
}

// NewThrottle returns a Throttle in idle mode.
func NewThrottle(idleFPS, activeFPS int, idleTimeout time.Duration) *Throttle {
	if idleFPS <= 0 {
		idleFPS = DefaultFPS
	}
	if activeFPS < idleFPS {
		activeFPS = idleFPS
	}
	return &Throttle{idleFPS: idleFPS, activeFPS: activeFPS, idleTimeout: idleTimeout}
}

// Observe records whether the latest frame had motion at time now and
// returns the rate to capture at, and whether it changed.
func (t *Throttle) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		t.lastMotion = now
		if !t.active {
			t.active = true
			return t.activeFPS, true
		}
	case t.active && now.Sub(t.lastMotion) > t.idleTimeout:
		t.active = false
		return t.idleFPS, true
	}
	return t.FPS(), false
}

// FPS returns the current capture rate.
func (t *Throttle) FPS() int {
	if t.active {
		return t.activeFPS
	}
	return t.idleFPS
}

// Active reports whether the throttle is in active mode.
func (t *Throttle) Active() bool {
	return t.active
}
