// Package capture reads video frames from cameras and video files and
// hands them to the pipeline as a frame source.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device produced no usable frame.
	ErrReadFailed = errors.New("failed to read frame")
)

// Frame is one captured image plus the metadata the pipeline needs.
type Frame struct {
	// Seq numbers frames from 1 in capture order.
	Seq       uint64
	Timestamp time.Time
	// Image is owned by whoever holds the Frame and must be released with Close.
	Image *gocv.Mat
	// Motion is the percentage of pixels that changed since the previous frame.
	Motion float64
}

// Close releases the frame's image.
func (f Frame) Close() error {
	if f.Image == nil {
		return nil
	}
	return f.Image.Close()
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera with the given device ID.
// The default FPS is 5 for performance reasons.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open opens the camera for capturing frames at 640x480.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}
	return readMat(c.capture, ErrReadFailed)
}

// readMat reads one frame, returning onFail when the capture yields nothing.
func readMat(capture *gocv.VideoCapture, onFail error) (*gocv.Mat, error) {
	mat := gocv.NewMat()
	if ok := capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, onFail
	}
	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// VideoFile plays a recorded video through the Camera interface. ReadFrame
// returns io.EOF after the last frame.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// NewVideoFile creates a VideoFile for path. The file is opened by Open.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path}
}

// Open opens the video file.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture != nil {
		return nil
	}
	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: %w", v.path, ErrCameraNotOpen)
	}
	v.capture = capture
	return nil
}

// Close releases the file.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// ReadFrame returns the next frame of the file.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, ErrCameraNotOpen
	}
	return readMat(v.capture, io.EOF)
}

// SetFPS is a no-op; a file plays at whatever rate it is read.
func (v *VideoFile) SetFPS(int) {}

// FPS returns the frame rate recorded in the file, or 0 when unknown.
func (v *VideoFile) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return 0
	}
	return int(v.capture.Get(gocv.VideoCaptureFPS) + 0.5)
}

// FrameCount returns the number of frames the container reports, or -1 when
// the file is not open or the count is unknown.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return -1
	}
	n := int(v.capture.Get(gocv.VideoCaptureFrameCount))
	if n <= 0 {
		return -1
	}
	return n
}

// IsOpen reports whether the file is open.
func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.capture != nil
}
