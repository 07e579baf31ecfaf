package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	obs    Observation
	err    error
	fn     func(call int) (Observation, error)
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObservation sets the observation that will be returned by Detect.
func (m *MockDetector) SetObservation(obs Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFunc makes Detect delegate to fn, called with the zero-based call index.
// It takes precedence over SetObservation and SetError.
func (m *MockDetector) SetFunc(fn func(call int) (Observation, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// Calls returns how many times Detect has run.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Detect returns the pre-configured observation or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Observation, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	fn, obs, err := m.fn, m.obs, m.err
	m.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	if err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
