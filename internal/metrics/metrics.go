// Package metrics exposes Prometheus metrics for the vision pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame latency buckets in milliseconds. A 30 FPS camera leaves ~33ms per frame.
var defaultLatencyBuckets = []float64{1, 2.5, 5, 10, 20, 33, 50, 100, 250, 500, 1000}

// Manager owns the pipeline's Prometheus collectors.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Pipeline
	framesProcessed prometheus.Counter
	framesSkipped   prometheus.Counter
	detectionErrors prometheus.Counter
	halts           prometheus.Counter
	frameLatency    prometheus.Histogram
	handPoses       *prometheus.CounterVec
	bodyPoses       *prometheus.CounterVec

	// Capture
	feedDropped prometheus.Counter
	captureFPS  prometheus.Gauge

	// Recording
	recorderWritten prometheus.Counter
	recorderDropped prometheus.Counter

	// Hooks
	hookRuns    *prometheus.CounterVec
	hookDropped prometheus.Counter

	// HTTP
	wsClients    prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton manager

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "aron",
		subsystem:      "vision",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.framesProcessed = m.counter("frames_processed_total", "Frames that completed detection and classification")
	m.framesSkipped = m.counter("frames_skipped_total", "Frames discarded before detection while recognition was disabled")
	m.detectionErrors = m.counter("detection_errors_total", "Frames whose detection failed")
	m.halts = m.counter("pipeline_halts_total", "Times the pipeline halted after consecutive detection failures")
	m.frameLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "frame_latency_milliseconds",
		Help:        "Time from frame capture to result delivery in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})
	m.handPoses = m.counterVec("hand_poses_total", "Classified hand instances by label", "pose")
	m.bodyPoses = m.counterVec("body_poses_total", "Classified bodies by label", "pose")

	m.feedDropped = m.counter("feed_dropped_frames_total", "Live frames replaced before the pipeline took them")
	m.captureFPS = m.gauge("capture_fps", "Current capture rate chosen by the motion throttle")

	m.recorderWritten = m.counter("recorder_events_written_total", "Pose events persisted to the session store")
	m.recorderDropped = m.counter("recorder_events_dropped_total", "Pose events dropped because the recorder queue was full")

	m.hookRuns = m.counterVec("hook_runs_total", "Hook executions by hook and result", "hook", "result")
	m.hookDropped = m.counter("hook_runs_dropped_total", "Hook runs dropped because the hook queue was full")

	m.wsClients = m.gauge("ws_clients", "Connected pose stream websocket clients")
	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
}

func (m *Manager) RecordFrameProcessed()         { m.framesProcessed.Inc() }
func (m *Manager) RecordFrameSkipped()           { m.framesSkipped.Inc() }
func (m *Manager) RecordDetectionError()         { m.detectionErrors.Inc() }
func (m *Manager) RecordHalt()                   { m.halts.Inc() }
func (m *Manager) RecordFrameLatency(ms float64) { m.frameLatency.Observe(ms) }
func (m *Manager) RecordHandPose(pose string)    { m.handPoses.WithLabelValues(pose).Inc() }
func (m *Manager) RecordBodyPose(pose string)    { m.bodyPoses.WithLabelValues(pose).Inc() }
func (m *Manager) RecordFeedDrop()               { m.feedDropped.Inc() }
func (m *Manager) UpdateCaptureFPS(fps float64)  { m.captureFPS.Set(fps) }
func (m *Manager) RecordRecorderWrite()          { m.recorderWritten.Inc() }
func (m *Manager) RecordRecorderDrop()           { m.recorderDropped.Inc() }
func (m *Manager) RecordHookDrop()              { m.hookDropped.Inc() }
func (m *Manager) UpdateWSClients(n int)         { m.wsClients.Set(float64(n)) }

func (m *Manager) RecordHookRun(hook, result string) {
	m.hookRuns.WithLabelValues(hook, result).Inc()
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// Global helpers record on the process-wide manager.

// RecordFrameProcessed increments the processed frames counter.
func RecordFrameProcessed() { globalManager.RecordFrameProcessed() }

// RecordFrameSkipped increments the skipped frames counter.
func RecordFrameSkipped() { globalManager.RecordFrameSkipped() }

// RecordDetectionError increments the detection error counter.
func RecordDetectionError() { globalManager.RecordDetectionError() }

// RecordHalt increments the halt counter.
func RecordHalt() { globalManager.RecordHalt() }

// RecordFrameLatency observes a frame's capture-to-delivery latency.
func RecordFrameLatency(ms float64) { globalManager.RecordFrameLatency(ms) }

// RecordHandPose counts one classified hand.
func RecordHandPose(pose string) { globalManager.RecordHandPose(pose) }

// RecordBodyPose counts one classified body.
func RecordBodyPose(pose string) { globalManager.RecordBodyPose(pose) }

// RecordFeedDrop counts a live frame replaced before it was consumed.
func RecordFeedDrop() { globalManager.RecordFeedDrop() }

// UpdateCaptureFPS sets the current capture rate.
func UpdateCaptureFPS(fps float64) { globalManager.UpdateCaptureFPS(fps) }

// RecordRecorderWrite counts a persisted pose event.
func RecordRecorderWrite() { globalManager.RecordRecorderWrite() }

// RecordRecorderDrop counts a frame result the recorder had no room for.
func RecordRecorderDrop() { globalManager.RecordRecorderDrop() }

// RecordHookRun counts a hook execution; result is "ok" or "error".
func RecordHookRun(hook, result string) { globalManager.RecordHookRun(hook, result) }

// RecordHookDrop counts a hook run the queue had no room for.
func RecordHookDrop() { globalManager.RecordHookDrop() }

// UpdateWSClients sets the connected websocket client count.
func UpdateWSClients(n int) { globalManager.UpdateWSClients(n) }

// RecordHTTPRequest counts a served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// GetRegistry returns the registry behind the global helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
