package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func find(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterValue(reg *prometheus.Registry, name string, labels map[string]string) float64 {
	f := find(reg, name)
	if f == nil {
		return 0
	}
	for _, m := range f.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("pipeline"),
				WithLatencyBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(reg),
			)

			Convey("Then metric names carry the namespace and subsystem", func() {
				So(m, ShouldNotBeNil)
				m.RecordFrameProcessed()
				So(find(reg, "test_pipeline_frames_processed_total"), ShouldNotBeNil)
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithLatencyBuckets(nil), WithPrometheusRegistry(reg))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "aron")
				So(m.subsystem, ShouldEqual, "vision")
				So(m.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		Convey("When frames and poses are recorded", func() {
			m.RecordFrameProcessed()
			m.RecordFrameProcessed()
			m.RecordDetectionError()
			m.RecordHandPose("fist")
			m.RecordHandPose("fist")
			m.RecordHandPose("pinch")
			m.RecordBodyPose("standing")
			m.RecordFrameLatency(12)

			Convey("Then counters reflect the calls", func() {
				So(counterValue(reg, "aron_vision_frames_processed_total", nil), ShouldEqual, 2)
				So(counterValue(reg, "aron_vision_detection_errors_total", nil), ShouldEqual, 1)
				So(counterValue(reg, "aron_vision_hand_poses_total", map[string]string{"pose": "fist"}), ShouldEqual, 2)
				So(counterValue(reg, "aron_vision_hand_poses_total", map[string]string{"pose": "pinch"}), ShouldEqual, 1)
				So(counterValue(reg, "aron_vision_body_poses_total", map[string]string{"pose": "standing"}), ShouldEqual, 1)
			})

			Convey("Then the latency histogram has one sample", func() {
				f := find(reg, "aron_vision_frame_latency_milliseconds")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetHistogram().GetSampleCount(), ShouldEqual, 1)
			})
		})

		Convey("When hooks run", func() {
			m.RecordHookRun("media", "ok")
			m.RecordHookRun("media", "ok")
			m.RecordHookRun("keys", "error")
			m.RecordHookDrop()

			Convey("Then runs are counted per hook and result", func() {
				So(counterValue(reg, "aron_vision_hook_runs_total", map[string]string{"hook": "media", "result": "ok"}), ShouldEqual, 2)
				So(counterValue(reg, "aron_vision_hook_runs_total", map[string]string{"hook": "keys", "result": "error"}), ShouldEqual, 1)
				So(counterValue(reg, "aron_vision_hook_runs_dropped_total", nil), ShouldEqual, 1)
			})
		})

		Convey("When gauges are updated", func() {
			m.UpdateWSClients(3)
			m.UpdateCaptureFPS(5)

			Convey("Then the latest value is exposed", func() {
				So(find(reg, "aron_vision_ws_clients").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
				So(find(reg, "aron_vision_capture_fps").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 5)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)

		Convey("Then the helpers do not panic", func() {
			So(func() {
				RecordFrameProcessed()
				RecordFrameSkipped()
				RecordDetectionError()
				RecordHalt()
				RecordFrameLatency(4)
				RecordHandPose("open_palm")
				RecordBodyPose("unsure")
				RecordFeedDrop()
				UpdateCaptureFPS(30)
				RecordRecorderWrite()
				RecordRecorderDrop()
				RecordHookRun("media", "ok")
				RecordHookDrop()
				UpdateWSClients(0)
				RecordHTTPRequest("/api/health", "GET", "200")
			}, ShouldNotPanic)
		})
	})
}
