package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/aronvision/internal/app"
	"github.com/ayusman/aronvision/internal/capture"
	"github.com/ayusman/aronvision/internal/config"
	"github.com/ayusman/aronvision/internal/detector"
	"github.com/ayusman/aronvision/internal/hook"
	"github.com/ayusman/aronvision/internal/landmark"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/pose"
	"github.com/ayusman/aronvision/internal/server"
	"github.com/ayusman/aronvision/internal/server/api"
	"github.com/ayusman/aronvision/internal/store"
)

type harness struct {
	store *store.Store
	app   *app.App
	hub   *server.PoseHub
	ts    *httptest.Server
}

func settings(t *testing.T) *config.Config {
	t.Helper()
	s := config.New()
	s.DataDir = t.TempDir()
	s.IdleFPS = 30
	s.ActiveFPS = 30
	return s
}

func frames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	out := make([]*gocv.Mat, n)
	for i := range out {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		out[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range out {
			m.Close()
		}
	})
	return out
}

func newHarness(t *testing.T, s *config.Config, det detector.Detector, extra ...pipeline.ResultFunc) *harness {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := server.NewPoseHub(nil)
	a, err := app.New(app.Config{
		Settings: s,
		Store:    st,
		Camera:   capture.NewMockCamera(frames(t, 3), true),
		Detector: det,
		Results:  append([]pipeline.ResultFunc{hub.Publish}, extra...),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	ts := httptest.NewServer(server.New(server.Config{
		Store:    st,
		Hub:      hub,
		Preview:  a.Preview(),
		Pipeline: a,
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(hub.Close)

	return &harness{store: st, app: a, hub: hub, ts: ts}
}

func (h *harness) getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, err := h.ts.Client().Get(h.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s decode error = %v", path, err)
	}
}

func TestE2E_LivePipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	det := detector.NewMockDetector()
	det.SetObservation(detector.Observation{
		Hands: []landmark.JointSet{landmark.PeaceHand()},
		Body:  landmark.StandingBody(),
	})
	h := newHarness(t, settings(t), det)

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/api/poses"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	if err := h.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	t.Run("PosesStreamOverWebsocket", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var res pipeline.FrameResult
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if len(res.Hands) != 1 || res.Hands[0].Pose != pose.HandPeace {
			t.Errorf("hands = %+v, want one peace hand", res.Hands)
		}
		if res.Body.Pose != pose.BodyStanding {
			t.Errorf("body = %q, want %q", res.Body.Pose, pose.BodyStanding)
		}
	})

	t.Run("PipelineStatus", func(t *testing.T) {
		var st api.PipelineStatus
		h.getJSON(t, "/api/pipeline", &st)
		if !st.Running || !st.Enabled || st.Session == "" {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("DisableOverHTTP", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, h.ts.URL+"/api/pipeline", strings.NewReader(`{"enabled": false}`))
		resp, err := h.ts.Client().Do(req)
		if err != nil {
			t.Fatalf("PUT error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d", resp.StatusCode)
		}
		if h.app.IsEnabled() {
			t.Error("app should be disabled")
		}
	})

	session := h.app.Status().Session
	h.app.Stop()

	t.Run("SessionRecorded", func(t *testing.T) {
		var list struct {
			Sessions []store.Session `json:"sessions"`
		}
		h.getJSON(t, "/api/sessions", &list)
		if len(list.Sessions) != 1 || list.Sessions[0].ID != session {
			t.Fatalf("sessions = %+v", list.Sessions)
		}
		if list.Sessions[0].Active() || list.Sessions[0].Frames == 0 {
			t.Errorf("session should be ended with frames, got %+v", list.Sessions[0])
		}

		var events struct {
			Events []store.PoseEvent `json:"events"`
		}
		h.getJSON(t, "/api/sessions/"+session+"/events", &events)
		if len(events.Events) != 2 {
			t.Errorf("expected one hand and one body transition, got %+v", events.Events)
		}
	})

	t.Run("HealthStillWorks", func(t *testing.T) {
		var health map[string]any
		h.getJSON(t, "/api/health", &health)
		if health["status"] != "ok" {
			t.Errorf("status = %v", health["status"])
		}
	})
}

func TestE2E_HaltReportedOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := settings(t)
	s.FailureLimit = 2
	det := detector.NewMockDetector()
	det.SetError(errors.New("model unavailable"))
	h := newHarness(t, s, det)

	if err := h.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-h.app.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not halt")
	}

	var health struct {
		Status   string             `json:"status"`
		Pipeline api.PipelineStatus `json:"pipeline"`
	}
	h.getJSON(t, "/api/health", &health)
	if health.Status != "halted" || !health.Pipeline.Halted || health.Pipeline.Running {
		t.Errorf("unexpected health %+v", health)
	}
	if !strings.Contains(health.Pipeline.LastError, "model unavailable") {
		t.Errorf("last error = %q", health.Pipeline.LastError)
	}
}

func TestE2E_HookFiresOnPose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell script hooks need a POSIX shell")
	}

	s := settings(t)
	hookDir := filepath.Join(s.HooksPath(), "logger")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"logger","executable":"run.sh","triggers":[{"kind":"hand","pose":"fist","action":"grab"}]}`
	if err := os.WriteFile(filepath.Join(hookDir, hook.ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat > request.json\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(hookDir, "run.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	m := hook.NewManager(s.HooksPath())
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	runner := hook.NewRunner(m, hook.NewExecutor(s.HookTimeout()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	det := detector.NewMockDetector()
	det.SetObservation(detector.Observation{Hands: []landmark.JointSet{landmark.FistHand()}})
	h := newHarness(t, s, det, runner.Observe)

	if err := h.app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.app.Stop()

	reqPath := filepath.Join(hookDir, "request.json")
	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(reqPath)
		if err == nil && len(data) > 0 {
			var req hook.Request
			if err := json.Unmarshal(data, &req); err != nil {
				t.Fatalf("hook got invalid JSON: %v", err)
			}
			if req.Action != "grab" || req.Pose != string(pose.HandFist) || req.Kind != pipeline.KindHand {
				t.Errorf("unexpected hook request %+v", req)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("hook did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if runner.Runs() != 1 {
		t.Errorf("hook ran %d times for one transition", runner.Runs())
	}
}
