package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/pose"
	"github.com/ayusman/aronvision/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func frame(seq uint64, body pose.BodyPose, hands ...pose.HandPose) pipeline.FrameResult {
	r := pipeline.FrameResult{
		Seq:       seq,
		Timestamp: time.Unix(1700000000, int64(seq)),
		Body:      pipeline.BodyResult{Pose: body},
	}
	for _, h := range hands {
		r.Hands = append(r.Hands, pipeline.HandResult{Pose: h})
	}
	return r
}

func TestRecorder_RecordsSession(t *testing.T) {
	st := newTestStore(t)

	rec, err := New(st, "replay:test.mp4", WithBatchSize(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- rec.Run(context.Background()) }()

	results := []pipeline.FrameResult{
		frame(1, pose.BodyStanding, pose.HandOpenPalm),
		frame(2, pose.BodyStanding, pose.HandOpenPalm),
		frame(3, pose.BodySquat, pose.HandFist),
		frame(4, pose.BodySquat, pose.HandFist),
	}
	for _, r := range results {
		rec.Observe(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sess, err := st.Sessions().GetByID(rec.Session().ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.Active() {
		t.Error("session should be ended after shutdown")
	}
	if sess.Frames != 4 {
		t.Errorf("Frames = %d, want 4", sess.Frames)
	}

	events, err := st.Events().ListBySession(sess.ID, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("recorded %d events, want 4: %+v", len(events), events)
	}
	if rec.Written() != 4 {
		t.Errorf("Written() = %d, want 4", rec.Written())
	}
	if events[2].Seq != 3 || events[3].Seq != 3 {
		t.Errorf("transitions should be on frame 3, got %d and %d", events[2].Seq, events[3].Seq)
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	st := newTestStore(t)

	rec, err := New(st, "camera:0", WithCapacity(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Nothing drains the queue until Run starts.
	for i := 1; i <= 5; i++ {
		rec.Observe(frame(uint64(i), pose.BodyStanding))
	}
	if rec.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", rec.Dropped())
	}
	if rec.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", rec.Frames())
	}

	rec.Close()
	if err := rec.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events, err := st.Events().ListBySession(rec.Session().ID, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("recorded %d events, want the single body transition", len(events))
	}
}

func TestRecorder_ObserveAfterClose(t *testing.T) {
	rec, err := New(newTestStore(t), "camera:0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec.Close()
	rec.Close()
	rec.Observe(frame(1, pose.BodyStanding))

	if rec.Frames() != 0 {
		t.Errorf("Frames() = %d after close, want 0", rec.Frames())
	}
}

func TestRecorder_ContextCancelEndsSession(t *testing.T) {
	st := newTestStore(t)
	rec, err := New(st, "camera:0", WithFlushInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- rec.Run(ctx) }()

	rec.Observe(frame(1, pose.BodyTPose))
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	sess, err := st.Sessions().GetByID(rec.Session().ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.Active() {
		t.Error("session should be ended after cancel")
	}

	if err := rec.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second Run() error = %v, want ErrClosed", err)
	}
}
