package store

import (
	"testing"
	"time"
)

func seedSession(t *testing.T, s *Store) string {
	t.Helper()
	sess, err := s.Sessions().Create("camera:0")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return sess.ID
}

func TestEventRepository_AppendAndList(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)
	now := time.Now()

	events := []PoseEvent{
		{SessionID: id, Seq: 3, Kind: KindHand, Slot: 1, Pose: "pinch", At: now},
		{SessionID: id, Seq: 1, Kind: KindHand, Slot: 0, Pose: "fist", At: now},
		{SessionID: id, Seq: 1, Kind: KindBody, Slot: BodySlot, Pose: "standing", At: now},
	}
	if err := s.Events().Append(events); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	for i, e := range events {
		if e.ID == 0 {
			t.Errorf("event %d was not assigned an ID", i)
		}
	}

	got, err := s.Events().ListBySession(id, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListBySession() returned %d events, want 3", len(got))
	}

	wantOrder := []string{"fist", "standing", "pinch"}
	for i, want := range wantOrder {
		if got[i].Pose != want {
			t.Errorf("event %d pose = %q, want %q", i, got[i].Pose, want)
		}
	}
	if got[1].Kind != KindBody || got[1].Slot != BodySlot {
		t.Errorf("body event = %+v", got[1])
	}
	if got[2].Seq != 3 {
		t.Errorf("Seq = %d, want 3", got[2].Seq)
	}

	limited, err := s.Events().ListBySession(id, 1)
	if err != nil {
		t.Fatalf("ListBySession(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListBySession(1) returned %d events", len(limited))
	}
}

func TestEventRepository_AppendEmpty(t *testing.T) {
	s := newTestStore(t)

	if err := s.Events().Append(nil); err != nil {
		t.Errorf("Append(nil) error = %v", err)
	}
}

func TestEventRepository_InvalidKindRollsBack(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)

	err := s.Events().Append([]PoseEvent{
		{SessionID: id, Seq: 1, Kind: KindHand, Pose: "fist"},
		{SessionID: id, Seq: 2, Kind: "tail", Pose: "wag"},
	})
	if err == nil {
		t.Fatal("Append() should reject an unknown kind")
	}

	got, err := s.Events().ListBySession(id, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("failed batch left %d events behind", len(got))
	}
}

func TestEventRepository_Summary(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)
	other := seedSession(t, s)

	var events []PoseEvent
	for i, p := range []string{"fist", "pinch", "fist", "fist"} {
		events = append(events, PoseEvent{SessionID: id, Seq: uint64(i), Kind: KindHand, Pose: p})
	}
	events = append(events,
		PoseEvent{SessionID: id, Seq: 0, Kind: KindBody, Slot: BodySlot, Pose: "squat"},
		PoseEvent{SessionID: other, Seq: 0, Kind: KindHand, Pose: "fist"},
	)
	if err := s.Events().Append(events); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Events().Summary(id)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	want := []PoseCount{
		{Kind: KindBody, Pose: "squat", Count: 1},
		{Kind: KindHand, Pose: "fist", Count: 3},
		{Kind: KindHand, Pose: "pinch", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Summary() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Summary()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
