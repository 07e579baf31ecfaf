package pipeline

import (
	"time"

	"github.com/ayusman/aronvision/internal/pose"
)

// TransitionKind tells hand transitions from body transitions.
type TransitionKind string

const (
	KindHand TransitionKind = "hand"
	KindBody TransitionKind = "body"
)

// BodySlot is the slot of every body transition.
const BodySlot = -1

// Transition is a label change seen between consecutive frame results.
type Transition struct {
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      TransitionKind `json:"kind"`
	Slot      int            `json:"slot"`
	Pose      string         `json:"pose"`
}

// Tracker remembers the last label per hand slot and for the body, and
// reduces frame results to the labels that changed. The zero value is ready
// to use. A Tracker is not safe for concurrent use.
type Tracker struct {
	hands   []pose.HandPose
	body    pose.BodyPose
	started bool
}

// Observe returns the transitions r introduces, hands first in slot order.
func (t *Tracker) Observe(r FrameResult) []Transition {
	var out []Transition

	for slot, h := range r.Hands {
		if slot < len(t.hands) && t.hands[slot] == h.Pose {
			continue
		}
		out = append(out, Transition{Seq: r.Seq, Timestamp: r.Timestamp, Kind: KindHand, Slot: slot, Pose: string(h.Pose)})
	}
	// A hand that leaves the frame forgets its label so its return counts
	// as a transition again.
	t.hands = append(t.hands[:0], r.HandPoses()...)

	if !t.started || r.Body.Pose != t.body {
		out = append(out, Transition{Seq: r.Seq, Timestamp: r.Timestamp, Kind: KindBody, Slot: BodySlot, Pose: string(r.Body.Pose)})
	}
	t.body = r.Body.Pose
	t.started = true

	return out
}
