package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/ayusman/aronvision/internal/pose"
)

func labelled(seq uint64, body pose.BodyPose, hands ...pose.HandPose) FrameResult {
	r := FrameResult{
		Seq:       seq,
		Timestamp: time.Unix(1700000000, int64(seq)),
		Body:      BodyResult{Pose: body},
	}
	for _, h := range hands {
		r.Hands = append(r.Hands, HandResult{Pose: h})
	}
	return r
}

func TestTracker_Observe(t *testing.T) {
	var tr Tracker

	tests := []struct {
		name  string
		in    FrameResult
		wants []string
	}{
		{
			name:  "first frame reports everything",
			in:    labelled(1, pose.BodyStanding, pose.HandFist),
			wants: []string{"hand0:fist", "body:standing"},
		},
		{
			name:  "unchanged frame reports nothing",
			in:    labelled(2, pose.BodyStanding, pose.HandFist),
			wants: nil,
		},
		{
			name:  "second hand appears",
			in:    labelled(3, pose.BodyStanding, pose.HandFist, pose.HandPinch),
			wants: []string{"hand1:pinch"},
		},
		{
			name:  "body changes",
			in:    labelled(4, pose.BodyArmsUp, pose.HandFist, pose.HandPinch),
			wants: []string{"body:arms_up"},
		},
		{
			name:  "hands leave",
			in:    labelled(5, pose.BodyArmsUp),
			wants: nil,
		},
		{
			name:  "returning hand is reported again",
			in:    labelled(6, pose.BodyArmsUp, pose.HandFist),
			wants: []string{"hand0:fist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tr := range tr.Observe(tt.in) {
				if tr.Seq != tt.in.Seq || !tr.Timestamp.Equal(tt.in.Timestamp) {
					t.Errorf("transition %+v carries the wrong frame", tr)
				}
				if tr.Kind == KindBody {
					if tr.Slot != BodySlot {
						t.Errorf("body transition slot = %d", tr.Slot)
					}
					got = append(got, "body:"+tr.Pose)
				} else {
					got = append(got, fmt.Sprintf("hand%d:%s", tr.Slot, tr.Pose))
				}
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.wants) {
				t.Errorf("transitions = %v, want %v", got, tt.wants)
			}
		})
	}
}
