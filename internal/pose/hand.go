package pose

import (
	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
)

// HandPose is a recognized hand gesture.
type HandPose string

const (
	HandUnsure   HandPose = "unsure"
	HandFist     HandPose = "fist"
	HandPinch    HandPose = "pinch"
	HandOpenPalm HandPose = "open_palm"
	HandPeace    HandPose = "peace"
	HandPoint    HandPose = "point"
)

// HandPoses lists every hand label, default first.
var HandPoses = []HandPose{HandUnsure, HandFist, HandPinch, HandOpenPalm, HandPeace, HandPoint}

// Hand geometry constants, in normalized detector units.
const (
	// PinchDistance is the thumb-tip to index-tip distance below which the
	// hand is pinching.
	PinchDistance = 0.08
	// extendedRatio is how much farther than its PIP joint a fingertip must
	// be from the wrist to count as extended.
	extendedRatio = 1.15
)

type finger struct {
	pip, tip landmark.Name
}

var (
	index  = finger{landmark.IndexPIP, landmark.IndexTip}
	middle = finger{landmark.MiddlePIP, landmark.MiddleTip}
	ring   = finger{landmark.RingPIP, landmark.RingTip}
	pinky  = finger{landmark.PinkyPIP, landmark.PinkyTip}
)

// reach returns the wrist distances of a finger's PIP joint and tip.
func reach(s landmark.JointSet, f finger) (pip, tip float64, ok bool) {
	if !s.Has(landmark.Wrist, f.pip, f.tip) {
		return 0, 0, false
	}
	w := s[landmark.Wrist].Position
	return geometry.Distance(w, s[f.pip].Position), geometry.Distance(w, s[f.tip].Position), true
}

func extended(s landmark.JointSet, f finger) bool {
	pip, tip, ok := reach(s, f)
	return ok && tip > pip*extendedRatio
}

func curled(s landmark.JointSet, f finger) bool {
	pip, tip, ok := reach(s, f)
	return ok && tip < pip
}

func all(s landmark.JointSet, pred func(landmark.JointSet, finger) bool, fs ...finger) bool {
	for _, f := range fs {
		if !pred(s, f) {
			return false
		}
	}
	return true
}

func pinching(s landmark.JointSet) bool {
	thumb, ok1 := s.Point(landmark.ThumbTip)
	idx, ok2 := s.Point(landmark.IndexTip)
	return ok1 && ok2 && geometry.Distance(thumb, idx) < PinchDistance
}

// handRules is evaluated top to bottom.
var handRules = []rule[HandPose]{
	{HandFist, func(s landmark.JointSet) bool {
		return all(s, curled, index, middle, ring, pinky)
	}},
	{HandPinch, pinching},
	{HandOpenPalm, func(s landmark.JointSet) bool {
		return all(s, extended, index, middle, ring, pinky)
	}},
	{HandPeace, func(s landmark.JointSet) bool {
		return all(s, extended, index, middle) && all(s, curled, ring, pinky)
	}},
	{HandPoint, func(s landmark.JointSet) bool {
		return extended(s, index) && all(s, curled, middle, ring, pinky)
	}},
}

// ClassifyHand labels one filtered hand instance.
func ClassifyHand(s landmark.JointSet) HandPose {
	return evaluate(handRules, s, HandUnsure)
}
