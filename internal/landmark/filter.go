package landmark

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThreshold is returned for thresholds outside [0,1].
var ErrInvalidThreshold = errors.New("invalid confidence threshold")

// Group selects which joints a classification question looks at.
type Group uint8

const (
	// GroupHand is every hand joint. Fingertip precision matters here.
	GroupHand Group = iota
	// GroupArms is shoulders, elbows and wrists of a body.
	GroupArms
	// GroupBody is every body joint.
	GroupBody
)

func (g Group) String() string {
	switch g {
	case GroupHand:
		return "hand"
	case GroupArms:
		return "arms"
	case GroupBody:
		return "body"
	default:
		return "unknown"
	}
}

// Contains reports whether the group includes the joint.
func (g Group) Contains(n Name) bool {
	switch g {
	case GroupHand:
		return n < numHandJoints
	case GroupArms:
		switch n {
		case LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist:
			return true
		}
		return false
	case GroupBody:
		return n >= numHandJoints && n < numJoints
	default:
		return false
	}
}

// Filter returns the joints of s that belong to group and whose confidence
// is at least threshold. The input is never modified.
func Filter(s JointSet, group Group, threshold float64) JointSet {
	out := make(JointSet, len(s))
	for name, j := range s {
		if !group.Contains(name) {
			continue
		}
		if j.Confidence >= threshold {
			out[name] = j
		}
	}
	return out
}

// Thresholds holds the per-group confidence floors.
type Thresholds struct {
	Hand float64 `json:"hand"`
	Arms float64 `json:"arms"`
	Body float64 `json:"body"`
}

// DefaultThresholds returns the default tiers: strict for hands, a stricter
// arm subset for gesture disambiguation and a looser full-body tier for
// coarse stance.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Hand: 0.6,
		Arms: 0.3,
		Body: 0.25,
	}
}

// For returns the threshold configured for a group.
func (t Thresholds) For(g Group) float64 {
	switch g {
	case GroupHand:
		return t.Hand
	case GroupArms:
		return t.Arms
	default:
		return t.Body
	}
}

// Validate checks every threshold lies in [0,1].
func (t Thresholds) Validate() error {
	for _, g := range []Group{GroupHand, GroupArms, GroupBody} {
		v := t.For(g)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s threshold %v not in [0,1]", ErrInvalidThreshold, g, v)
		}
	}
	return nil
}
