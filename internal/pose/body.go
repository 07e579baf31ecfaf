package pose

import (
	"math"

	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
)

// BodyPose is a recognized body stance.
type BodyPose string

const (
	BodyUnsure    BodyPose = "unsure"
	BodyArmsUp    BodyPose = "arms_up"
	BodyTPose     BodyPose = "t_pose"
	BodyArmRaised BodyPose = "arm_raised"
	BodySquat     BodyPose = "squat"
	BodyStanding  BodyPose = "standing"
)

// BodyPoses lists every body label, default first.
var BodyPoses = []BodyPose{BodyUnsure, BodyArmsUp, BodyTPose, BodyArmRaised, BodySquat, BodyStanding}

// Body geometry constants, in oriented normalized units (y grows downward).
const (
	raiseMargin    = 0.05
	levelTolerance = 0.08
	tSpanRatio     = 2.0
	squatRatio     = 0.5
	standingRatio  = 0.6
)

type side struct {
	shoulder, wrist, hip, knee, ankle landmark.Name
}

var (
	left  = side{landmark.LeftShoulder, landmark.LeftWrist, landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle}
	right = side{landmark.RightShoulder, landmark.RightWrist, landmark.RightHip, landmark.RightKnee, landmark.RightAnkle}
)

// upright returns a joint position in display orientation.
func upright(s landmark.JointSet, n landmark.Name) geometry.Point {
	return geometry.Orient(s[n].Position)
}

// raised reports whether a side's wrist is above its shoulder. ok is false
// when either joint is missing.
func raised(s landmark.JointSet, sd side) (up, ok bool) {
	if !s.Has(sd.shoulder, sd.wrist) {
		return false, false
	}
	return upright(s, sd.wrist).Y < upright(s, sd.shoulder).Y-raiseMargin, true
}

func armsUp(s landmark.JointSet) bool {
	l, okL := raised(s, left)
	r, okR := raised(s, right)
	return okL && okR && l && r
}

func armRaised(s landmark.JointSet) bool {
	l, okL := raised(s, left)
	r, okR := raised(s, right)
	return (okL && l) != (okR && r)
}

func tPose(s landmark.JointSet) bool {
	if !s.Has(left.shoulder, left.wrist, right.shoulder, right.wrist) {
		return false
	}
	ls, rs := upright(s, left.shoulder), upright(s, right.shoulder)
	lw, rw := upright(s, left.wrist), upright(s, right.wrist)

	shoulders := math.Abs(ls.X - rs.X)
	if shoulders == 0 {
		return false
	}
	level := math.Abs(lw.Y-ls.Y) < levelTolerance && math.Abs(rw.Y-rs.Y) < levelTolerance
	return level && math.Abs(lw.X-rw.X) > tSpanRatio*shoulders
}

// legs applies pred to each side with hip, knee and ankle present. It holds
// when at least one side is complete and every complete side satisfies pred.
func legs(s landmark.JointSet, pred func(hip, knee, ankle float64) bool) bool {
	seen := false
	for _, sd := range []side{left, right} {
		if !s.Has(sd.hip, sd.knee, sd.ankle) {
			continue
		}
		seen = true
		if !pred(upright(s, sd.hip).Y, upright(s, sd.knee).Y, upright(s, sd.ankle).Y) {
			return false
		}
	}
	return seen
}

func squat(s landmark.JointSet) bool {
	return legs(s, func(hip, knee, ankle float64) bool {
		shin := ankle - knee
		return shin > 0 && knee-hip < squatRatio*shin
	})
}

func standing(s landmark.JointSet) bool {
	return legs(s, func(hip, knee, ankle float64) bool {
		shin := ankle - knee
		return hip < knee && knee < ankle && knee-hip >= standingRatio*shin
	})
}

// armRules answers the arm-only question on the strict arm subset.
var armRules = []rule[BodyPose]{
	{BodyArmsUp, armsUp},
	{BodyTPose, tPose},
	{BodyArmRaised, armRaised},
}

// bodyRules answers the coarse stance question on the full body.
var bodyRules = []rule[BodyPose]{
	{BodySquat, squat},
	{BodyArmsUp, armsUp},
	{BodyTPose, tPose},
	{BodyArmRaised, armRaised},
	{BodyStanding, standing},
}

// ClassifyArms labels the arm-only view of a body.
func ClassifyArms(arms landmark.JointSet) BodyPose {
	return evaluate(armRules, arms, BodyUnsure)
}

// ClassifyFullBody labels the full-body view of a body.
func ClassifyFullBody(full landmark.JointSet) BodyPose {
	return evaluate(bodyRules, full, BodyUnsure)
}

// ClassifyBody labels one body instance from its two filtered views. The
// full-body result replaces the arm result whenever the full view has any
// joints.
func ClassifyBody(arms, full landmark.JointSet) BodyPose {
	label := ClassifyArms(arms)
	if len(full) > 0 {
		label = ClassifyFullBody(full)
	}
	return label
}
