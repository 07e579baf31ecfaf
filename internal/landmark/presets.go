package landmark

import "github.com/ayusman/aronvision/internal/geometry"

// Preset skeletons for mocks and tests. Coordinates are written upright
// (x to the right, y downward, as seen on screen) and stored in detector
// space, so geometry.Orient gives the written values back.

const presetConfidence = 0.9

func upright(n Name, x, y float64) Joint {
	return Joint{
		Name:       n,
		Position:   geometry.Point{X: 1 - y, Y: 1 - x},
		Confidence: presetConfidence,
	}
}

func extendedFinger(mcp, pip, dip, tip Name, x float64) []Joint {
	return []Joint{
		upright(mcp, x, 0.66),
		upright(pip, x, 0.55),
		upright(dip, x, 0.45),
		upright(tip, x, 0.35),
	}
}

func curledFinger(mcp, pip, dip, tip Name, x float64) []Joint {
	return []Joint{
		upright(mcp, x, 0.66),
		upright(pip, x, 0.58),
		upright(dip, x, 0.63),
		upright(tip, x, 0.70),
	}
}

func hand(thumbOut bool, idx, mid, rng, pnk bool) JointSet {
	joints := []Joint{upright(Wrist, 0.5, 0.8)}

	if thumbOut {
		joints = append(joints,
			upright(ThumbCMC, 0.56, 0.76),
			upright(ThumbMCP, 0.62, 0.72),
			upright(ThumbIP, 0.68, 0.68),
			upright(ThumbTip, 0.74, 0.64),
		)
	} else {
		joints = append(joints,
			upright(ThumbCMC, 0.56, 0.76),
			upright(ThumbMCP, 0.60, 0.72),
			upright(ThumbIP, 0.60, 0.68),
			upright(ThumbTip, 0.56, 0.66),
		)
	}

	fingers := []struct {
		out                bool
		mcp, pip, dip, tip Name
		x                  float64
	}{
		{idx, IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.56},
		{mid, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50},
		{rng, RingMCP, RingPIP, RingDIP, RingTip, 0.45},
		{pnk, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40},
	}
	for _, f := range fingers {
		if f.out {
			joints = append(joints, extendedFinger(f.mcp, f.pip, f.dip, f.tip, f.x)...)
		} else {
			joints = append(joints, curledFinger(f.mcp, f.pip, f.dip, f.tip, f.x)...)
		}
	}

	return NewJointSet(joints...)
}

// FistHand returns a closed fist with the thumb tucked over the fingers.
func FistHand() JointSet { return hand(false, false, false, false, false) }

// OpenPalmHand returns a flat hand with every finger extended.
func OpenPalmHand() JointSet { return hand(true, true, true, true, true) }

// PeaceHand returns index and middle fingers extended in a V.
func PeaceHand() JointSet { return hand(false, true, true, false, false) }

// PointHand returns only the index finger extended.
func PointHand() JointSet { return hand(false, true, false, false, false) }

// PinchHand returns the thumb tip touching a half-bent index finger.
func PinchHand() JointSet {
	s := hand(false, false, false, false, false)
	for _, j := range []Joint{
		upright(IndexPIP, 0.58, 0.58),
		upright(IndexDIP, 0.60, 0.54),
		upright(IndexTip, 0.62, 0.52),
		upright(ThumbTip, 0.60, 0.54),
	} {
		s[j.Name] = j
	}
	return s
}

type bodyLayout struct {
	lWrist, rWrist geometry.Point
	hipY, kneeY    float64
}

func body(l bodyLayout) JointSet {
	return NewJointSet(
		upright(Nose, 0.50, 0.15),
		upright(LeftEye, 0.53, 0.13),
		upright(RightEye, 0.47, 0.13),
		upright(LeftEar, 0.56, 0.14),
		upright(RightEar, 0.44, 0.14),
		upright(Neck, 0.50, 0.25),
		upright(LeftShoulder, 0.60, 0.27),
		upright(RightShoulder, 0.40, 0.27),
		upright(LeftElbow, (0.60+l.lWrist.X)/2, (0.27+l.lWrist.Y)/2),
		upright(RightElbow, (0.40+l.rWrist.X)/2, (0.27+l.rWrist.Y)/2),
		upright(LeftWrist, l.lWrist.X, l.lWrist.Y),
		upright(RightWrist, l.rWrist.X, l.rWrist.Y),
		upright(Root, 0.50, l.hipY),
		upright(LeftHip, 0.55, l.hipY),
		upright(RightHip, 0.45, l.hipY),
		upright(LeftKnee, 0.56, l.kneeY),
		upright(RightKnee, 0.44, l.kneeY),
		upright(LeftAnkle, 0.55, 0.88),
		upright(RightAnkle, 0.45, 0.88),
	)
}

var (
	armsDown = [2]geometry.Point{{X: 0.63, Y: 0.52}, {X: 0.37, Y: 0.52}}
	armsHigh = [2]geometry.Point{{X: 0.62, Y: 0.05}, {X: 0.38, Y: 0.05}}
)

// StandingBody returns an upright body with arms hanging.
func StandingBody() JointSet {
	return body(bodyLayout{lWrist: armsDown[0], rWrist: armsDown[1], hipY: 0.53, kneeY: 0.70})
}

// ArmsUpBody returns a standing body with both wrists above the head.
func ArmsUpBody() JointSet {
	return body(bodyLayout{lWrist: armsHigh[0], rWrist: armsHigh[1], hipY: 0.53, kneeY: 0.70})
}

// ArmRaisedBody returns a standing body with only the left wrist raised.
func ArmRaisedBody() JointSet {
	return body(bodyLayout{lWrist: armsHigh[0], rWrist: armsDown[1], hipY: 0.53, kneeY: 0.70})
}

// TPoseBody returns a standing body with both arms stretched sideways.
func TPoseBody() JointSet {
	return body(bodyLayout{
		lWrist: geometry.Point{X: 0.85, Y: 0.28},
		rWrist: geometry.Point{X: 0.15, Y: 0.28},
		hipY:   0.53,
		kneeY:  0.70,
	})
}

// SquatBody returns a body with hips dropped to knee height.
func SquatBody() JointSet {
	return body(bodyLayout{lWrist: armsDown[0], rWrist: armsDown[1], hipY: 0.65, kneeY: 0.68})
}

// WithConfidence returns a copy of s with every joint at conf.
func WithConfidence(s JointSet, conf float64) JointSet {
	out := make(JointSet, len(s))
	for n, j := range s {
		j.Confidence = conf
		out[n] = j
	}
	return out
}
