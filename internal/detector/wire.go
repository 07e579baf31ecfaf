package detector

import (
	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
)

// Wire format of the landmark service. Coordinates are image-normalized:
// x grows to the right and y grows downward.

type jsonPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPose struct {
	Points []jsonPoint `json:"points"`
}

type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Pose  *jsonPose  `json:"pose"`
	Error string     `json:"error,omitempty"`
}

// toDetectorSpace converts image coordinates so that geometry.Orient maps
// them back to the image.
func toDetectorSpace(p jsonPoint) geometry.Point {
	return geometry.Point{X: 1 - p.Y, Y: 1 - p.X}
}

// Hand points arrive in MediaPipe order, which matches landmark.Wrist..PinkyTip.
// Per-joint confidence is the hand's detection score.
func (h jsonHand) toJointSet() landmark.JointSet {
	s := make(landmark.JointSet, landmark.NumHandJoints)
	for i := 0; i < landmark.NumHandJoints && i < len(h.Points); i++ {
		n := landmark.Name(i)
		s[n] = landmark.Joint{Name: n, Position: toDetectorSpace(h.Points[i]), Confidence: h.Score}
	}
	return s
}

// MediaPipe pose landmark indices.
var poseIndex = map[landmark.Name]int{
	landmark.Nose:          0,
	landmark.LeftEye:       2,
	landmark.RightEye:      5,
	landmark.LeftEar:       7,
	landmark.RightEar:      8,
	landmark.LeftShoulder:  11,
	landmark.RightShoulder: 12,
	landmark.LeftElbow:     13,
	landmark.RightElbow:    14,
	landmark.LeftWrist:     15,
	landmark.RightWrist:    16,
	landmark.LeftHip:       23,
	landmark.RightHip:      24,
	landmark.LeftKnee:      25,
	landmark.RightKnee:     26,
	landmark.LeftAnkle:     27,
	landmark.RightAnkle:    28,
}

// midpoint is a joint MediaPipe does not report, synthesized halfway
// between a left/right pair at the weaker of their confidences.
type midpoint struct {
	name        landmark.Name
	left, right landmark.Name
}

var synthesized = []midpoint{
	{landmark.Neck, landmark.LeftShoulder, landmark.RightShoulder},
	{landmark.Root, landmark.LeftHip, landmark.RightHip},
}

func visibility(p jsonPoint) float64 {
	if p.Visibility == nil {
		return 1
	}
	return *p.Visibility
}

func (p *jsonPose) toJointSet() landmark.JointSet {
	if p == nil || len(p.Points) == 0 {
		return nil
	}
	s := make(landmark.JointSet, landmark.NumBodyJoints)
	for n, i := range poseIndex {
		if i >= len(p.Points) {
			continue
		}
		s[n] = landmark.Joint{Name: n, Position: toDetectorSpace(p.Points[i]), Confidence: visibility(p.Points[i])}
	}
	for _, m := range synthesized {
		l, okL := s[m.left]
		r, okR := s[m.right]
		if !okL || !okR {
			continue
		}
		s[m.name] = landmark.Joint{
			Name: m.name,
			Position: geometry.Point{
				X: (l.Position.X + r.Position.X) / 2,
				Y: (l.Position.Y + r.Position.Y) / 2,
			},
			Confidence: min(l.Confidence, r.Confidence),
		}
	}
	return s
}

func (r jsonResponse) toObservation(maxHands int) Observation {
	var obs Observation
	for i, h := range r.Hands {
		if maxHands > 0 && i >= maxHands {
			break
		}
		obs.Hands = append(obs.Hands, h.toJointSet())
	}
	obs.Body = r.Pose.toJointSet()
	return obs
}
