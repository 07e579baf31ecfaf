// Package landmark defines joints, joint sets and confidence filtering.
//
// Positions are in detector space: normalized to [0,1] with rows and columns
// swapped relative to the display (see geometry.Orient).
package landmark

import (
	"sort"

	"github.com/ayusman/aronvision/internal/geometry"
)

// Name identifies an anatomical joint.
type Name uint8

// Hand joints, following the MediaPipe hand landmark order.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist Name = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip

	numHandJoints = iota
)

// Body joints.
const (
	Nose Name = numHandJoints + iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	Neck
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	Root
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	numJoints = numHandJoints + iota
)

// NumHandJoints is the number of joints in one hand skeleton.
const NumHandJoints = int(numHandJoints)

// NumBodyJoints is the number of joints in one body skeleton.
const NumBodyJoints = int(numJoints - numHandJoints)

var names = [numJoints]string{
	"wrist", "thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip",
	"index_mcp", "index_pip", "index_dip", "index_tip",
	"middle_mcp", "middle_pip", "middle_dip", "middle_tip",
	"ring_mcp", "ring_pip", "ring_dip", "ring_tip",
	"pinky_mcp", "pinky_pip", "pinky_dip", "pinky_tip",
	"nose", "left_eye", "right_eye", "left_ear", "right_ear", "neck",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "root", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

func (n Name) String() string {
	if n >= numJoints {
		return "unknown"
	}
	return names[n]
}

// Fingertips lists the five fingertip joints, thumb first.
var Fingertips = [5]Name{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Joint is one detected landmark.
type Joint struct {
	Name       Name           `json:"name"`
	Position   geometry.Point `json:"position"`
	Confidence float64        `json:"confidence"`
}

// JointSet holds the joints of one detected instance keyed by name.
type JointSet map[Name]Joint

// NewJointSet builds a set from joints. Later duplicates replace earlier ones.
func NewJointSet(joints ...Joint) JointSet {
	s := make(JointSet, len(joints))
	for _, j := range joints {
		s[j.Name] = j
	}
	return s
}

// Point returns the position of a joint and whether it is present.
func (s JointSet) Point(n Name) (geometry.Point, bool) {
	j, ok := s[n]
	return j.Position, ok
}

// Has reports whether every named joint is present.
func (s JointSet) Has(ns ...Name) bool {
	for _, n := range ns {
		if _, ok := s[n]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the joints ordered by name, so callers get a stable order
// out of the map.
func (s JointSet) Sorted() []Joint {
	out := make([]Joint, 0, len(s))
	for _, j := range s {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Points returns the positions of the joints in name order.
func (s JointSet) Points() []geometry.Point {
	sorted := s.Sorted()
	out := make([]geometry.Point, len(sorted))
	for i, j := range sorted {
		out[i] = j.Position
	}
	return out
}
