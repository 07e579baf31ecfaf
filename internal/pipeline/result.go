package pipeline

import (
	"time"

	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/pose"
)

// HandFunc receives the mapped fingertip points of every hand in the frame
// and one pose per hand, in detector order.
type HandFunc func(points []geometry.Point, poses []pose.HandPose)

// BodyFunc receives the mapped full-body points and the body pose.
type BodyFunc func(points []geometry.Point, pose pose.BodyPose)

// ResultFunc receives the complete result of a frame.
type ResultFunc func(FrameResult)

// HandResult is one classified hand.
type HandResult struct {
	Pose   pose.HandPose    `json:"pose"`
	Points []geometry.Point `json:"points"`
}

// BodyResult is the classified body. Pose is unsure and Points empty when
// no body was detected.
type BodyResult struct {
	Pose   pose.BodyPose    `json:"pose"`
	Points []geometry.Point `json:"points"`
}

// FrameResult is everything the pipeline derived from one frame.
type FrameResult struct {
	Seq       uint64        `json:"seq"`
	Timestamp time.Time     `json:"timestamp"`
	Hands     []HandResult  `json:"hands"`
	Body      BodyResult    `json:"body"`
	Latency   time.Duration `json:"latency_ns"`
}

// HandPoints concatenates the points of every hand.
func (r FrameResult) HandPoints() []geometry.Point {
	points := []geometry.Point{}
	for _, h := range r.Hands {
		points = append(points, h.Points...)
	}
	return points
}

// HandPoses returns one pose per hand.
func (r FrameResult) HandPoses() []pose.HandPose {
	poses := make([]pose.HandPose, len(r.Hands))
	for i, h := range r.Hands {
		poses[i] = h.Pose
	}
	return poses
}
