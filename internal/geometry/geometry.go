// Package geometry converts detector-space landmark coordinates into display space.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidViewport is returned when a viewport cannot project points.
var ErrInvalidViewport = errors.New("invalid viewport")

// Point is a 2D point. In detector space both axes are normalized to [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Orient flips both axes of a detector point. The detector reports rows and
// columns swapped relative to the display, so its (x, y) becomes (1-y, 1-x).
// The result is still normalized, with y growing downward on screen.
func Orient(p Point) Point {
	return Point{X: 1 - p.Y, Y: 1 - p.X}
}

// Viewport projects an oriented, normalized point onto display coordinates.
type Viewport interface {
	Project(p Point) Point
	Validate() error
}

// Map converts a detector-space point into display space: orientation flip
// first, then the viewport projection.
func Map(p Point, vp Viewport) Point {
	return vp.Project(Orient(p))
}

// MapAll maps every point in order.
func MapAll(points []Point, vp Viewport) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Map(p, vp)
	}
	return out
}

// Rect stretches the unit square over a rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Project implements Viewport.
func (r Rect) Project(p Point) Point {
	return Point{
		X: r.X + p.X*r.Width,
		Y: r.Y + p.Y*r.Height,
	}
}

// Validate implements Viewport.
func (r Rect) Validate() error {
	if !finite(r.X, r.Y, r.Width, r.Height) {
		return fmt.Errorf("%w: non-finite rect %+v", ErrInvalidViewport, r)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: rect size %gx%g must be positive", ErrInvalidViewport, r.Width, r.Height)
	}
	return nil
}

// AspectFill projects the way a preview layer with aspect-fill gravity does:
// the source image is scaled to cover the whole layer and the overflow is
// cropped evenly on both sides.
type AspectFill struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// SourceAspect is the displayed source width divided by its height.
	SourceAspect float64 `json:"source_aspect"`
}

// Project implements Viewport.
func (a AspectFill) Project(p Point) Point {
	layerAspect := a.Width / a.Height
	w, h := a.Width, a.Height
	if a.SourceAspect > layerAspect {
		// Source is wider: match heights, crop left and right.
		w = a.Height * a.SourceAspect
	} else {
		h = a.Width / a.SourceAspect
	}
	offX := (a.Width - w) / 2
	offY := (a.Height - h) / 2
	return Point{
		X: offX + p.X*w,
		Y: offY + p.Y*h,
	}
}

// Validate implements Viewport.
func (a AspectFill) Validate() error {
	if !finite(a.Width, a.Height, a.SourceAspect) {
		return fmt.Errorf("%w: non-finite aspect fill %+v", ErrInvalidViewport, a)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("%w: layer size %gx%g must be positive", ErrInvalidViewport, a.Width, a.Height)
	}
	if a.SourceAspect <= 0 {
		return fmt.Errorf("%w: source aspect %g must be positive", ErrInvalidViewport, a.SourceAspect)
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
