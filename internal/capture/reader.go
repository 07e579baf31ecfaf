package capture

import (
	"context"
	"time"
)

// Reader pulls frames from a camera on demand, one per Next call, and never
// drops any. It suits recorded video where the pipeline sets the pace.
type Reader struct {
	camera Camera
	seq    uint64
	now    func() time.Time
}

// NewReader creates a Reader over an opened camera.
func NewReader(camera Camera) *Reader {
	return &Reader{camera: camera, now: time.Now}
}

// Next reads the next frame. It returns io.EOF when a video file ends.
func (r *Reader) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	mat, err := r.camera.ReadFrame()
	if err != nil {
		return Frame{}, err
	}
	r.seq++
	return Frame{Seq: r.seq, Timestamp: r.now(), Image: mat}, nil
}
