package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Preview keeps the most recent frame as JPEG for stream viewers. Frames are
// only encoded while at least one viewer is watching.
type Preview struct {
	viewers atomic.Int32

	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewPreview returns an empty preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Watch registers a viewer. The returned function unregisters it.
func (p *Preview) Watch() (stop func()) {
	p.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { p.viewers.Add(-1) })
	}
}

// Watching reports whether any viewer is registered.
func (p *Preview) Watching() bool {
	return p.viewers.Load() > 0
}

// Publish encodes the frame when someone is watching. The frame is not
// retained.
func (p *Preview) Publish(f Frame) error {
	if !p.Watching() || f.Image == nil || f.Image.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(".jpg", *f.Image)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	p.mu.Lock()
	p.jpeg = data
	p.seq = f.Seq
	p.mu.Unlock()
	return nil
}

// Latest returns the last encoded JPEG and the sequence number of its frame.
// ok is false before the first frame was encoded.
func (p *Preview) Latest() (jpeg []byte, seq uint64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq, p.jpeg != nil
}
