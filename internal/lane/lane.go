// Package lane runs closures one at a time on a dedicated goroutine, the
// single place where consumer callbacks execute.
package lane

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Sync after Close.
var ErrClosed = errors.New("lane closed")

type job struct {
	fn   func()
	done chan struct{}
}

// Lane serializes work onto one goroutine.
type Lane struct {
	jobs    chan job
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts a lane.
func New() *Lane {
	l := &Lane{
		jobs:    make(chan job),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *Lane) loop() {
	defer close(l.stopped)
	for {
		select {
		case j := <-l.jobs:
			j.fn()
			close(j.done)
		case <-l.quit:
			return
		}
	}
}

// Sync runs fn on the lane and waits for it to return. Calls from different
// goroutines run in the order the lane accepts them. If ctx ends before the
// lane accepts fn, fn never runs and ctx's error is returned; once accepted,
// Sync waits for fn regardless of ctx.
func (l *Lane) Sync(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case l.jobs <- j:
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-j.done
	return nil
}

// Close stops the lane after any running closure finishes. Later Sync calls
// return ErrClosed.
func (l *Lane) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.stopped
}
