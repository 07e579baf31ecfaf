package lane

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLane_RunsOnOneGoroutineInOrder(t *testing.T) {
	l := New()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if err := l.Sync(context.Background(), func() { got = append(got, i) }); err != nil {
			t.Fatalf("Sync(%d) = %v", i, err)
		}
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d ran %d", i, v)
		}
	}
}

func TestLane_SyncWaitsForCompletion(t *testing.T) {
	l := New()
	defer l.Close()

	ran := false
	if err := l.Sync(context.Background(), func() {
		time.Sleep(20 * time.Millisecond)
		ran = true
	}); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("Sync returned before the closure finished")
	}
}

func TestLane_NoOverlap(t *testing.T) {
	l := New()
	defer l.Close()

	var mu sync.Mutex
	running, maxRunning := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Sync(context.Background(), func() {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if maxRunning != 1 {
		t.Errorf("closures overlapped: max %d at once", maxRunning)
	}
}

func TestLane_Closed(t *testing.T) {
	l := New()
	l.Close()
	l.Close()

	called := false
	err := l.Sync(context.Background(), func() { called = true })
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Sync after Close = %v, want ErrClosed", err)
	}
	if called {
		t.Error("closure ran on a closed lane")
	}
}

func TestLane_ContextCancelledBeforeAccept(t *testing.T) {
	l := New()
	defer l.Close()

	release := make(chan struct{})
	go func() {
		_ = l.Sync(context.Background(), func() { <-release })
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := l.Sync(ctx, func() { called = true })
	close(release)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Sync = %v, want DeadlineExceeded", err)
	}
	if called {
		t.Error("closure ran after its context expired")
	}
}
