package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakePreview struct {
	mu      sync.Mutex
	viewers int
	jpeg    []byte
	seq     uint64
}

func (p *fakePreview) Watch() func() {
	p.mu.Lock()
	p.viewers++
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.viewers--
		p.mu.Unlock()
	}
}

func (p *fakePreview) Latest() ([]byte, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq, p.jpeg != nil
}

func (p *fakePreview) Viewers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers
}

func TestStreamHandler_RejectsPost(t *testing.T) {
	h := NewStreamHandler(&fakePreview{})
	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestStreamHandler_StreamsFrames(t *testing.T) {
	preview := &fakePreview{jpeg: []byte{0xFF, 0xD8, 0xFF, 0xD9}, seq: 1}
	srv := httptest.NewServer(NewStreamHandler(preview))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if line != "--frame\r\n" {
		t.Errorf("expected frame boundary, got %q", line)
	}
	line, _ = r.ReadString('\n')
	if line != "Content-Type: image/jpeg\r\n" {
		t.Errorf("expected part Content-Type, got %q", line)
	}
	line, _ = r.ReadString('\n')
	if line != "Content-Length: 4\r\n" {
		t.Errorf("expected Content-Length 4, got %q", line)
	}

	if preview.Viewers() != 1 {
		t.Errorf("expected 1 viewer while streaming, got %d", preview.Viewers())
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for preview.Viewers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer was not released after the client left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
