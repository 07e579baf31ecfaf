package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the MJPEG stream at about 15 frames per second.
const streamInterval = 66 * time.Millisecond

// Snapshotter provides the latest camera frame as JPEG.
type Snapshotter interface {
	Watch() (stop func())
	Latest() (jpeg []byte, seq uint64, ok bool)
}

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	preview Snapshotter
}

// NewStreamHandler creates a new StreamHandler over the given preview.
func NewStreamHandler(preview Snapshotter) *StreamHandler {
	return &StreamHandler{preview: preview}
}

// ServeHTTP streams MJPEG frames until the client goes away. A frame is
// written only when the preview has moved on since the last one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stop := h.preview.Watch()
	defer stop()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last uint64
	sent := false
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq, ok := h.preview.Latest()
		if !ok || (sent && seq == last) {
			continue
		}
		last, sent = seq, true

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
