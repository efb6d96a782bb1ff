package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/capture"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/session"
)

// StreamHandler serves an MJPEG preview of the camera. The preview runs at
// the same cadence as the tracking loop so the page never shows more frames
// than the detector sees.
type StreamHandler struct {
	source   capture.Source
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler reading from source at fps
// frames per second.
func NewStreamHandler(source capture.Source, fps int) *StreamHandler {
	if fps <= 0 {
		fps = session.DefaultFPS
	}
	return &StreamHandler{
		source:   source,
		interval: time.Second / time.Duration(fps),
	}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, err := h.source.ReadFrame()
		if err != nil || frame == nil {
			continue
		}

		buf, err := gocv.IMEncode(".jpg", *frame)
		frame.Close()
		if err != nil {
			continue
		}

		writeErr := writeMJPEGPart(w, buf.GetBytes())
		buf.Close()
		if writeErr != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// writeMJPEGPart writes one JPEG frame as a multipart section.
func writeMJPEGPart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
