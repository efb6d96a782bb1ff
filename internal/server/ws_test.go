package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/capture"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/session"
)

func dialOverlay(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/overlay"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOverlayHandler_SendsSnapshotOnConnect(t *testing.T) {
	sess := session.New(session.Config{
		Source:   capture.NewMockSource(1280, 720),
		Detector: detector.NewMockDetector(),
	})

	srv := New(Config{Session: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialOverlay(t, ts)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update session.Update
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	if update.State != session.StateIdle {
		t.Errorf("snapshot state = %s, want %s", update.State, session.StateIdle)
	}
	if update.Placement.Visible {
		t.Error("snapshot placement visible before tracking")
	}
}

func TestOverlayHandler_BroadcastsTicks(t *testing.T) {
	source := capture.NewMockSource(1280, 720)
	det := detector.NewMockDetector()
	det.QueueBoxes(detector.BoundingBox{XMin: 100, YMin: 50, Width: 200, Height: 200})

	sess := session.New(session.Config{
		Source:      source,
		Detector:    det,
		FPS:         100,
		WidthFactor: 1.5,
		TiltDeg:     -15,
	})

	srv := New(Config{Session: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialOverlay(t, ts)

	if err := sess.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := sess.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sess.Stop()

	// Read until a tracking tick with a visible placement arrives
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var update session.Update
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if update.State == session.StateTracking && update.Placement.Visible {
			if update.Placement.Left != 200 {
				t.Errorf("Left = %v, want 200 at native scale", update.Placement.Left)
			}
			return
		}
	}
}

func TestOverlayHandler_DisplaySizeReport(t *testing.T) {
	sess := session.New(session.Config{
		Source:   capture.NewMockSource(1280, 720),
		Detector: detector.NewMockDetector(),
	})

	srv := New(Config{Session: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialOverlay(t, ts)

	msg := `{"displayWidth": 640, "displayHeight": 360}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write display report: %v", err)
	}

	// The report lands asynchronously in the session
	deadline := time.Now().Add(2 * time.Second)
	for {
		w, h := sess.DisplaySize()
		if w == 640 && h == 360 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("display size = %dx%d, want 640x360", w, h)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOverlayHandler_ClientCount(t *testing.T) {
	sess := session.New(session.Config{
		Source:   capture.NewMockSource(640, 480),
		Detector: detector.NewMockDetector(),
	})

	srv := New(Config{Session: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	if got := srv.Overlay().ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}

	conn := dialOverlay(t, ts)
	_ = conn

	deadline := time.Now().Add(2 * time.Second)
	for srv.Overlay().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want 1", srv.Overlay().ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
