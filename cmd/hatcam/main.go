package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/capture"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/server"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/session"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/store"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/tray"
)

// acquireTimeout bounds how long startup waits for the camera to produce
// its first frame.
const acquireTimeout = 10 * time.Second

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	backend := flag.String("backend", detector.BackendHaar, "detection backend (haar or mediapipe)")
	fps := flag.Int("fps", session.DefaultFPS, "tracking loop frames per second")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("AI Birthday Hat - face tracking overlay")

	// Initialize the hat catalog
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".hatcam")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "hatcam.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if err := seedDefaultHat(st); err != nil {
		log.Fatalf("Failed to seed hat catalog: %v", err)
	}

	// Build the session collaborators
	detectorConfig := detector.DefaultConfig()
	detectorConfig.Backend = *backend

	source := capture.NewSource(*cameraID)
	sess := session.New(session.Config{
		Source:   source,
		Detector: detector.New(detectorConfig),
		FPS:      *fps,
	})

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Source:    source,
		Session:   sess,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Bring the camera and detector online, then start tracking. A startup
	// failure leaves the session Failed; the server stays up so the page
	// can show the reason.
	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	if err := sess.Init(ctx); err != nil {
		log.Printf("Session startup failed: %v", err)
	} else if err := sess.Start(); err != nil {
		log.Printf("Tracking start failed: %v", err)
	}

	if *headless {
		waitForSignal()
		sess.Stop()
		return
	}

	runTray(sess)
	sess.Stop()
}

// runTray blocks inside the system tray loop until quit.
func runTray(sess *session.Session) {
	t := tray.New()
	state, _ := sess.State()
	t.SetTracking(state == session.StateTracking)
	t.SetStatus(state.String())

	t.OnToggle(func(tracking bool) {
		if tracking {
			if err := sess.Start(); err != nil {
				log.Printf("Cannot resume tracking: %v", err)
				t.SetTracking(false)
			}
		} else {
			sess.Stop()
		}
		state, reason := sess.State()
		status := state.String()
		if reason != "" {
			status = status + ": " + reason
		}
		t.SetStatus(status)
	})
	t.OnQuit(func() {
		sess.Stop()
	})

	t.Run()
}

// seedDefaultHat makes sure a fresh install has one hat to render.
func seedDefaultHat(st *store.Store) error {
	if _, err := st.Hats().GetByName("party-hat"); err == nil {
		return nil
	}

	hat := &store.Hat{
		ID:          uuid.NewString(),
		Name:        "party-hat",
		ImageURL:    "https://raw.githubusercontent.com/mrngovancuong-cyber/AI-birthday-hat/main/assets/hat.png",
		WidthFactor: 1.5,
		TiltDeg:     -15,
	}
	if err := st.Hats().Create(hat); err != nil {
		return err
	}
	return st.Settings().Set(store.SettingActiveHat, hat.ID)
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("Shutting down")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.hatcam/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".hatcam", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
