// Package detector provides face detection interfaces and backends for the
// hat overlay pipeline.
package detector

import (
	"context"

	"gocv.io/x/gocv"
)

// BoundingBox is an axis-aligned face region in native-frame pixels.
// Boxes are produced fresh on every detection call and discarded after
// mapping.
type BoundingBox struct {
	XMin   float64 `json:"xMin"`
	YMin   float64 `json:"yMin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Load performs one-time backend selection and warm-up. It may take
	// seconds and must be called before Detect.
	Load(ctx context.Context) error

	// Detect analyzes a video frame and returns detected face regions in
	// native-frame pixels. When mirror is true the frame is flipped
	// horizontally before detection. An empty slice means no face was
	// found; it is a normal outcome, not an error. An error indicates an
	// engine-internal fault and is fatal to the session.
	Detect(frame *gocv.Mat, mirror bool) ([]BoundingBox, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Backend names accepted in Config.
const (
	BackendHaar      = "haar"
	BackendMediaPipe = "mediapipe"
)

// Config holds configuration options for face detection.
type Config struct {
	// Backend selects the detection engine ("haar" or "mediapipe").
	Backend string

	// ModelPath is the cascade file for the haar backend. Empty means
	// search the usual locations.
	ModelPath string

	// ScaleFactor is the haar pyramid scale step (> 1.0).
	ScaleFactor float64

	// MinNeighbors is the haar rectangle-grouping threshold.
	MinNeighbors int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendHaar,
		ScaleFactor:  1.1,
		MinNeighbors: 4,
	}
}

// New creates the detector selected by config.Backend. The returned
// detector still needs Load before its first Detect call.
func New(config Config) Detector {
	if config.Backend == BackendMediaPipe {
		return NewMediaPipeDetector(config)
	}
	return NewHaarDetector(config)
}
