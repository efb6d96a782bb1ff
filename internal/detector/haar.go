package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNotLoaded is returned by Detect when Load has not completed.
var ErrNotLoaded = errors.New("detector is not loaded")

// HaarDetector implements Detector using an OpenCV cascade classifier.
type HaarDetector struct {
	config     Config
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
	loaded     bool
}

// NewHaarDetector creates a haar cascade face detector. The cascade file is
// compiled by Load, not here.
func NewHaarDetector(config Config) *HaarDetector {
	if config.ScaleFactor <= 1.0 {
		config.ScaleFactor = 1.1
	}
	if config.MinNeighbors <= 0 {
		config.MinNeighbors = 4
	}
	return &HaarDetector{config: config}
}

// Load compiles the cascade file into a classifier.
func (d *HaarDetector) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	modelPath := d.config.ModelPath
	if modelPath == "" {
		modelPath = findCascadeFile()
	}
	if modelPath == "" {
		return errors.New("face cascade file not found")
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(modelPath) {
		classifier.Close()
		return fmt.Errorf("load cascade %s failed", modelPath)
	}

	d.classifier = classifier
	d.loaded = true
	return nil
}

// Detect runs the cascade over the frame and returns face boxes in frame
// pixels.
func (d *HaarDetector) Detect(frame *gocv.Mat, mirror bool) ([]BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		return nil, ErrNotLoaded
	}
	if frame == nil || frame.Empty() {
		return nil, errors.New("detect on empty frame")
	}

	input := *frame
	if mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(*frame, &flipped, 1)
		input = flipped
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		input,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,
		image.Pt(0, 0), image.Pt(0, 0),
	)

	boxes := make([]BoundingBox, len(rects))
	for i, r := range rects {
		boxes[i] = BoundingBox{
			XMin:   float64(r.Min.X),
			YMin:   float64(r.Min.Y),
			Width:  float64(r.Dx()),
			Height: float64(r.Dy()),
		}
	}
	return boxes, nil
}

// Close releases the classifier.
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		return nil
	}
	d.loaded = false
	return d.classifier.Close()
}

func findCascadeFile() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"models/haarcascade_frontalface_default.xml",
		"../models/haarcascade_frontalface_default.xml",
		filepath.Join(execDir, "models/haarcascade_frontalface_default.xml"),
		filepath.Join(os.Getenv("HOME"), ".hatcam/models/haarcascade_frontalface_default.xml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
