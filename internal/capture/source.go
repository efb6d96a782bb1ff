// Package capture provides live camera acquisition using GoCV (OpenCV).
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default acquisition constraints.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// warmupInterval is the wait between metadata probes while the device
// spins up.
const warmupInterval = 50 * time.Millisecond

// ErrSourceNotOpen is returned when reading from a source that is not
// acquired or already disposed.
var ErrSourceNotOpen = errors.New("frame source is not open")

// Reason classifies why acquisition failed.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission denied"
	ReasonNoDevice         Reason = "no device"
	ReasonBusy             Reason = "device busy"
)

// AcquisitionError is the single failure type surfaced by Acquire. All
// platform-level causes collapse into it.
type AcquisitionError struct {
	Reason Reason
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acquire camera: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("acquire camera: %s", e.Reason)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Constraints is the desired native resolution hint plus the audio flag.
// Audio stays disabled in this system; the flag is part of the acquisition
// request shape.
type Constraints struct {
	Width        int
	Height       int
	DisableAudio bool
}

// DefaultConstraints returns the standard acquisition request.
func DefaultConstraints() Constraints {
	return Constraints{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		DisableAudio: true,
	}
}

// Source defines the interface for live frame sources. NativeSize is only
// valid after Acquire returns successfully; Dispose releases the underlying
// hardware and is safe to call more than once and from any state.
type Source interface {
	Acquire(ctx context.Context, constraints Constraints) error
	ReadFrame() (*gocv.Mat, error)
	NativeSize() (width, height int)
	IsOpen() bool
	Dispose() error
}

// webcamSource manages a camera device through GoCV.
type webcamSource struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	open     bool
	nativeW  int
	nativeH  int
}

// NewSource creates a Source for the given device ID.
func NewSource(deviceID int) Source {
	return &webcamSource{deviceID: deviceID}
}

// Acquire opens the device and waits until frame metadata is available, so
// the native dimensions are valid on return. Acquiring an already-open
// source is a no-op.
func (s *webcamSource) Acquire(ctx context.Context, constraints Constraints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(s.deviceID)
	if err != nil {
		return &AcquisitionError{Reason: ReasonNoDevice, Err: err}
	}

	if constraints.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
	}
	if constraints.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))
	}

	// Wait for the first non-empty frame; until then the reported
	// dimensions are not trustworthy.
	w, h, err := waitForMetadata(ctx, capture)
	if err != nil {
		capture.Close()
		return err
	}

	s.capture = capture
	s.nativeW = w
	s.nativeH = h
	s.open = true

	return nil
}

// waitForMetadata probes the device until it produces a real frame or the
// context expires. A device that opens but never produces frames is held by
// another process.
func waitForMetadata(ctx context.Context, capture *gocv.VideoCapture) (int, int, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, &AcquisitionError{Reason: ReasonBusy, Err: err}
		}

		if capture.Read(&mat) && !mat.Empty() {
			return mat.Cols(), mat.Rows(), nil
		}

		select {
		case <-ctx.Done():
			return 0, 0, &AcquisitionError{Reason: ReasonBusy, Err: ctx.Err()}
		case <-time.After(warmupInterval):
		}
	}
}

// ReadFrame reads a single frame from the device.
// The caller is responsible for closing the returned Mat.
func (s *webcamSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// NativeSize returns the intrinsic frame dimensions. Zero until Acquire
// has succeeded.
func (s *webcamSource) NativeSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeW, s.nativeH
}

// IsOpen returns true while the device is acquired and not disposed.
func (s *webcamSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Dispose releases the underlying device. Idempotent.
func (s *webcamSource) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || s.capture == nil {
		s.open = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.open = false

	return err
}
