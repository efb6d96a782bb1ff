package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded frames for testing. Acquisition can be
// made to fail with a scripted reason, and reads after Dispose fail the way
// a released device does.
type MockSource struct {
	frames     []*gocv.Mat
	index      int
	loop       bool
	mu         sync.Mutex
	open       bool
	nativeW    int
	nativeH    int
	acquireErr *AcquisitionError
	disposals  int
}

// NewMockSource creates a mock source reporting the given native size.
func NewMockSource(nativeW, nativeH int) *MockSource {
	return &MockSource{
		nativeW: nativeW,
		nativeH: nativeH,
		loop:    true,
	}
}

// SetFrames replaces the frame sequence.
func (s *MockSource) SetFrames(frames []*gocv.Mat, loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.loop = loop
	s.index = 0
}

// FailAcquire makes the next Acquire fail with the given reason.
func (s *MockSource) FailAcquire(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquireErr = &AcquisitionError{Reason: reason}
}

// Disposals returns how many times Dispose has been called.
func (s *MockSource) Disposals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposals
}

func (s *MockSource) Acquire(ctx context.Context, constraints Constraints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.open = true
	s.index = 0
	return nil
}

func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrSourceNotOpen
	}

	if len(s.frames) == 0 {
		// Dimension-only sources still satisfy readers that never touch
		// pixel data, like the mock detector.
		return nil, nil
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, fmt.Errorf("no more frames")
		}
		s.index = 0
	}

	frame := s.frames[s.index].Clone()
	s.index++

	return &frame, nil
}

func (s *MockSource) NativeSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, 0
	}
	return s.nativeW, s.nativeH
}

func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *MockSource) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposals++
	s.open = false
	return nil
}
