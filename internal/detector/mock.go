package detector

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// mockResult is one scripted Detect outcome.
type mockResult struct {
	boxes []BoundingBox
	err   error
}

// MockDetector is a test implementation of the Detector interface. Detect
// outcomes are scripted in order; the last scripted outcome repeats once
// the script is exhausted. With no script, Detect returns no faces.
type MockDetector struct {
	mu       sync.Mutex
	script   []mockResult
	calls    int
	loadErr  error
	loaded   bool
	closed   bool
	delay    time.Duration
	inflight int
	maxInfl  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// QueueBoxes appends a successful outcome returning the given boxes.
func (m *MockDetector) QueueBoxes(boxes ...BoundingBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockResult{boxes: boxes})
}

// QueueEmpty appends a successful outcome with no faces.
func (m *MockDetector) QueueEmpty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockResult{})
}

// QueueError appends a failing outcome.
func (m *MockDetector) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockResult{err: err})
}

// SetLoadError makes Load fail with err.
func (m *MockDetector) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetDelay makes each Detect call block for d before resolving.
func (m *MockDetector) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MaxInflight returns the highest number of Detect calls that were ever in
// flight at once. A serialized caller keeps this at 1.
func (m *MockDetector) MaxInflight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInfl
}

// Loaded reports whether Load succeeded.
func (m *MockDetector) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Load returns the configured load error, if any.
func (m *MockDetector) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

// Detect consumes the next scripted outcome.
func (m *MockDetector) Detect(frame *gocv.Mat, mirror bool) ([]BoundingBox, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.inflight++
	if m.inflight > m.maxInfl {
		m.maxInfl = m.inflight
	}
	delay := m.delay

	var result mockResult
	if len(m.script) > 0 {
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		result = m.script[idx]
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()

	return result.boxes, result.err
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
