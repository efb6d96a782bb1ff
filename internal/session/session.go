// Package session governs the hat overlay lifecycle: camera acquisition,
// detector loading, and the tracking loop that publishes placements.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/capture"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/overlay"
)

// DefaultFPS is the tracking loop cadence.
const DefaultFPS = 15

// State is the session lifecycle state. Transitions are monotonic; Failed
// is terminal.
type State int

const (
	StateIdle State = iota
	StateAcquiringSource
	StateLoadingDetector
	StateReady
	StateTracking
	StateFailed
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringSource:
		return "acquiring_source"
	case StateLoadingDetector:
		return "loading_detector"
	case StateReady:
		return "ready"
	case StateTracking:
		return "tracking"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its wire name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// UnmarshalJSON decodes a wire name back into a state.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "idle":
		*s = StateIdle
	case "acquiring_source":
		*s = StateAcquiringSource
	case "loading_detector":
		*s = StateLoadingDetector
	case "ready":
		*s = StateReady
	case "tracking":
		*s = StateTracking
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown session state %q", name)
	}
	return nil
}

// Update is what the session emits on every state change and every tick.
type Update struct {
	State     State             `json:"state"`
	Reason    string            `json:"reason,omitempty"`
	Placement overlay.Placement `json:"placement"`
}

// Listener receives session updates. It is called from the session's own
// goroutine and must not block.
type Listener func(Update)

// Config holds the collaborators and tuning for a session.
type Config struct {
	Source      capture.Source
	Detector    detector.Detector
	Constraints capture.Constraints
	FPS         int
	WidthFactor float64
	TiltDeg     float64
	Mirror      bool
}

// Session owns the single placement value and the session state, and runs
// the tracking loop between Start and Stop.
type Session struct {
	id     string
	config Config

	mu        sync.Mutex
	state     State
	reason    string
	placement overlay.Placement
	displayW  int
	displayH  int
	listener  Listener
	stopCh    chan struct{}
	stopped   bool

	releaseOnce sync.Once
}

// New creates a session in the Idle state.
func New(config Config) *Session {
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.WidthFactor <= 1 {
		config.WidthFactor = overlay.DefaultWidthFactor
	}
	if config.TiltDeg == 0 {
		config.TiltDeg = overlay.DefaultTiltDeg
	}
	if config.Constraints == (capture.Constraints{}) {
		config.Constraints = capture.DefaultConstraints()
	}

	return &Session{
		id:     uuid.NewString(),
		config: config,
		state:  StateIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// FPS returns the tracking loop cadence.
func (s *Session) FPS() int {
	return s.config.FPS
}

// SetListener sets the update listener. Pass nil to detach.
func (s *Session) SetListener(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// State returns the current state and, when Failed, the captured reason.
func (s *Session) State() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.reason
}

// Placement returns the last published placement.
func (s *Session) Placement() overlay.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement
}

// SetDisplaySize records the rendered size reported by the presentation
// layer. Until the first report the display size defaults to the native
// frame size.
func (s *Session) SetDisplaySize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayW = width
	s.displayH = height
}

// DisplaySize returns the last reported display dimensions, zero until the
// presentation layer reports one.
func (s *Session) DisplaySize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayW, s.displayH
}

// displaySize returns the effective display dimensions given the native
// ones. Caller must not hold s.mu.
func (s *Session) displaySize(nativeW, nativeH int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.displayW == 0 || s.displayH == 0 {
		return nativeW, nativeH
	}
	return s.displayW, s.displayH
}

// Init brings the camera and the detector online:
// Idle -> AcquiringSource -> LoadingDetector -> Ready. Any failure moves
// the session to Failed, releases resources, and the loop never starts.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("init from state %s", state)
	}
	s.mu.Unlock()

	s.setState(StateAcquiringSource)
	if err := s.config.Source.Acquire(ctx, s.config.Constraints); err != nil {
		s.fail(err.Error())
		return err
	}

	s.setState(StateLoadingDetector)
	if err := s.config.Detector.Load(ctx); err != nil {
		s.fail(fmt.Sprintf("load detector: %v", err))
		return err
	}

	s.setState(StateReady)
	log.Printf("session %s ready", s.id)
	return nil
}

// Start begins tracking: Ready -> Tracking. Calling Start while already
// Tracking is a no-op. The returned error is non-nil only when the session
// is in a state the loop cannot start from.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTracking && s.stopCh != nil {
		return nil
	}
	if s.state != StateReady {
		return fmt.Errorf("start from state %s", s.state)
	}

	s.state = StateTracking
	s.stopCh = make(chan struct{})
	go s.run(s.stopCh)

	log.Printf("session %s tracking at %d fps", s.id, s.config.FPS)
	return nil
}

// Stop cancels any pending tick and releases the camera and detector
// exactly once. Idempotent; safe from any state. A detect call already in
// flight resolves without publishing, and a stopped session never moves to
// Failed: a user stop is not a fault.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()

	s.release()
}

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// setState records a non-failure transition and notifies the listener.
func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	update := Update{State: state, Placement: s.placement}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

// fail moves the session to the terminal Failed state, stops the loop, and
// releases resources. Later failures do not overwrite the first reason, and
// a session the user already stopped cannot fail: whatever the dying loop
// observes after Stop is a consequence of the stop, not a fault.
func (s *Session) fail(reason string) {
	s.mu.Lock()
	if s.state == StateFailed || s.stopped {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.reason = reason
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	update := Update{State: StateFailed, Reason: reason, Placement: s.placement}
	listener := s.listener
	s.mu.Unlock()

	log.Printf("session %s failed: %s", s.id, reason)
	s.release()

	if listener != nil {
		listener(update)
	}
}

// release disposes the source and closes the detector exactly once.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		if err := s.config.Source.Dispose(); err != nil {
			log.Printf("Error disposing frame source: %v", err)
		}
		if s.config.Detector != nil {
			if err := s.config.Detector.Close(); err != nil {
				log.Printf("Error closing detector: %v", err)
			}
		}
	})
}

// publish overwrites the placement value and notifies the listener. The
// stopped check happens under the same lock Stop takes, so a stop landing
// between the loop's detect and its publish suppresses the publish.
func (s *Session) publish(p overlay.Placement) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.placement = p
	update := Update{State: s.state, Reason: s.reason, Placement: p}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

// publishHidden re-publishes the previous geometry with Visible off.
func (s *Session) publishHidden() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	p := overlay.Hidden(s.placement)
	s.placement = p
	update := Update{State: s.state, Reason: s.reason, Placement: p}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}
