package session

import (
	"fmt"
	"time"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/overlay"
)

// run is the tracking loop. It ticks at the configured cadence until the
// stop channel closes or a tick reports a fatal condition.
//
// Per tick:
//  1. An unreadable frame source is fatal; the loop stops.
//  2. The detector runs on the current frame. The loop body blocks on the
//     call, so at most one detection is ever in flight and placements are
//     published in tick order.
//  3. One or more faces: the first box is mapped and published.
//  4. No faces: the previous geometry is re-published hidden.
//  5. A detector error is fatal; the session fails and no tick follows.
//  6. Every non-fatal outcome reschedules unconditionally.
func (s *Session) run(stopCh chan struct{}) {
	interval := time.Second / time.Duration(s.config.FPS)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.tick(stopCh) {
				return
			}
		}
	}
}

// tick runs one detect-map-publish iteration. It returns false when the
// loop must stop.
func (s *Session) tick(stopCh chan struct{}) bool {
	// A ticker value may already be queued when Stop closes the channel;
	// the select in run then picks either case. A cancelled tick must not
	// run at all, or it would observe the source Stop just disposed and
	// mistake the stop for a fault.
	select {
	case <-stopCh:
		return false
	default:
	}

	source := s.config.Source

	if !source.IsOpen() {
		s.fail("frame source is no longer readable")
		return false
	}

	frame, err := source.ReadFrame()
	if err != nil {
		s.fail(fmt.Sprintf("read frame: %v", err))
		return false
	}

	boxes, detectErr := s.config.Detector.Detect(frame, s.config.Mirror)
	if frame != nil {
		frame.Close()
	}

	// A stop that raced the in-flight detect wins: nothing is published
	// once the loop is stopped.
	select {
	case <-stopCh:
		return false
	default:
	}

	if detectErr != nil {
		s.fail(fmt.Sprintf("face detection failed: %v", detectErr))
		return false
	}

	if len(boxes) == 0 {
		s.publishHidden()
		return true
	}

	nativeW, nativeH := source.NativeSize()
	if nativeW == 0 || nativeH == 0 {
		// Scale factors would be undefined; never reach the mapper.
		s.publishHidden()
		return true
	}

	displayW, displayH := s.displaySize(nativeW, nativeH)
	if displayW == 0 || displayH == 0 {
		s.publishHidden()
		return true
	}

	scaleX := float64(displayW) / float64(nativeW)
	scaleY := float64(displayH) / float64(nativeH)

	s.publish(mapFirst(boxes, scaleX, scaleY, s.config.WidthFactor, s.config.TiltDeg))
	return true
}

// mapFirst maps index 0 of the detector's list. There is no scoring or
// ranking; later boxes are ignored.
func mapFirst(boxes []detector.BoundingBox, scaleX, scaleY, widthFactor, tiltDeg float64) overlay.Placement {
	return overlay.Map(boxes[0], scaleX, scaleY, widthFactor, tiltDeg)
}
