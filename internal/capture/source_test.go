package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		deviceID int
	}{
		{name: "default device", deviceID: 0},
		{name: "device 1", deviceID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(tt.deviceID)

			if src == nil {
				t.Fatal("NewSource returned nil")
			}

			if src.IsOpen() {
				t.Error("source should not be open before Acquire")
			}

			w, h := src.NativeSize()
			if w != 0 || h != 0 {
				t.Errorf("NativeSize() = %dx%d before Acquire, want 0x0", w, h)
			}
		})
	}
}

func TestSource_ReadBeforeAcquire(t *testing.T) {
	src := NewSource(0)

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrSourceNotOpen", err)
	}
}

func TestSource_DisposeIdempotent(t *testing.T) {
	src := NewSource(0)

	// Dispose is safe from any state, including never-acquired,
	// and safe to call repeatedly.
	for i := 0; i < 3; i++ {
		if err := src.Dispose(); err != nil {
			t.Errorf("Dispose() call %d error = %v", i+1, err)
		}
	}

	if src.IsOpen() {
		t.Error("source open after Dispose")
	}
}

func TestDefaultConstraints(t *testing.T) {
	c := DefaultConstraints()

	if c.Width != DefaultWidth || c.Height != DefaultHeight {
		t.Errorf("DefaultConstraints() = %dx%d, want %dx%d", c.Width, c.Height, DefaultWidth, DefaultHeight)
	}
	if !c.DisableAudio {
		t.Error("DefaultConstraints() should disable audio")
	}
}

func TestAcquisitionError(t *testing.T) {
	tests := []struct {
		name   string
		err    *AcquisitionError
		substr string
	}{
		{
			name:   "permission denied",
			err:    &AcquisitionError{Reason: ReasonPermissionDenied},
			substr: "permission denied",
		},
		{
			name:   "no device",
			err:    &AcquisitionError{Reason: ReasonNoDevice},
			substr: "no device",
		},
		{
			name:   "busy with cause",
			err:    &AcquisitionError{Reason: ReasonBusy, Err: context.DeadlineExceeded},
			substr: "device busy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			if msg == "" {
				t.Fatal("empty error message")
			}
			if !strings.Contains(msg, tt.substr) {
				t.Errorf("Error() = %q, want it to mention %q", msg, tt.substr)
			}
		})
	}
}

func TestAcquisitionError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&AcquisitionError{Reason: ReasonBusy, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatal("errors.As failed to find AcquisitionError")
	}
	if acqErr.Reason != ReasonBusy {
		t.Errorf("Reason = %v, want %v", acqErr.Reason, ReasonBusy)
	}
}

func TestMockSource_AcquireAndDispose(t *testing.T) {
	src := NewMockSource(1280, 720)

	if err := src.Acquire(context.Background(), DefaultConstraints()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if !src.IsOpen() {
		t.Error("source should be open after Acquire")
	}

	w, h := src.NativeSize()
	if w != 1280 || h != 720 {
		t.Errorf("NativeSize() = %dx%d, want 1280x720", w, h)
	}

	src.Dispose()
	src.Dispose()

	if src.IsOpen() {
		t.Error("source open after Dispose")
	}
	if got := src.Disposals(); got != 2 {
		t.Errorf("Disposals() = %d, want 2", got)
	}
	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() after Dispose error = %v, want ErrSourceNotOpen", err)
	}
}

func TestMockSource_FailAcquire(t *testing.T) {
	src := NewMockSource(1280, 720)
	src.FailAcquire(ReasonPermissionDenied)

	err := src.Acquire(context.Background(), DefaultConstraints())
	if err == nil {
		t.Fatal("Acquire() should fail")
	}

	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("Acquire() error = %T, want *AcquisitionError", err)
	}
	if acqErr.Reason != ReasonPermissionDenied {
		t.Errorf("Reason = %v, want %v", acqErr.Reason, ReasonPermissionDenied)
	}
	if src.IsOpen() {
		t.Error("source open after failed Acquire")
	}
}
