// Package testdata provides shared detection fixtures for tests.
package testdata

import "github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"

// CenteredFace is a face box roughly centered in a 1280x720 frame.
func CenteredFace() detector.BoundingBox {
	return detector.BoundingBox{XMin: 540, YMin: 260, Width: 200, Height: 200}
}

// OffsetFace is the reference box used by the scaling scenario: a 200x200
// face at (100, 50) in a 1280x720 frame.
func OffsetFace() detector.BoundingBox {
	return detector.BoundingBox{XMin: 100, YMin: 50, Width: 200, Height: 200}
}

// SecondFace is a distinct box used to prove that only the first detection
// drives the overlay.
func SecondFace() detector.BoundingBox {
	return detector.BoundingBox{XMin: 900, YMin: 400, Width: 120, Height: 120}
}
