// Package overlay converts detected face regions into hat placement geometry.
package overlay

import "github.com/mrngovancuong-cyber/AI-birthday-hat/internal/detector"

// Default hat geometry.
const (
	// DefaultWidthFactor enlarges the hat beyond the detected face width.
	DefaultWidthFactor = 1.5
	// DefaultTiltDeg is the fixed tilt applied to every placement.
	DefaultTiltDeg = -15.0
)

// Placement describes where the hat is rendered, in display pixels.
// When Visible is false the geometry fields are inert leftovers from the
// last visible placement.
type Placement struct {
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	RotationDeg float64 `json:"rotationDeg"`
	Visible     bool    `json:"visible"`
}

// Map converts a bounding box in native-frame pixels into a hat placement in
// display pixels. scaleX and scaleY are displayWidth/nativeWidth and
// displayHeight/nativeHeight; callers must not call Map with zero native
// dimensions. Left is the horizontal center of the box (the hat anchors at
// its own midpoint), Top is the top edge (the hat sits above the head), and
// the hat is square: height equals the widened width.
func Map(box detector.BoundingBox, scaleX, scaleY, widthFactor, tiltDeg float64) Placement {
	width := box.Width * scaleX * widthFactor
	return Placement{
		Left:        (box.XMin + box.Width/2) * scaleX,
		Top:         box.YMin * scaleY,
		Width:       width,
		Height:      width,
		RotationDeg: tiltDeg,
		Visible:     true,
	}
}

// Hidden returns prev with Visible forced off. Geometry fields are kept so
// the presentation layer can fade out in place.
func Hidden(prev Placement) Placement {
	prev.Visible = false
	return prev
}
