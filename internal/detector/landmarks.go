// Package detector provides hand landmark detection for incoming frames.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in MediaPipe's normalized image coordinates:
// X and Y in [0,1] relative to frame width and height, Z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Pixels converts the landmarks to pixel coordinates for a width x height
// frame. Coordinates are truncated and clamped to the frame bounds.
func (h *HandLandmarks) Pixels(width, height int) []image.Point {
	points := make([]image.Point, NumLandmarks)
	for i, p := range h.Points {
		points[i] = image.Point{
			X: clamp(int(p.X*float64(width)), width-1),
			Y: clamp(int(p.Y*float64(height)), height-1),
		}
	}
	return points
}

// BoundingRect returns the smallest rectangle containing the pixel landmarks.
// The rectangle's Max corner is exclusive.
func (h *HandLandmarks) BoundingRect(width, height int) image.Rectangle {
	points := h.Pixels(width, height)
	rect := image.Rectangle{Min: points[0], Max: points[0].Add(image.Pt(1, 1))}
	for _, p := range points[1:] {
		rect = rect.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return rect
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
