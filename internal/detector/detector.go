package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoScript is returned when the MediaPipe helper script cannot be found.
var ErrNoScript = errors.New("mediapipe_service.py not found")

// Detector defines the interface for hand detection implementations.
// Implementations must be safe for concurrent use by multiple sessions.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Script is the path to the MediaPipe helper. Empty searches the usual
	// install locations.
	Script string
	// Python is the interpreter used to run Script. Empty prefers a local
	// virtual environment, then python3.
	Python string
	// MaxHands is the maximum number of hands to detect.
	MaxHands int
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
	// IdleTimeout stops the helper process after a period without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config tuned for single-hand tracking.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
