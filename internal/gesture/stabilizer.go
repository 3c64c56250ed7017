package gesture

import (
	"context"
	"fmt"
	"image"
)

// Classifier maps a feature vector to a discrete label id. Implementations
// host the trained models and must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (int, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, features []float64) (int, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, features []float64) (int, error) {
	return f(ctx, features)
}

// Labeler resolves a label id to its display string.
type Labeler interface {
	Name(id int) string
}

// Detection is a single tracked hand in pixel space together with the size
// of the frame it was detected in.
type Detection struct {
	Landmarks []image.Point
	Width     int
	Height    int
}

// Outcome describes how one frame was classified.
type Outcome struct {
	Result       Result
	HandDetected bool
	HandSignID   int
	GestureID    int
	// DominantGesture is the majority vote over recent gesture ids. It is
	// informational and never feeds back into Result.
	DominantGesture int
	WindowLen       int
}

// Stabilizer turns per-frame hand detections into classification results.
// It owns one session's point history and gesture vote history and is not
// safe for concurrent use; frames must be stepped in arrival order.
type Stabilizer struct {
	handSign     Classifier
	pointHistory Classifier
	labels       Labeler
	window       *Window
	votes        *votes
}

// NewStabilizer creates a stabilizer with empty histories.
func NewStabilizer(handSign, pointHistory Classifier, labels Labeler) *Stabilizer {
	return &Stabilizer{
		handSign:     handSign,
		pointHistory: pointHistory,
		labels:       labels,
		window:       NewWindow(HistoryCapacity),
		votes:        newVotes(HistoryCapacity),
	}
}

// Step classifies one frame. A nil detection means no hand was found and
// yields NoHand without touching the histories.
//
// If a classifier fails, the error is returned and both histories are left
// exactly as they were before the call.
func (s *Stabilizer) Step(ctx context.Context, det *Detection) (Outcome, error) {
	if det == nil {
		return Outcome{Result: NoHand, WindowLen: s.window.Len()}, nil
	}
	if len(det.Landmarks) != LandmarkCount {
		return Outcome{}, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(det.Landmarks), LandmarkCount)
	}

	handSignID, err := s.handSign.Classify(ctx, NormalizeLandmarks(det.Landmarks))
	if err != nil {
		return Outcome{}, fmt.Errorf("hand sign classifier: %w", err)
	}

	next := s.window.Clone()
	if err := next.Update(handSignID, det.Landmarks); err != nil {
		return Outcome{}, err
	}

	gestureID := GestureStop
	history := NormalizeHistory(next.Points(), det.Width, det.Height)
	if len(history) == next.Cap()*2 {
		gestureID, err = s.pointHistory.Classify(ctx, history)
		if err != nil {
			return Outcome{}, fmt.Errorf("point history classifier: %w", err)
		}
	}

	s.window = next
	s.votes.q.push(gestureID)

	return Outcome{
		Result: Result{
			HandSign:    s.labels.Name(handSignID),
			GestureType: GestureType(gestureID),
		},
		HandDetected:    true,
		HandSignID:      handSignID,
		GestureID:       gestureID,
		DominantGesture: s.votes.mostCommon(),
		WindowLen:       s.window.Len(),
	}, nil
}

// Window returns a copy of the current point history.
func (s *Stabilizer) Window() []image.Point {
	return s.window.Points()
}
