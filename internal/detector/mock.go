package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, when a sequence is queued, one
// entry of the sequence per call.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	err      error
	sequence []Response
	calls    int
}

// Response is one scripted Detect result.
type Response struct {
	Hands []HandLandmarks
	Err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Queue appends scripted responses consumed one per Detect call before the
// fixed hands and error apply again.
func (m *MockDetector) Queue(responses ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append(m.sequence, responses...)
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued response, or the configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next.Hands, next.Err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmLandmarks returns a preset right hand with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42}

	return landmarks
}

// PointerLandmarks returns a preset right hand with only the index finger
// extended.
func PointerLandmarks() HandLandmarks {
	landmarks := OpenPalmLandmarks()

	landmarks.Points[ThumbIP] = Point3D{X: 0.60, Y: 0.68}
	landmarks.Points[ThumbTip] = Point3D{X: 0.56, Y: 0.66}

	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.62}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.66}
	landmarks.Points[MiddleTip] = Point3D{X: 0.47, Y: 0.69}

	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.64}
	landmarks.Points[RingDIP] = Point3D{X: 0.43, Y: 0.68}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.71}

	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.66}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.38, Y: 0.69}
	landmarks.Points[PinkyTip] = Point3D{X: 0.37, Y: 0.72}

	return landmarks
}

// Shifted returns a copy of h translated by (dx, dy) in normalized units.
func (h HandLandmarks) Shifted(dx, dy float64) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X += dx
		out.Points[i].Y += dy
	}
	return out
}
