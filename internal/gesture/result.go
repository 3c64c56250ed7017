// Package gesture implements the temporal gesture tracking pipeline: landmark
// normalization, the point history window, the per-frame stabilizer and the
// change notifier that turns a stream of results into transition events.
package gesture

// NoneLabel is reported when no hand is detected or a gesture id is unmapped.
const NoneLabel = "None"

// Hand-sign ids that drive the history window update policy.
const (
	HandSignOpen    = 0
	HandSignPointer = 3
)

// Gesture ids produced by the point-history classifier.
const (
	GestureStop       = 0
	GestureNormalWave = 1
	GestureIndexWave  = 2
)

// Result is the classification emitted for one frame.
// Two results are the same state iff they compare equal with ==.
type Result struct {
	HandSign    string `json:"hand_sign"`
	GestureType string `json:"gesture_type"`
}

// NoHand is the result for a frame without a detected hand.
var NoHand = Result{HandSign: NoneLabel, GestureType: NoneLabel}

// GestureType maps a point-history gesture id to its display name.
// Unmapped ids degrade to NoneLabel.
func GestureType(id int) string {
	switch id {
	case GestureStop:
		return "Stop"
	case GestureNormalWave:
		return "Normal Wave"
	case GestureIndexWave:
		return "Index Wave"
	default:
		return NoneLabel
	}
}
