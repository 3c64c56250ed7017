// Package classifier provides the hand-sign and point-history classifiers
// used by the gesture stabilizer.
package classifier

import (
	"context"
	"errors"

	"github.com/ayusman/waveoff/internal/gesture"
)

// ErrFeatureLength is returned when a feature vector does not have the
// length the classifier was trained on.
var ErrFeatureLength = errors.New("unexpected feature vector length")

// Feature vector lengths produced by the gesture normalizers.
const (
	HandSignFeatures     = gesture.LandmarkCount * 2
	PointHistoryFeatures = gesture.HistoryCapacity * 2
)

var (
	_ gesture.Classifier = (*Nearest)(nil)
	_ gesture.Classifier = (*Service)(nil)
)

// Fixed always answers with the same class id. It backs tests and
// deployments without a trained point-history model.
type Fixed int

// Classify returns f regardless of features.
func (f Fixed) Classify(ctx context.Context, features []float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int(f), nil
}
