package gesture

import (
	"image"
	"math"
)

// NormalizeLandmarks converts pixel landmarks into a translation and scale
// invariant feature vector.
//
// Every point is translated relative to points[0], the (dx, dy) pairs are
// flattened, and the whole sequence is divided by its largest absolute
// component. A degenerate input whose components are all zero is divided by 1.
// The result has 2*len(points) elements.
//
// Calling it with no points is a programming error and panics.
func NormalizeLandmarks(points []image.Point) []float64 {
	if len(points) == 0 {
		panic("gesture: NormalizeLandmarks requires at least one point")
	}

	base := points[0]
	features := make([]float64, 0, len(points)*2)
	maxAbs := 0.0
	for _, p := range points {
		dx := float64(p.X - base.X)
		dy := float64(p.Y - base.Y)
		features = append(features, dx, dy)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(dx), math.Abs(dy)))
	}

	if maxAbs == 0 {
		maxAbs = 1
	}
	for i := range features {
		features[i] /= maxAbs
	}
	return features
}

// NormalizeHistory converts the point history into screen-relative
// displacements from its oldest point, scaled by the image dimensions.
// An empty history yields an empty vector.
func NormalizeHistory(points []image.Point, width, height int) []float64 {
	if len(points) == 0 {
		return []float64{}
	}

	base := points[0]
	w := float64(width)
	h := float64(height)
	features := make([]float64, 0, len(points)*2)
	for _, p := range points {
		features = append(features,
			float64(p.X-base.X)/w,
			float64(p.Y-base.Y)/h,
		)
	}
	return features
}
