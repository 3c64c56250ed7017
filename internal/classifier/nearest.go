package classifier

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Sample is one labelled feature vector.
type Sample struct {
	Label    int
	Features []float64
}

// match is a candidate sample and its distance from the input.
type match struct {
	sample   *Sample
	distance float64
}

// Nearest is a 1-nearest-neighbour classifier over labelled samples. It reads
// the same `label,f1,...,fn` CSV rows the keypoint and point-history training
// sets use.
type Nearest struct {
	samples []Sample
	dim     int
}

// NewNearest builds a classifier from samples that all share one dimension.
func NewNearest(samples []Sample) (*Nearest, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("nearest: no samples")
	}
	dim := len(samples[0].Features)
	for i, s := range samples {
		if len(s.Features) != dim {
			return nil, fmt.Errorf("nearest: sample %d has %d features, want %d", i, len(s.Features), dim)
		}
		if s.Label < 0 {
			return nil, fmt.Errorf("nearest: sample %d has negative label %d", i, s.Label)
		}
	}
	return &Nearest{samples: samples, dim: dim}, nil
}

// LoadNearest reads a training CSV from path.
func LoadNearest(path string) (*Nearest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()

	samples, err := ParseSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewNearest(samples)
}

// ParseSamples decodes `label,f1,...,fn` rows. Blank lines are skipped.
func ParseSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []Sample
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: want label and features", line)
		}

		label, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(record[0]), "\ufeff"))
		if err != nil {
			return nil, fmt.Errorf("line %d: label: %w", line, err)
		}
		features := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: feature %d: %w", line, i, err)
			}
			features[i] = v
		}
		samples = append(samples, Sample{Label: label, Features: features})
	}
	return samples, nil
}

// Dim returns the feature vector length the classifier expects.
func (n *Nearest) Dim() int {
	return n.dim
}

// Classify returns the label of the closest sample. Equal distances resolve
// to the sample that appears first.
func (n *Nearest) Classify(ctx context.Context, features []float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(features) != n.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), n.dim)
	}

	matches := make([]match, len(n.samples))
	for i := range n.samples {
		matches[i] = match{
			sample:   &n.samples[i],
			distance: euclideanDistance(features, n.samples[i].Features),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	return matches[0].sample.Label, nil
}

// euclideanDistance returns the L2 distance between two equal-length vectors.
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
