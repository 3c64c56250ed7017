package gesture

import (
	"errors"
	"fmt"
	"image"
)

// HistoryCapacity is the number of entries kept by a Window and by the
// stabilizer's gesture vote history.
const HistoryCapacity = 16

// LandmarkCount is the number of landmarks reported per detected hand.
const LandmarkCount = 21

// Landmark indices used by the window update policy.
const (
	thumbTip  = 4
	indexTip  = 8
	middleTip = 12
	ringTip   = 16
	pinkyTip  = 20
)

// ErrLandmarkCount is returned when a hand does not carry LandmarkCount points.
var ErrLandmarkCount = errors.New("unexpected landmark count")

var fingertips = []int{thumbTip, indexTip, middleTip, ringTip, pinkyTip}

// placeholder keeps the window cadence for frames without tracked motion.
var placeholder = image.Point{}

// fifo is a bounded queue that evicts its oldest element when full.
type fifo[T any] struct {
	items    []T
	capacity int
}

func newFIFO[T any](capacity int) fifo[T] {
	return fifo[T]{items: make([]T, 0, capacity), capacity: capacity}
}

func (q *fifo[T]) push(values ...T) {
	for _, v := range values {
		if len(q.items) == q.capacity {
			copy(q.items, q.items[1:])
			q.items = q.items[:q.capacity-1]
		}
		q.items = append(q.items, v)
	}
}

func (q *fifo[T]) snapshot() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

func (q *fifo[T]) clone() fifo[T] {
	c := newFIFO[T](q.capacity)
	c.items = append(c.items, q.items...)
	return c
}

// Window is the bounded point history that feeds the point-history
// classifier. Insertion order defines recency; once full, every pushed point
// evicts the oldest one.
type Window struct {
	q fifo[image.Point]
}

// NewWindow creates an empty window holding at most capacity points.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &Window{q: newFIFO[image.Point](capacity)}
}

// Push appends points in order, evicting the oldest entries as needed.
func (w *Window) Push(points ...image.Point) {
	w.q.push(points...)
}

// Update applies the update policy for a frame classified as handSignID:
// an open hand contributes all five fingertips, a pointing hand its index
// fingertip, and any other sign a (0,0) placeholder.
//
// landmarks must hold LandmarkCount points; otherwise the window is left
// untouched and ErrLandmarkCount is returned.
func (w *Window) Update(handSignID int, landmarks []image.Point) error {
	if len(landmarks) != LandmarkCount {
		return fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(landmarks), LandmarkCount)
	}

	switch handSignID {
	case HandSignOpen:
		for _, idx := range fingertips {
			w.q.push(landmarks[idx])
		}
	case HandSignPointer:
		w.q.push(landmarks[indexTip])
	default:
		w.q.push(placeholder)
	}
	return nil
}

// Points returns a copy of the window contents, oldest first.
func (w *Window) Points() []image.Point {
	return w.q.snapshot()
}

// Len returns the number of points currently held.
func (w *Window) Len() int {
	return len(w.q.items)
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.q.capacity
}

// Full reports whether the window holds Cap points.
func (w *Window) Full() bool {
	return w.Len() == w.q.capacity
}

// Clone returns an independent copy of the window.
func (w *Window) Clone() *Window {
	return &Window{q: w.q.clone()}
}

// votes is the bounded history of recent gesture ids.
type votes struct {
	q fifo[int]
}

func newVotes(capacity int) *votes {
	return &votes{q: newFIFO[int](capacity)}
}

// mostCommon returns the most frequent id. Ties go to the id whose first
// occurrence is oldest. An empty history returns GestureStop.
func (v *votes) mostCommon() int {
	if len(v.q.items) == 0 {
		return GestureStop
	}

	counts := make(map[int]int, len(v.q.items))
	order := make([]int, 0, len(v.q.items))
	for _, id := range v.q.items {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	best := order[0]
	for _, id := range order[1:] {
		if counts[id] > counts[best] {
			best = id
		}
	}
	return best
}
