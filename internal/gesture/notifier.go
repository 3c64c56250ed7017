package gesture

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrListenerNotFound is returned when unsubscribing an unknown handle.
var ErrListenerNotFound = errors.New("listener not found")

// Event is dispatched when the tracked state changes or the session ends.
// A nil Result marks the terminal flush.
type Event struct {
	Result         *Result `json:"result"`
	PreviousResult Result  `json:"previous_result"`
	UnchangedCount int     `json:"unchanged_count"`
}

// Terminal reports whether the event was produced by Flush.
func (e Event) Terminal() bool {
	return e.Result == nil
}

// Listener receives transition events. Listeners run synchronously on the
// goroutine that called Notify or Flush.
type Listener func(Event)

type subscription struct {
	id string
	fn Listener
}

// Notifier detects state transitions for one session and dispatches them to
// its listeners together with the run length of the previous state.
type Notifier struct {
	mu        sync.Mutex
	listeners []subscription
	last      *Result
	count     int
}

// NewNotifier creates a notifier with no stored state.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns an opaque handle for Unsubscribe.
// Listeners are called in subscription order.
func (n *Notifier) Subscribe(fn Listener) string {
	id := uuid.NewString()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes the listener registered under handle.
func (n *Notifier) Unsubscribe(handle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.listeners {
		if sub.id == handle {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			return nil
		}
	}
	return ErrListenerNotFound
}

// Notify records result. A result equal to the stored one only extends the
// run; a different one dispatches a transition carrying the previous result
// and its run length, then starts a new run. The first result of a session
// is stored without dispatching. It reports the dispatched event, if any.
func (n *Notifier) Notify(result Result) (Event, bool) {
	n.mu.Lock()

	if n.last != nil && *n.last == result {
		n.count++
		n.mu.Unlock()
		return Event{}, false
	}

	var (
		evt      Event
		dispatch bool
	)
	if n.last != nil {
		current := result
		evt = Event{Result: &current, PreviousResult: *n.last, UnchangedCount: n.count}
		dispatch = true
	}

	stored := result
	n.last = &stored
	n.count = 1
	listeners := n.snapshot()
	n.mu.Unlock()

	if dispatch {
		deliver(listeners, evt)
	}
	return evt, dispatch
}

// Flush dispatches the terminal event for the stored run, if any, and clears
// the state. Flushing with no stored state is a no-op.
func (n *Notifier) Flush() (Event, bool) {
	n.mu.Lock()

	if n.last == nil {
		n.mu.Unlock()
		return Event{}, false
	}

	evt := Event{Result: nil, PreviousResult: *n.last, UnchangedCount: n.count}
	n.last = nil
	n.count = 0
	listeners := n.snapshot()
	n.mu.Unlock()

	deliver(listeners, evt)
	return evt, true
}

// State returns the stored result (nil when none) and its run length.
func (n *Notifier) State() (*Result, int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.last == nil {
		return nil, n.count
	}
	last := *n.last
	return &last, n.count
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

func (n *Notifier) snapshot() []Listener {
	fns := make([]Listener, len(n.listeners))
	for i, sub := range n.listeners {
		fns[i] = sub.fn
	}
	return fns
}

func deliver(listeners []Listener, evt Event) {
	for _, fn := range listeners {
		fn(evt)
	}
}
