// Package plugin discovers transition hooks and delivers gesture change
// events to them.
//
// A hook is a directory holding a plugin.json manifest and an executable.
// For every matching event the executable is started with the event as JSON
// on stdin and must answer with a Response on stdout.
package plugin

import (
	"time"

	"github.com/ayusman/waveoff/internal/gesture"
)

// Event kinds delivered to hooks.
const (
	EventChange = "change"
	EventFlush  = "flush"
)

// Manifest describes a hook's metadata and the events it wants.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	// Events limits delivery to the listed kinds; empty means all.
	Events []string `json:"events,omitempty"`
	// HandSigns limits change events to results with these hand signs.
	HandSigns []string `json:"handSigns,omitempty"`
	// Gestures limits change events to results with these gesture types.
	Gestures []string `json:"gestures,omitempty"`
}

// Request is the JSON document written to a hook's stdin.
type Request struct {
	Event          string          `json:"event"`
	SessionID      string          `json:"session_id"`
	Result         *gesture.Result `json:"result"`
	PreviousResult gesture.Result  `json:"previous_result"`
	UnchangedCount int             `json:"unchanged_count"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewRequest converts a notifier event into a hook request.
func NewRequest(sessionID string, ev gesture.Event, at time.Time) *Request {
	kind := EventChange
	if ev.Terminal() {
		kind = EventFlush
	}
	return &Request{
		Event:          kind,
		SessionID:      sessionID,
		Result:         ev.Result,
		PreviousResult: ev.PreviousResult,
		UnchangedCount: ev.UnchangedCount,
		Timestamp:      at,
	}
}

// Response represents the response from a hook execution.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plugin represents a discovered hook with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Accepts reports whether the hook's filters admit req.
func (p *Plugin) Accepts(req *Request) bool {
	if len(p.Manifest.Events) > 0 && !contains(p.Manifest.Events, req.Event) {
		return false
	}
	if req.Result == nil {
		return true
	}
	if len(p.Manifest.HandSigns) > 0 && !contains(p.Manifest.HandSigns, req.Result.HandSign) {
		return false
	}
	if len(p.Manifest.Gestures) > 0 && !contains(p.Manifest.Gestures, req.Result.GestureType) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
