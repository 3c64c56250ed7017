// Package session binds one gesture pipeline to one client connection.
//
// A Session owns a fresh Stabilizer and Notifier. Frames are processed one at
// a time in arrival order; Close flushes the notifier exactly once and the
// state is dropped with the session.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/waveoff/internal/capture"
	"github.com/ayusman/waveoff/internal/gesture"
)

// Info is a point-in-time view of a session.
type Info struct {
	ID             string          `json:"id"`
	RemoteAddr     string          `json:"remote_addr"`
	StartedAt      time.Time       `json:"started_at"`
	Frames         int             `json:"frames"`
	Failures       int             `json:"failures"`
	Current        *gesture.Result `json:"current"`
	UnchangedCount int             `json:"unchanged_count"`
	WindowLen      int             `json:"window_len"`
}

// Session is one connection's gesture pipeline.
type Session struct {
	id         string
	remoteAddr string
	startedAt  time.Time
	manager    *Manager
	logger     *slog.Logger

	stabilizer *gesture.Stabilizer
	notifier   *gesture.Notifier

	mu       sync.Mutex
	closed   bool
	frames   int
	failures int
	window   int

	closeOnce sync.Once
	flushed   gesture.Event
	didFlush  bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the peer address the session was opened for.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Subscribe registers fn for this session's transition events.
func (s *Session) Subscribe(fn gesture.Listener) string {
	return s.notifier.Subscribe(fn)
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *Session) Unsubscribe(handle string) error {
	return s.notifier.Unsubscribe(handle)
}

// HandlePayload decodes a base64 BGR frame and processes it.
func (s *Session) HandlePayload(ctx context.Context, payload string) (gesture.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gesture.Outcome{}, ErrClosed
	}
	s.frames++

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return s.fail(malformed("Invalid Base64 data", err))
	}

	frame, err := capture.DecodeBGR(raw, s.manager.frame, s.manager.mirror)
	if err != nil {
		if errors.Is(err, capture.ErrPayloadSize) {
			return s.fail(malformed(fmt.Sprintf("Incorrect byte data size: %d", len(raw)), err))
		}
		return s.fail(malformed("Reshape error: "+err.Error(), err))
	}
	defer frame.Close()

	return s.process(ctx, frame)
}

// ProcessFrame runs the pipeline on an already decoded frame.
func (s *Session) ProcessFrame(ctx context.Context, frame *gocv.Mat) (gesture.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gesture.Outcome{}, ErrClosed
	}
	s.frames++

	if frame == nil || frame.Empty() {
		return s.fail(malformed("Empty frame", errors.New("empty frame")))
	}
	return s.process(ctx, frame)
}

// process runs detect, classify and notify for one frame. s.mu must be held.
func (s *Session) process(ctx context.Context, frame *gocv.Mat) (gesture.Outcome, error) {
	hands, err := s.manager.services.Detector.Detect(frame)
	if err != nil {
		return s.fail(external(fmt.Errorf("detect: %w", err)))
	}

	var det *gesture.Detection
	if len(hands) > 0 {
		width, height := frame.Cols(), frame.Rows()
		det = &gesture.Detection{
			Landmarks: hands[0].Pixels(width, height),
			Width:     width,
			Height:    height,
		}
	}

	outcome, err := s.stabilizer.Step(ctx, det)
	if err != nil {
		return s.fail(external(err))
	}
	s.window = outcome.WindowLen

	s.logger.Debug("frame classified",
		"hand_sign", outcome.Result.HandSign,
		"gesture_type", outcome.Result.GestureType,
		"hand_sign_id", outcome.HandSignID,
		"gesture_id", outcome.GestureID,
		"dominant_gesture", outcome.DominantGesture,
		"window_len", outcome.WindowLen,
	)

	s.notifier.Notify(outcome.Result)
	return outcome, nil
}

func (s *Session) fail(err *FrameError) (gesture.Outcome, error) {
	s.failures++
	s.logger.Warn("frame skipped", "kind", err.Kind.String(), "error", err.Err)
	return gesture.Outcome{}, err
}

// Close ends the session. The notifier is flushed exactly once, so the
// terminal event reaches every listener; later calls return the same event.
func (s *Session) Close() (gesture.Event, bool) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		frames, failures := s.frames, s.failures
		s.mu.Unlock()

		s.flushed, s.didFlush = s.notifier.Flush()
		s.manager.release(s, frames, failures)
		s.logger.Info("session closed", "frames", frames, "failures", failures, "flushed", s.didFlush)
	})
	return s.flushed, s.didFlush
}

// Info returns a snapshot of the session's counters and state.
func (s *Session) Info() Info {
	s.mu.Lock()
	frames, failures, window := s.frames, s.failures, s.window
	s.mu.Unlock()

	current, count := s.notifier.State()
	return Info{
		ID:             s.id,
		RemoteAddr:     s.remoteAddr,
		StartedAt:      s.startedAt,
		Frames:         frames,
		Failures:       failures,
		Current:        current,
		UnchangedCount: count,
		WindowLen:      window,
	}
}
