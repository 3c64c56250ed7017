package session

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a frame arrives after the session was closed.
var ErrClosed = errors.New("session closed")

// Kind classifies a per-frame failure.
type Kind int

const (
	// KindMalformed covers payloads that cannot be turned into a frame.
	KindMalformed Kind = iota
	// KindExternal covers detector and classifier failures.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindExternal:
		return "external"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FrameError reports why a single frame was skipped. The session keeps
// running after it.
type FrameError struct {
	Kind Kind
	// Message is the text reported to the client.
	Message string
	Err     error
}

func (e *FrameError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func malformed(message string, err error) *FrameError {
	return &FrameError{Kind: KindMalformed, Message: message, Err: err}
}

func external(err error) *FrameError {
	return &FrameError{Kind: KindExternal, Message: "Processing failed: " + err.Error(), Err: err}
}

// IsMalformed reports whether err is a malformed-input frame error.
func IsMalformed(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.Kind == KindMalformed
}
