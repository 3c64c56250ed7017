package store

import (
	"fmt"
	"time"

	"github.com/ayusman/waveoff/internal/gesture"
)

// Journal records session lifecycles and their change events.
type Journal struct {
	store *Store
}

// NewJournal returns a Journal writing to s.
func NewJournal(s *Store) *Journal {
	return &Journal{store: s}
}

// OpenSession records a new session.
func (j *Journal) OpenSession(id, remoteAddr string, startedAt time.Time) error {
	err := j.store.Sessions().Create(&Session{
		ID:         id,
		RemoteAddr: remoteAddr,
		StartedAt:  startedAt,
	})
	if err != nil {
		return fmt.Errorf("open session %s: %w", id, err)
	}
	return nil
}

// RecordTransition appends ev to the session's transitions.
func (j *Journal) RecordTransition(sessionID string, ev gesture.Event, at time.Time) error {
	t := &Transition{
		SessionID:      sessionID,
		Result:         ev.Result,
		PreviousResult: ev.PreviousResult,
		UnchangedCount: ev.UnchangedCount,
		CreatedAt:      at,
	}
	if err := j.store.Transitions().Append(t); err != nil {
		return fmt.Errorf("record transition for %s: %w", sessionID, err)
	}
	return nil
}

// CloseSession stores the session's end time and counters.
func (j *Journal) CloseSession(id string, endedAt time.Time, frames, failures int) error {
	if err := j.store.Sessions().Finish(id, endedAt, frames, failures); err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	return nil
}
