package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/waveoff/internal/gesture"
)

// Transition is one journaled change event.
type Transition struct {
	ID             int64           `json:"id"`
	SessionID      string          `json:"session_id"`
	Seq            int             `json:"seq"`
	Result         *gesture.Result `json:"result"`
	PreviousResult gesture.Result  `json:"previous_result"`
	UnchangedCount int             `json:"unchanged_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Terminal reports whether this is the end-of-session flush.
func (t *Transition) Terminal() bool {
	return t.Result == nil
}

// TransitionRepository provides access to transition rows.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Append stores t after the session's last transition and fills in ID and
// Seq.
func (r *TransitionRepository) Append(t *Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	var handSign, gestureType sql.NullString
	if t.Result != nil {
		handSign = sql.NullString{String: t.Result.HandSign, Valid: true}
		gestureType = sql.NullString{String: t.Result.GestureType, Valid: true}
	}

	err := r.db.QueryRow(
		`INSERT INTO transitions (
			session_id, seq, hand_sign, gesture_type,
			previous_hand_sign, previous_gesture_type, unchanged_count, created_at
		) VALUES (
			?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transitions WHERE session_id = ?), ?, ?,
			?, ?, ?, ?
		) RETURNING id, seq`,
		t.SessionID, t.SessionID, handSign, gestureType,
		t.PreviousResult.HandSign, t.PreviousResult.GestureType, t.UnchangedCount, t.CreatedAt.UTC(),
	).Scan(&t.ID, &t.Seq)
	return err
}

// ListBySession returns a session's transitions in dispatch order.
func (r *TransitionRepository) ListBySession(sessionID string) ([]*Transition, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, seq, hand_sign, gesture_type,
			previous_hand_sign, previous_gesture_type, unchanged_count, created_at
		 FROM transitions WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		var handSign, gestureType sql.NullString

		err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &handSign, &gestureType,
			&t.PreviousResult.HandSign, &t.PreviousResult.GestureType, &t.UnchangedCount, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		if handSign.Valid {
			t.Result = &gesture.Result{HandSign: handSign.String, GestureType: gestureType.String}
		}
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}

// CountBySession returns how many transitions a session recorded.
func (r *TransitionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
