package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is the journal row for one pipeline session.
type Session struct {
	ID         string     `json:"id"`
	RemoteAddr string     `json:"remote_addr"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Frames     int        `json:"frames"`
	Failures   int        `json:"failures"`
}

// Active reports whether the session has not been closed yet.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionRepository provides access to session rows.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, remote_addr, started_at, ended_at, frames, failures`

// Create inserts a new open session.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, remote_addr, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.RemoteAddr, sess.StartedAt.UTC(),
	)
	return err
}

// Finish records the end of a session and its final counters.
func (r *SessionRepository) Finish(id string, endedAt time.Time, frames, failures int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, failures = ? WHERE id = ?`,
		endedAt.UTC(), frames, failures, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns sessions newest first. A limit of zero or less returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its transitions.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes closed sessions that ended before cutoff and returns how
// many were removed.
func (r *SessionRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM sessions WHERE ended_at IS NOT NULL AND ended_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	if err := row.Scan(&sess.ID, &sess.RemoteAddr, &sess.StartedAt, &ended, &sess.Frames, &sess.Failures); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
