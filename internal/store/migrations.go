package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per websocket connection or watch run.
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			remote_addr TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0
		)`,

		// Every change event a session dispatched, including the terminal flush.
		`CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			hand_sign TEXT,
			gesture_type TEXT,
			previous_hand_sign TEXT NOT NULL,
			previous_gesture_type TEXT NOT NULL,
			unchanged_count INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(session_id, seq)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_session_id ON transitions(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
