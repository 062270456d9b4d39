package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Gestures table - one row per template, position keeps library order
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			position INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture landmarks table - normalized landmark positions of each template
		`CREATE TABLE IF NOT EXISTS gesture_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Phrases table - registered phrases, position keeps list order
		`CREATE TABLE IF NOT EXISTS phrases (
			id TEXT PRIMARY KEY,
			phrase TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Phrase gestures table - the gesture sequence spelling each phrase
		`CREATE TABLE IF NOT EXISTS phrase_gestures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phrase_id TEXT NOT NULL REFERENCES phrases(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			gesture TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_landmarks_gesture_id ON gesture_landmarks(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_phrase_gestures_phrase_id ON phrase_gestures(phrase_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
