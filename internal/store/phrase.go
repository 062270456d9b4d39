package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
)

// PhraseRepository provides access to stored phrase sequences.
type PhraseRepository struct {
	db *sql.DB
}

// Phrases returns the phrase repository for this store.
func (s *Store) Phrases() *PhraseRepository {
	return &PhraseRepository{db: s.db}
}

// List retrieves all sequence entries in registration order.
func (r *PhraseRepository) List() ([]gesture.SequenceEntry, error) {
	rows, err := r.db.Query(
		`SELECT p.id, p.phrase, pg.gesture
		 FROM phrases p
		 LEFT JOIN phrase_gestures pg ON pg.phrase_id = p.id
		 ORDER BY p.position, pg.sequence`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []gesture.SequenceEntry
	lastID := ""
	for rows.Next() {
		var id, phrase string
		var g sql.NullString
		if err := rows.Scan(&id, &phrase, &g); err != nil {
			return nil, err
		}

		if id != lastID {
			entries = append(entries, gesture.SequenceEntry{Phrase: phrase})
			lastID = id
		}
		if g.Valid {
			e := &entries[len(entries)-1]
			e.Gestures = append(e.Gestures, g.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ReplaceAll deletes every stored entry and inserts entries in a single transaction.
func (r *PhraseRepository) ReplaceAll(entries []gesture.SequenceEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM phrases`); err != nil {
		return err
	}
	for i, e := range entries {
		if err := insertPhrase(tx, i, e); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Append adds one entry after the existing ones.
func (r *PhraseRepository) Append(e gesture.SequenceEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM phrases`).Scan(&next); err != nil {
		return err
	}
	if err := insertPhrase(tx, next, e); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPhrase(tx *sql.Tx, position int, e gesture.SequenceEntry) error {
	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO phrases (id, phrase, position, created_at) VALUES (?, ?, ?, ?)`,
		id, e.Phrase, position, time.Now(),
	); err != nil {
		return err
	}

	for i, g := range e.Gestures {
		if _, err := tx.Exec(
			`INSERT INTO phrase_gestures (phrase_id, sequence, gesture) VALUES (?, ?, ?)`,
			id, i, g,
		); err != nil {
			return err
		}
	}
	return nil
}
