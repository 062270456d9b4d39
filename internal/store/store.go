// Package store persists the gesture library and the phrase list.
//
// Two backends are available: plain record files in the translator's original
// on-disk format (JSON, or YAML by file extension) and a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/gesture"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Backend reads and writes whole collections. Saves replace what was stored.
type Backend interface {
	LoadGestures() ([]gesture.Template, error)
	SaveGestures(templates []gesture.Template) error
	LoadPhrases() ([]gesture.SequenceEntry, error)
	SavePhrases(entries []gesture.SequenceEntry) error
	Close() error
}

// Store is a SQLite-backed Backend.
type Store struct {
	db   *sql.DB
	path string
}

var _ Backend = (*Store)(nil)

// New creates a new Store with the given database path.
// It opens the database connection, enables foreign keys, and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// LoadGestures returns every stored template in library order.
func (s *Store) LoadGestures() ([]gesture.Template, error) {
	return s.Gestures().List()
}

// SaveGestures replaces the stored templates.
func (s *Store) SaveGestures(templates []gesture.Template) error {
	return s.Gestures().ReplaceAll(templates)
}

// LoadPhrases returns every stored sequence entry in list order.
func (s *Store) LoadPhrases() ([]gesture.SequenceEntry, error) {
	return s.Phrases().List()
}

// SavePhrases replaces the stored sequence entries.
func (s *Store) SavePhrases(entries []gesture.SequenceEntry) error {
	return s.Phrases().ReplaceAll(entries)
}
