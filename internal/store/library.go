package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

var (
	// ErrEmptyLandmarks is returned when a template without landmarks is saved.
	ErrEmptyLandmarks = errors.New("template has no landmarks")
	// ErrInvalidSequence is returned when a phrase entry has no phrase or no gestures.
	ErrInvalidSequence = errors.New("phrase needs a name and at least one gesture")
)

// Library keeps the gesture library in memory and persists every change
// through a Backend. Readers take snapshots; writers are serialized.
type Library struct {
	mu      sync.RWMutex
	backend Backend
	lib     *gesture.Library
	log     zerolog.Logger
}

// NewLibrary creates an empty Library over backend. Call Load to read what is stored.
func NewLibrary(backend Backend, log zerolog.Logger) *Library {
	return &Library{
		backend: backend,
		lib:     gesture.NewLibrary(),
		log:     log.With().Str("component", "library").Logger(),
	}
}

// Load reads the library from the backend and returns a snapshot of it. Any
// read error is logged and yields an empty library. Records with a blank name
// or no landmarks are skipped.
func (l *Library) Load() *gesture.Library {
	templates, err := l.backend.LoadGestures()
	if err != nil {
		l.log.Warn().Err(err).Msg("could not load gesture library, starting empty")
		templates = nil
	}

	lib := gesture.NewLibrary()
	for _, t := range templates {
		if strings.TrimSpace(t.Name) == "" || len(t.Landmarks) == 0 {
			l.log.Debug().Str("gesture", t.Name).Msg("skipping incomplete gesture record")
			continue
		}
		lib.Upsert(t.Name, t.Landmarks)
	}

	l.mu.Lock()
	l.lib = lib
	l.mu.Unlock()

	l.log.Info().Int("gestures", lib.Len()).Msg("gesture library loaded")
	return lib.Clone()
}

// Snapshot returns a copy of the current library that later writes do not affect.
func (l *Library) Snapshot() *gesture.Library {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lib.Clone()
}

// Save replaces the stored library with lib.
func (l *Library) Save(lib *gesture.Library) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := lib.Clone()
	if err := l.backend.SaveGestures(next.Templates()); err != nil {
		return fmt.Errorf("save gesture library: %w", err)
	}
	l.lib = next
	return nil
}

// Upsert stores landmarks under name, replacing any template of that name in
// place. The name is trimmed. Nothing changes, in memory or on disk, when
// validation or the write fails.
func (l *Library) Upsert(name string, landmarks detector.LandmarkSet) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return gesture.ErrInvalidName
	}
	if len(landmarks) == 0 {
		return ErrEmptyLandmarks
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.lib.Clone()
	next.Upsert(name, append(detector.LandmarkSet(nil), landmarks...))
	if err := l.backend.SaveGestures(next.Templates()); err != nil {
		return fmt.Errorf("save gesture %q: %w", name, err)
	}
	l.lib = next

	l.log.Info().Str("gesture", name).Int("gestures", next.Len()).Msg("gesture saved")
	return nil
}

// Delete removes the template called name.
func (l *Library) Delete(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.lib.Clone()
	if !next.Delete(name) {
		return ErrNotFound
	}
	if err := l.backend.SaveGestures(next.Templates()); err != nil {
		return fmt.Errorf("delete gesture %q: %w", name, err)
	}
	l.lib = next

	l.log.Info().Str("gesture", name).Msg("gesture deleted")
	return nil
}

// Phrases keeps the phrase list in memory and persists it through a Backend.
type Phrases struct {
	mu      sync.RWMutex
	backend Backend
	entries []gesture.SequenceEntry
	log     zerolog.Logger
}

// NewPhrases creates an empty Phrases over backend. Call Load to read what is stored.
func NewPhrases(backend Backend, log zerolog.Logger) *Phrases {
	return &Phrases{
		backend: backend,
		log:     log.With().Str("component", "phrases").Logger(),
	}
}

// Load reads the phrase list from the backend and returns a copy. Read errors
// are logged and yield an empty list; invalid entries are skipped.
func (p *Phrases) Load() []gesture.SequenceEntry {
	entries, err := p.backend.LoadPhrases()
	if err != nil {
		p.log.Warn().Err(err).Msg("could not load phrases, starting empty")
		entries = nil
	}

	valid := make([]gesture.SequenceEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			p.log.Debug().Str("phrase", e.Phrase).Msg("skipping incomplete phrase record")
			continue
		}
		valid = append(valid, e)
	}

	p.mu.Lock()
	p.entries = valid
	p.mu.Unlock()

	p.log.Info().Int("phrases", len(valid)).Msg("phrases loaded")
	return copyEntries(valid)
}

// Snapshot returns a copy of the current phrase list.
func (p *Phrases) Snapshot() []gesture.SequenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyEntries(p.entries)
}

// Append adds e at the end of the list. Duplicates are allowed.
func (p *Phrases) Append(e gesture.SequenceEntry) error {
	e.Phrase = strings.TrimSpace(e.Phrase)
	if !e.Valid() {
		return ErrInvalidSequence
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	next := append(copyEntries(p.entries), copyEntry(e))
	if err := p.backend.SavePhrases(next); err != nil {
		return fmt.Errorf("save phrase %q: %w", e.Phrase, err)
	}
	p.entries = next

	p.log.Info().Str("phrase", e.Phrase).Strs("gestures", e.Gestures).Msg("phrase saved")
	return nil
}

func copyEntries(entries []gesture.SequenceEntry) []gesture.SequenceEntry {
	out := make([]gesture.SequenceEntry, len(entries))
	for i, e := range entries {
		out[i] = copyEntry(e)
	}
	return out
}

func copyEntry(e gesture.SequenceEntry) gesture.SequenceEntry {
	return gesture.SequenceEntry{Phrase: e.Phrase, Gestures: append([]string(nil), e.Gestures...)}
}
