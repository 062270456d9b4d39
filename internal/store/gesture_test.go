package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// newTestStore creates a Store backed by a database in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testTemplates() []gesture.Template {
	thumbsUp := detector.ThumbsUpLandmarks()
	openPalm := detector.OpenPalmLandmarks()
	return []gesture.Template{
		{Name: "Oi", Landmarks: detector.Normalize(openPalm.Set())},
		{Name: "Joia", Landmarks: detector.Normalize(thumbsUp.Set())},
	}
}

func TestGestureRepository_ReplaceAllAndList(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	want := testTemplates()
	if err := repo.ReplaceAll(want); err != nil {
		t.Fatalf("failed to save gestures: %v", err)
	}

	got, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list gestures: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Replacing again drops what was there before.
	if err := repo.ReplaceAll(want[1:]); err != nil {
		t.Fatalf("failed to replace gestures: %v", err)
	}
	got, err = repo.List()
	if err != nil {
		t.Fatalf("failed to list gestures: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Joia" {
		t.Errorf("expected only Joia, got %+v", got)
	}

	var orphans int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM gesture_landmarks WHERE gesture_id NOT IN (SELECT id FROM gestures)`).Scan(&orphans); err != nil {
		t.Fatalf("failed to count landmarks: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected landmarks to cascade, found %d orphans", orphans)
	}
}

func TestGestureRepository_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Gestures().List()
	if err != nil {
		t.Fatalf("failed to list gestures: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no gestures, got %d", len(got))
	}
}

func TestGestureRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.ReplaceAll(testTemplates()); err != nil {
		t.Fatalf("failed to save gestures: %v", err)
	}

	if err := repo.Delete("Oi"); err != nil {
		t.Fatalf("failed to delete gesture: %v", err)
	}
	if err := repo.Delete("Oi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := repo.List()
	if len(got) != 1 || got[0].Name != "Joia" {
		t.Errorf("expected only Joia, got %+v", got)
	}
}

func TestPhraseRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Phrases()

	entries := []gesture.SequenceEntry{
		{Phrase: "Oi, tudo bem", Gestures: []string{"Oi", "Tudo", "Bem"}},
		{Phrase: "Oi", Gestures: []string{"Oi"}},
	}
	if err := repo.ReplaceAll(entries); err != nil {
		t.Fatalf("failed to save phrases: %v", err)
	}

	extra := gesture.SequenceEntry{Phrase: "Tchau", Gestures: []string{"Tchau"}}
	if err := repo.Append(extra); err != nil {
		t.Fatalf("failed to append phrase: %v", err)
	}

	got, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list phrases: %v", err)
	}
	want := append(entries, extra)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("phrases mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestStore_ImplementsBackend(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveGestures(testTemplates()); err != nil {
		t.Fatalf("SaveGestures failed: %v", err)
	}
	templates, err := s.LoadGestures()
	if err != nil || len(templates) != 2 {
		t.Fatalf("LoadGestures = %d, %v", len(templates), err)
	}

	if err := s.SavePhrases([]gesture.SequenceEntry{{Phrase: "Oi", Gestures: []string{"Oi"}}}); err != nil {
		t.Fatalf("SavePhrases failed: %v", err)
	}
	entries, err := s.LoadPhrases()
	if err != nil || len(entries) != 1 {
		t.Fatalf("LoadPhrases = %d, %v", len(entries), err)
	}
}
