package store

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// failingBackend wraps a Backend and fails writes on demand.
type failingBackend struct {
	Backend
	failWrites bool
}

var errWriteFailed = errors.New("disk full")

func (b *failingBackend) SaveGestures(templates []gesture.Template) error {
	if b.failWrites {
		return errWriteFailed
	}
	return b.Backend.SaveGestures(templates)
}

func (b *failingBackend) SavePhrases(entries []gesture.SequenceEntry) error {
	if b.failWrites {
		return errWriteFailed
	}
	return b.Backend.SavePhrases(entries)
}

func TestLibrary_LoadMissingFileIsEmpty(t *testing.T) {
	var logs bytes.Buffer
	r := newRecordFiles(t, "gestos.json", "frases.json")
	lib := NewLibrary(r, zerolog.New(&logs))

	got := lib.Load()

	assert.Equal(t, 0, got.Len())
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestLibrary_LoadMalformedFileIsEmpty(t *testing.T) {
	var logs bytes.Buffer
	r := newRecordFiles(t, "gestos.json", "frases.json")
	require.NoError(t, os.WriteFile(r.GesturePath(), []byte(`{{{`), 0o644))

	got := NewLibrary(r, zerolog.New(&logs)).Load()

	assert.Equal(t, 0, got.Len())
	assert.Contains(t, logs.String(), "could not load gesture library")
}

func TestLibrary_LoadSkipsIncompleteRecords(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	content := `{"Oi": [[0,0,0],[1,0,0]], "  ": [[0,0,0]], "Vazio": []}`
	require.NoError(t, os.WriteFile(r.GesturePath(), []byte(content), 0o644))

	got := NewLibrary(r, zerolog.Nop()).Load()

	assert.Equal(t, []string{"Oi"}, got.Names())
}

func TestLibrary_UpsertPersists(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	lib := NewLibrary(r, zerolog.Nop())
	lib.Load()

	templates := testTemplates()
	require.NoError(t, lib.Upsert(" Oi ", templates[0].Landmarks))
	require.NoError(t, lib.Upsert("Joia", templates[1].Landmarks))
	require.NoError(t, lib.Upsert("Oi", templates[1].Landmarks))

	reloaded := NewLibrary(r, zerolog.Nop()).Load()
	assert.Equal(t, []string{"Oi", "Joia"}, reloaded.Names())

	oi, ok := reloaded.Get("Oi")
	require.True(t, ok)
	assert.InDeltaSlice(t, flatten(templates[1]), flatten(gesture.Template{Landmarks: oi}), 1e-12)
}

func TestLibrary_UpsertValidation(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	lib := NewLibrary(r, zerolog.Nop())
	lib.Load()

	lm := testTemplates()[0].Landmarks
	require.NoError(t, lib.Upsert("Oi", lm))

	before, err := os.ReadFile(r.GesturePath())
	require.NoError(t, err)

	assert.ErrorIs(t, lib.Upsert("   ", lm), gesture.ErrInvalidName)
	assert.ErrorIs(t, lib.Upsert("Tchau", nil), ErrEmptyLandmarks)

	after, err := os.ReadFile(r.GesturePath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"Oi"}, lib.Snapshot().Names())
}

func TestLibrary_FailedWriteLeavesStateUnchanged(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	backend := &failingBackend{Backend: r}
	lib := NewLibrary(backend, zerolog.Nop())
	lib.Load()

	lm := testTemplates()[0].Landmarks
	require.NoError(t, lib.Upsert("Oi", lm))
	before, err := os.ReadFile(r.GesturePath())
	require.NoError(t, err)

	backend.failWrites = true
	err = lib.Upsert("Tchau", lm)
	assert.ErrorIs(t, err, errWriteFailed)
	assert.ErrorIs(t, lib.Delete("Oi"), errWriteFailed)

	after, err := os.ReadFile(r.GesturePath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"Oi"}, lib.Snapshot().Names())
}

func TestLibrary_Delete(t *testing.T) {
	s := newTestStore(t)
	lib := NewLibrary(s, zerolog.Nop())
	require.NoError(t, lib.Save(gesture.NewLibrary(testTemplates()...)))

	require.NoError(t, lib.Delete("Oi"))
	assert.ErrorIs(t, lib.Delete("Oi"), ErrNotFound)

	reloaded := NewLibrary(s, zerolog.Nop()).Load()
	assert.Equal(t, []string{"Joia"}, reloaded.Names())
}

func TestLibrary_SnapshotIsIsolated(t *testing.T) {
	lib := NewLibrary(newRecordFiles(t, "gestos.json", "frases.json"), zerolog.Nop())
	lib.Load()

	lm := testTemplates()[0].Landmarks
	require.NoError(t, lib.Upsert("Oi", lm))

	snap := lib.Snapshot()
	require.NoError(t, lib.Upsert("Joia", lm))

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 2, lib.Snapshot().Len())

	// The caller's slice is not retained.
	lm[1].X += 5
	stored, _ := lib.Snapshot().Get("Oi")
	assert.NotEqual(t, lm[1].X, stored[1].X)
}

func TestPhrases_AppendAndLoad(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	phrases := NewPhrases(r, zerolog.Nop())
	assert.Empty(t, phrases.Load())

	require.NoError(t, phrases.Append(gesture.SequenceEntry{Phrase: "Oi", Gestures: []string{"Oi"}}))
	require.NoError(t, phrases.Append(gesture.SequenceEntry{Phrase: "Oi", Gestures: []string{"Oi"}}))
	require.NoError(t, phrases.Append(gesture.SequenceEntry{Phrase: " Bom dia ", Gestures: []string{"Bom", "Dia"}}))

	reloaded := NewPhrases(r, zerolog.Nop()).Load()
	require.Len(t, reloaded, 3)
	assert.Equal(t, "Bom dia", reloaded[2].Phrase)
	assert.Equal(t, []string{"Bom", "Dia"}, reloaded[2].Gestures)
}

func TestPhrases_AppendValidation(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	phrases := NewPhrases(r, zerolog.Nop())
	phrases.Load()

	assert.ErrorIs(t, phrases.Append(gesture.SequenceEntry{Phrase: "", Gestures: []string{"Oi"}}), ErrInvalidSequence)
	assert.ErrorIs(t, phrases.Append(gesture.SequenceEntry{Phrase: "Oi"}), ErrInvalidSequence)

	_, err := os.Stat(r.PhrasePath())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPhrases_FailedWriteLeavesStateUnchanged(t *testing.T) {
	backend := &failingBackend{Backend: newRecordFiles(t, "gestos.json", "frases.json"), failWrites: true}
	phrases := NewPhrases(backend, zerolog.Nop())
	phrases.Load()

	err := phrases.Append(gesture.SequenceEntry{Phrase: "Oi", Gestures: []string{"Oi"}})
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Empty(t, phrases.Snapshot())
}

func TestPhrases_LoadSkipsInvalid(t *testing.T) {
	r := newRecordFiles(t, "gestos.json", "frases.json")
	content := `{"frases": [{"nome": "Oi", "sequencia": ["Oi"]}, {"nome": "", "sequencia": ["A"]}, {"nome": "Nada", "sequencia": []}]}`
	require.NoError(t, os.WriteFile(r.PhrasePath(), []byte(content), 0o644))

	got := NewPhrases(r, zerolog.Nop()).Load()
	require.Len(t, got, 1)
	assert.Equal(t, "Oi", got[0].Phrase)
}

func TestPhrases_SnapshotIsIsolated(t *testing.T) {
	phrases := NewPhrases(newRecordFiles(t, "gestos.json", "frases.json"), zerolog.Nop())
	phrases.Load()
	require.NoError(t, phrases.Append(gesture.SequenceEntry{Phrase: "Oi", Gestures: []string{"Oi"}}))

	snap := phrases.Snapshot()
	snap[0].Gestures[0] = "Mudado"

	assert.Equal(t, "Oi", phrases.Snapshot()[0].Gestures[0])
}

func TestLibrary_ImplementsAcrossBackends(t *testing.T) {
	backends := map[string]Backend{
		"records": newRecordFiles(t, "gestos.yaml", "frases.yaml"),
		"sqlite":  newTestStore(t),
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			lib := NewLibrary(backend, zerolog.Nop())
			lib.Load()
			require.NoError(t, lib.Upsert("Oi", detector.LandmarkSet{{X: 0}, {X: 1}}))

			got := NewLibrary(backend, zerolog.Nop()).Load()
			assert.Equal(t, []string{"Oi"}, got.Names())
		})
	}
}
