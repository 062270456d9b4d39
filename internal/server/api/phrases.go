package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// PhraseHandler handles HTTP requests for the phrase list.
type PhraseHandler struct {
	phrases *store.Phrases
}

// NewPhraseHandler creates a PhraseHandler over phrases.
func NewPhraseHandler(phrases *store.Phrases) *PhraseHandler {
	return &PhraseHandler{phrases: phrases}
}

// ServeHTTP handles GET and POST on /api/phrases.
func (h *PhraseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// createPhraseRequest takes the gestures either as a list or as the
// comma-separated text typed in the registration form.
type createPhraseRequest struct {
	Phrase   string   `json:"phrase"`
	Gestures []string `json:"gestures,omitempty"`
	Sequence string   `json:"sequence,omitempty"`
}

type listPhrasesResponse struct {
	Phrases []gesture.SequenceEntry `json:"phrases"`
}

func (h *PhraseHandler) list(w http.ResponseWriter, r *http.Request) {
	entries := h.phrases.Snapshot()
	if entries == nil {
		entries = []gesture.SequenceEntry{}
	}
	writeJSON(w, http.StatusOK, listPhrasesResponse{Phrases: entries})
}

func (h *PhraseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPhraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	entry := gesture.SequenceEntry{Phrase: req.Phrase, Gestures: req.Gestures}
	if len(entry.Gestures) == 0 {
		entry.Gestures = gesture.ParseSequence(req.Sequence)
	}

	if err := h.phrases.Append(entry); err != nil {
		if errors.Is(err, store.ErrInvalidSequence) {
			writeError(w, http.StatusBadRequest, "Phrase and at least one gesture are required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save phrase")
		return
	}

	entries := h.phrases.Snapshot()
	writeJSON(w, http.StatusCreated, entries[len(entries)-1])
}
