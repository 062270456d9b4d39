package api

import (
	"math"
	"net/http"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// RecognizeHandler matches a posted landmark set against the library without
// touching any session state.
type RecognizeHandler struct {
	library   *store.Library
	threshold float64
}

// NewRecognizeHandler creates a RecognizeHandler using threshold.
func NewRecognizeHandler(library *store.Library, threshold float64) *RecognizeHandler {
	return &RecognizeHandler{library: library, threshold: threshold}
}

type recognizeResponse struct {
	Gesture  string   `json:"gesture"`
	Matched  bool     `json:"matched"`
	Distance *float64 `json:"distance,omitempty"`
}

// ServeHTTP handles POST /api/recognize.
func (h *RecognizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req landmarksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Landmarks) == 0 {
		writeError(w, http.StatusBadRequest, "Landmarks are required")
		return
	}

	match := gesture.NewMatcher(h.threshold).Best(detector.Normalize(req.Landmarks), h.library.Snapshot())

	resp := recognizeResponse{Gesture: match.Name, Matched: match.Matched()}
	if !math.IsInf(match.Distance, 0) && !math.IsNaN(match.Distance) {
		d := match.Distance
		resp.Distance = &d
	}
	writeJSON(w, http.StatusOK, resp)
}
