package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// GestureHandler handles HTTP requests for gesture templates.
type GestureHandler struct {
	library  *store.Library
	capturer Capturer
}

// NewGestureHandler creates a GestureHandler over library. capturer may be nil,
// in which case capture requests are answered with 503.
func NewGestureHandler(library *store.Library, capturer Capturer) *GestureHandler {
	return &GestureHandler{library: library, capturer: capturer}
}

// ServeHTTP routes requests to the appropriate method.
// Paths: /api/gestures, /api/gestures/{name} and /api/gestures/{name}/capture.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.list(w, r)
		return
	}

	if name, ok := strings.CutSuffix(path, "/capture"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.capture(w, r, name)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.put(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type gestureResponse struct {
	Name      string               `json:"name"`
	Landmarks detector.LandmarkSet `json:"landmarks"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

func toResponse(t gesture.Template) gestureResponse {
	return gestureResponse{Name: t.Name, Landmarks: t.Landmarks}
}

// list handles GET /api/gestures and returns the library in insertion order.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	templates := h.library.Snapshot().Templates()

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Gestures = append(response.Gestures, toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{name}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	landmarks, ok := h.library.Snapshot().Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	writeJSON(w, http.StatusOK, gestureResponse{Name: name, Landmarks: landmarks})
}

// put handles PUT /api/gestures/{name}. The landmarks are normalized before
// they are stored, so raw detector output may be posted directly.
func (h *GestureHandler) put(w http.ResponseWriter, r *http.Request, name string) {
	var req landmarksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name = strings.TrimSpace(name)
	_, existed := h.library.Snapshot().Get(name)

	landmarks := detector.Normalize(req.Landmarks)
	err := h.library.Upsert(name, landmarks)
	switch {
	case errors.Is(err, gesture.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	case errors.Is(err, store.ErrEmptyLandmarks):
		writeError(w, http.StatusBadRequest, "Landmarks are required")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to save gesture")
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, gestureResponse{Name: name, Landmarks: landmarks})
}

// delete handles DELETE /api/gestures/{name}.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	err := h.library.Delete(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// capture handles POST /api/gestures/{name}/capture and saves the pose in view.
func (h *GestureHandler) capture(w http.ResponseWriter, r *http.Request, name string) {
	if h.capturer == nil {
		writeError(w, http.StatusServiceUnavailable, "Camera not available")
		return
	}

	t, err := h.capturer.CaptureTemplate(name)
	switch {
	case errors.Is(err, gesture.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Name is required")
	case errors.Is(err, gesture.ErrNoHand):
		writeError(w, http.StatusConflict, "No hand detected")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to capture gesture")
	default:
		writeJSON(w, http.StatusCreated, toResponse(t))
	}
}
