// Package api provides the HTTP API handlers for the gesture library, the
// phrase list and one-shot recognition.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// maxBodyBytes bounds request bodies; a landmark set is a few kilobytes.
const maxBodyBytes = 1 << 20

// Capturer turns the pose currently in front of the camera into a template.
type Capturer interface {
	CaptureTemplate(name string) (gesture.Template, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// landmarksRequest carries a landmark set, raw or already normalized.
type landmarksRequest struct {
	Landmarks detector.LandmarkSet `json:"landmarks"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON decodes the request body into v, rejecting unknown fields and
// trailing data.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
