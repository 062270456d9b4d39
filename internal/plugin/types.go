// Package plugin runs external programs when a phrase is recognized.
//
// A plugin is a directory holding a plugin.json manifest and an executable. The
// executable receives a Request as JSON on stdin and answers with a Response
// on stdout.
package plugin

import "encoding/json"

// ActionPhrase is the action sent when the recognized phrase changes.
const ActionPhrase = "phrase"

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Actions     []string        `json:"actions"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action   string          `json:"action"`
	Phrase   string          `json:"phrase"`
	Gestures []string        `json:"gestures"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
