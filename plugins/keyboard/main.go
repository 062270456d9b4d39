// Package main provides a keyboard plugin for macOS.
// It types each recognized phrase into the focused window via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Phrase   string          `json:"phrase"`
	Gestures []string        `json:"gestures"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// typingConfig is read from the manifest's config block.
type typingConfig struct {
	// Submit presses return after the phrase.
	Submit bool `json:"submit"`
	// Separator is typed after the phrase when Submit is false.
	Separator string `json:"separator"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "phrase" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	cfg := typingConfig{Separator: " "}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	if err := runAppleScript(buildTypingScript(req.Phrase, cfg)); err != nil {
		writeErrorResponse(fmt.Sprintf("typing %q failed: %v", req.Phrase, err))
		return
	}

	writeSuccessResponse()
}

// buildTypingScript generates an AppleScript that types phrase.
func buildTypingScript(phrase string, cfg typingConfig) string {
	text := escapeAppleScript(phrase)
	if cfg.Submit {
		return fmt.Sprintf("tell application \"System Events\"\nkeystroke \"%s\"\nkey code 36\nend tell", text)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, text+escapeAppleScript(cfg.Separator))
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
