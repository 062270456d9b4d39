// Package main provides a plugin that speaks each recognized phrase aloud
// using the platform's text-to-speech command.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
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

type speakConfig struct {
	Voice string `json:"voice"`
}

var errNoSpeech = errors.New("no text-to-speech command available")

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	if req.Action != "phrase" {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	var cfg speakConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("failed to parse config: %v", err)})
			return
		}
	}

	name, args, err := speechCommand(runtime.GOOS, req.Phrase, cfg, exec.LookPath)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, out)})
		return
	}
	writeResponse(Response{Success: true})
}

// speechCommand picks the command that speaks phrase on goos.
func speechCommand(goos, phrase string, cfg speakConfig, lookPath func(string) (string, error)) (string, []string, error) {
	switch goos {
	case "darwin":
		args := []string{}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		return "say", append(args, phrase), nil
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('" +
			strings.ReplaceAll(phrase, "'", "''") + "')"
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	default:
		for _, name := range []string{"espeak-ng", "espeak"} {
			if _, err := lookPath(name); err != nil {
				continue
			}
			args := []string{}
			if cfg.Voice != "" {
				args = append(args, "-v", cfg.Voice)
			}
			return name, append(args, phrase), nil
		}
		return "", nil, errNoSpeech
	}
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
