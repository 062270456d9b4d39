package main

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSpeechCommand(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/x", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name     string
		goos     string
		cfg      speakConfig
		lookPath func(string) (string, error)
		wantName string
		wantArgs []string
		wantErr  error
	}{
		{"darwin", "darwin", speakConfig{}, missing, "say", []string{"Oi"}, nil},
		{"darwin voice", "darwin", speakConfig{Voice: "Luciana"}, missing, "say", []string{"-v", "Luciana", "Oi"}, nil},
		{"linux espeak", "linux", speakConfig{Voice: "pt-br"}, found, "espeak-ng", []string{"-v", "pt-br", "Oi"}, nil},
		{"linux nothing", "linux", speakConfig{}, missing, "", nil, errNoSpeech},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := speechCommand(tt.goos, "Oi", tt.cfg, tt.lookPath)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if name != tt.wantName || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("speechCommand() = %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestSpeechCommand_WindowsQuotes(t *testing.T) {
	name, args, err := speechCommand("windows", "it's", speakConfig{}, nil)
	if err != nil || name != "powershell" {
		t.Fatalf("unexpected %s %v", name, err)
	}
	if got := args[len(args)-1]; !strings.HasSuffix(got, ".Speak('it''s')") {
		t.Errorf("phrase not quoted: %s", got)
	}
}
