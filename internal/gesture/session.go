package gesture

import (
	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
)

// Config holds the tunable recognition parameters.
type Config struct {
	Threshold  float64 // Maximum mean pointwise distance for a match
	WindowSize int     // Capacity of the recent-gesture window
}

// DefaultConfig returns the recognition defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:  DefaultThreshold,
		WindowSize: DefaultWindowSize,
	}
}

// Session is the state of one camera session: the recent-gesture window and the
// phrase currently recognized. Sessions are values; Recognize returns a new one.
type Session struct {
	ID      string
	Window  Window
	Gesture string
	Phrase  string
}

// NewSession starts an empty session with a fresh ID.
func NewSession(windowSize int) Session {
	return Session{
		ID:      uuid.NewString(),
		Window:  NewWindow(windowSize),
		Gesture: NoMatch,
	}
}

// Clone returns a copy of the session that shares no storage with s.
func (s Session) Clone() Session {
	c := s
	c.Window = s.Window.Clone()
	return c
}

// Result is the outcome of one recognition cycle.
type Result struct {
	SessionID     string   `json:"session_id"`
	Gesture       string   `json:"gesture"`
	Distance      float64  `json:"distance,omitempty"`
	Phrase        string   `json:"phrase"`
	HandDetected  bool     `json:"hand_detected"`
	Recent        []string `json:"recent"`
	WindowChanged bool     `json:"-"`
	PhraseChanged bool     `json:"-"`
}

// Recognize runs one per-frame cycle: normalize the raw landmarks, match them
// against the library, push the label into the window and look for a phrase
// ending the window. An empty landmark set means no hand: the label is NoMatch
// and the window is left as is. The input session is not modified.
func Recognize(s Session, raw detector.LandmarkSet, lib *Library, phrases []SequenceEntry, cfg Config) (Result, Session) {
	next := s.Clone()

	res := Result{
		SessionID:    s.ID,
		Gesture:      NoMatch,
		HandDetected: len(raw) > 0,
	}

	if res.HandDetected {
		match := NewMatcher(cfg.Threshold).Best(detector.Normalize(raw), lib)
		res.Gesture = match.Name
		if match.Matched() {
			res.Distance = match.Distance
		}
		res.WindowChanged = next.Window.Push(match.Name)
	}

	next.Gesture = res.Gesture
	next.Phrase = MatchPhrase(next.Window, phrases)

	res.Phrase = next.Phrase
	res.PhraseChanged = next.Phrase != s.Phrase
	res.Recent = next.Window.Items()

	return res, next
}
