package gesture

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SequenceEntry binds a phrase to the ordered gestures that spell it.
type SequenceEntry struct {
	Phrase   string   `json:"phrase"`
	Gestures []string `json:"gestures"`
}

// Valid reports whether the entry has a phrase and at least one non-empty gesture.
func (e SequenceEntry) Valid() bool {
	if strings.TrimSpace(e.Phrase) == "" || len(e.Gestures) == 0 {
		return false
	}
	for _, g := range e.Gestures {
		if g == "" {
			return false
		}
	}
	return true
}

// MatchPhrase returns the phrase of the first entry whose gesture sequence equals
// the tail of the window, or "" when none does. Entries are tried in list order,
// so earlier registrations win over later ones ending the same way.
func MatchPhrase(w Window, entries []SequenceEntry) string {
	for _, e := range entries {
		if endsWith(w, e.Gestures) {
			return e.Phrase
		}
	}
	return ""
}

func endsWith(w Window, seq []string) bool {
	if len(seq) == 0 || w.Len() < len(seq) {
		return false
	}
	offset := w.Len() - len(seq)
	for i, g := range seq {
		if w.items[offset+i] != g {
			return false
		}
	}
	return true
}

// ParseSequence splits a comma-separated gesture list as typed in the phrase
// registration form: entries are trimmed, empty ones dropped, and each is
// capitalized (first letter upper case, the rest lower case).
func ParseSequence(text string) []string {
	var seq []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seq = append(seq, capitalize(part))
	}
	return seq
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
