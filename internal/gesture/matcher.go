// Package gesture provides gesture recognition: template matching, the recent-gesture
// window and phrase detection over it.
package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// NoMatch is the label reported when no template is close enough to the candidate.
const NoMatch = "---"

// DefaultThreshold is the largest mean pointwise distance still accepted as a match.
const DefaultThreshold = 0.40

// Template is a named, normalized reference hand pose.
type Template struct {
	Name      string               `json:"name"`
	Landmarks detector.LandmarkSet `json:"landmarks"`
}

// Library is an insertion-ordered collection of templates keyed by name.
// Overwriting a name keeps its original position. A Library is not safe for
// concurrent mutation; share read-only snapshots instead.
type Library struct {
	templates []Template
	index     map[string]int
}

// NewLibrary creates a library holding the given templates in order.
func NewLibrary(templates ...Template) *Library {
	l := &Library{index: make(map[string]int, len(templates))}
	for _, t := range templates {
		l.Upsert(t.Name, t.Landmarks)
	}
	return l
}

// Upsert adds a template or replaces the landmarks of an existing one.
func (l *Library) Upsert(name string, landmarks detector.LandmarkSet) {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[name]; ok {
		l.templates[i].Landmarks = landmarks
		return
	}
	l.index[name] = len(l.templates)
	l.templates = append(l.templates, Template{Name: name, Landmarks: landmarks})
}

// Delete removes a template by name and reports whether it existed.
func (l *Library) Delete(name string) bool {
	i, ok := l.index[name]
	if !ok {
		return false
	}
	l.templates = append(l.templates[:i], l.templates[i+1:]...)
	delete(l.index, name)
	for j := i; j < len(l.templates); j++ {
		l.index[l.templates[j].Name] = j
	}
	return true
}

// Get returns the landmarks stored under name.
func (l *Library) Get(name string) (detector.LandmarkSet, bool) {
	if l == nil {
		return nil, false
	}
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.templates[i].Landmarks, true
}

// Len returns the number of templates.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.templates)
}

// Templates returns the templates in library order.
func (l *Library) Templates() []Template {
	if l == nil {
		return nil
	}
	out := make([]Template, len(l.templates))
	copy(out, l.templates)
	return out
}

// Names returns the template names in library order.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.templates))
	for i, t := range l.templates {
		names[i] = t.Name
	}
	return names
}

// Clone returns a deep copy of the library.
func (l *Library) Clone() *Library {
	c := NewLibrary()
	if l == nil {
		return c
	}
	for _, t := range l.templates {
		landmarks := make(detector.LandmarkSet, len(t.Landmarks))
		copy(landmarks, t.Landmarks)
		c.Upsert(t.Name, landmarks)
	}
	return c
}

// Match represents the closest template found for a candidate.
type Match struct {
	Name     string  // Template name, or NoMatch
	Distance float64 // Mean pointwise distance to the closest template (+Inf if none)
	Score    float64 // 1 / (1 + Distance), 0 when nothing was comparable
}

// Matched reports whether the match names a template.
func (m Match) Matched() bool {
	return m.Name != NoMatch
}

// Matcher finds the closest library template to a normalized candidate.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a Matcher with the given acceptance threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// Best returns the closest template within the threshold. Ties keep the template
// that comes first in library order.
func (m *Matcher) Best(candidate detector.LandmarkSet, lib *Library) Match {
	best := Match{Name: NoMatch, Distance: math.Inf(1)}
	bestName := ""

	for _, t := range lib.Templates() {
		d := MeanPointwiseDistance(candidate, t.Landmarks)
		if d < best.Distance {
			best.Distance = d
			bestName = t.Name
		}
	}

	if math.IsInf(best.Distance, 1) {
		return best
	}

	best.Score = 1.0 / (1.0 + best.Distance)
	if best.Distance <= m.Threshold {
		best.Name = bestName
	}
	return best
}

// MatchTemplate returns the name of the closest template within threshold, or NoMatch.
// An empty library always yields NoMatch.
func MatchTemplate(candidate detector.LandmarkSet, lib *Library, threshold float64) string {
	return NewMatcher(threshold).Best(candidate, lib).Name
}

// MeanPointwiseDistance is the arithmetic mean of the Euclidean distances between
// corresponding points. Sets of different length, or empty sets, are infinitely far apart.
func MeanPointwiseDistance(a, b detector.LandmarkSet) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}

	var total float64
	for i := range a {
		total += a[i].Distance(b[i])
	}
	return total / float64(len(a))
}
