package gesture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/detector"
)

var (
	// ErrInvalidName is returned when a template is requested without a usable name.
	ErrInvalidName = errors.New("no valid name provided")
	// ErrNoHand is returned when a template is requested while no hand is in view.
	ErrNoHand = errors.New("no hand detected")
)

// Recorder watches frames while a new gesture is being captured and turns the
// most recent hand poses into a template.
type Recorder struct {
	frames   int
	recent   []detector.LandmarkSet
	captured int
}

// NewRecorder creates a Recorder averaging up to frames consecutive hand poses.
// A value below 1 keeps only the latest pose.
func NewRecorder(frames int) *Recorder {
	if frames < 1 {
		frames = 1
	}
	return &Recorder{frames: frames}
}

// Observe records the raw landmarks of one frame. A frame without a hand clears
// what was seen so far, so a template is only built from an unbroken run.
func (r *Recorder) Observe(raw detector.LandmarkSet) {
	if len(raw) == 0 {
		r.recent = r.recent[:0]
		return
	}

	frame := make(detector.LandmarkSet, len(raw))
	copy(frame, raw)

	r.recent = append(r.recent, frame)
	if over := len(r.recent) - r.frames; over > 0 {
		r.recent = append(r.recent[:0], r.recent[over:]...)
	}
}

// HandVisible reports whether the last observed frame had a hand.
func (r *Recorder) HandVisible() bool {
	return len(r.recent) > 0
}

// Buffered returns how many poses are available for averaging.
func (r *Recorder) Buffered() int {
	return len(r.recent)
}

// Template builds a normalized template named name from the buffered poses.
func (r *Recorder) Template(name string) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, ErrInvalidName
	}
	if len(r.recent) == 0 {
		return Template{}, ErrNoHand
	}

	normalized := make([]detector.LandmarkSet, len(r.recent))
	for i, raw := range r.recent {
		normalized[i] = detector.Normalize(raw)
	}

	averaged, err := Average(normalized)
	if err != nil {
		return Template{}, err
	}

	r.captured++
	return Template{Name: name, Landmarks: detector.Normalize(averaged)}, nil
}

// Captured returns how many templates have been produced.
func (r *Recorder) Captured() int {
	return r.captured
}

// Average returns the pointwise mean of several landmark sets of equal length.
func Average(sets []detector.LandmarkSet) (detector.LandmarkSet, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	numPoints := len(sets[0])
	if numPoints == 0 {
		return nil, fmt.Errorf("sample 0 has no landmarks")
	}
	for i, set := range sets {
		if len(set) != numPoints {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d", i, len(set), numPoints)
		}
	}

	averaged := make(detector.LandmarkSet, numPoints)
	n := float64(len(sets))
	for i := 0; i < numPoints; i++ {
		var sum r3.Vector
		for _, set := range sets {
			sum = sum.Add(set[i].Vector())
		}
		averaged[i] = detector.FromVector(sum.Mul(1 / n))
	}

	return averaged, nil
}
