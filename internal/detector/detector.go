package detector

import "gocv.io/x/gocv"

// Detector is the hand-tracking collaborator: it turns a camera frame into hand landmarks.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Recognition only uses the first.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the MediaPipe hand model (0 = lite, 1 = full).
	ModelComplexity int
}

// DefaultConfig tracks a single hand with the full model at 0.6 detection and
// tracking confidence.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.6,
		MinTrackingConf: 0.6,
		ModelComplexity: 1,
	}
}

// FirstHand returns the landmark set of the first detected hand, or an empty set
// when no hand was found.
func FirstHand(hands []HandLandmarks) LandmarkSet {
	if len(hands) == 0 {
		return LandmarkSet{}
	}
	return hands[0].Set()
}
