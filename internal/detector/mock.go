package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed result or, once a script is set, one scripted
// result per Detect call.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	script [][]HandLandmarks
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetScript queues per-frame results. Each Detect call consumes one entry;
// after the script runs out the fixed hands are returned again.
func (m *MockDetector) SetScript(frames ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset hand poses in image coordinates, right hand, palm facing the camera.
var (
	thumbsUpPose = [NumLandmarks]Point3D{
		Wrist:     {0.5, 0.8, 0.0},
		ThumbCMC:  {0.55, 0.75, 0.0},
		ThumbMCP:  {0.58, 0.65, 0.0},
		ThumbIP:   {0.58, 0.50, 0.0},
		ThumbTip:  {0.58, 0.35, 0.0},
		IndexMCP:  {0.55, 0.70, -0.02},
		IndexPIP:  {0.55, 0.68, -0.05},
		IndexDIP:  {0.52, 0.70, -0.04},
		IndexTip:  {0.50, 0.72, -0.02},
		MiddleMCP: {0.50, 0.68, -0.02},
		MiddlePIP: {0.50, 0.66, -0.05},
		MiddleDIP: {0.47, 0.68, -0.04},
		MiddleTip: {0.45, 0.70, -0.02},
		RingMCP:   {0.45, 0.70, -0.02},
		RingPIP:   {0.45, 0.68, -0.05},
		RingDIP:   {0.42, 0.70, -0.04},
		RingTip:   {0.40, 0.72, -0.02},
		PinkyMCP:  {0.40, 0.72, -0.02},
		PinkyPIP:  {0.40, 0.70, -0.05},
		PinkyDIP:  {0.37, 0.72, -0.04},
		PinkyTip:  {0.35, 0.74, -0.02},
	}

	openPalmPose = [NumLandmarks]Point3D{
		Wrist:     {0.5, 0.8, 0.0},
		ThumbCMC:  {0.55, 0.75, 0.02},
		ThumbMCP:  {0.62, 0.70, 0.03},
		ThumbIP:   {0.68, 0.65, 0.03},
		ThumbTip:  {0.73, 0.60, 0.03},
		IndexMCP:  {0.55, 0.68, 0.0},
		IndexPIP:  {0.57, 0.55, 0.0},
		IndexDIP:  {0.58, 0.45, 0.0},
		IndexTip:  {0.58, 0.35, 0.0},
		MiddleMCP: {0.50, 0.66, 0.0},
		MiddlePIP: {0.50, 0.52, 0.0},
		MiddleDIP: {0.50, 0.40, 0.0},
		MiddleTip: {0.50, 0.28, 0.0},
		RingMCP:   {0.45, 0.68, 0.0},
		RingPIP:   {0.43, 0.55, 0.0},
		RingDIP:   {0.42, 0.45, 0.0},
		RingTip:   {0.42, 0.35, 0.0},
		PinkyMCP:  {0.40, 0.70, 0.0},
		PinkyPIP:  {0.37, 0.60, 0.0},
		PinkyDIP:  {0.35, 0.50, 0.0},
		PinkyTip:  {0.34, 0.42, 0.0},
	}

	// Index finger extended, the rest curled: Libras "D"-like pointing hand.
	pointPose = [NumLandmarks]Point3D{
		Wrist:     {0.5, 0.8, 0.0},
		ThumbCMC:  {0.55, 0.76, -0.01},
		ThumbMCP:  {0.58, 0.72, -0.02},
		ThumbIP:   {0.56, 0.69, -0.04},
		ThumbTip:  {0.52, 0.68, -0.05},
		IndexMCP:  {0.55, 0.68, 0.0},
		IndexPIP:  {0.56, 0.55, 0.0},
		IndexDIP:  {0.57, 0.45, 0.0},
		IndexTip:  {0.57, 0.36, 0.0},
		MiddleMCP: {0.50, 0.67, -0.02},
		MiddlePIP: {0.50, 0.64, -0.05},
		MiddleDIP: {0.48, 0.67, -0.04},
		MiddleTip: {0.47, 0.70, -0.02},
		RingMCP:   {0.45, 0.69, -0.02},
		RingPIP:   {0.45, 0.66, -0.05},
		RingDIP:   {0.43, 0.69, -0.04},
		RingTip:   {0.42, 0.71, -0.02},
		PinkyMCP:  {0.40, 0.71, -0.02},
		PinkyPIP:  {0.40, 0.69, -0.05},
		PinkyDIP:  {0.38, 0.71, -0.04},
		PinkyTip:  {0.37, 0.73, -0.02},
	}
)

func presetHand(pose [NumLandmarks]Point3D) HandLandmarks {
	return HandLandmarks{Points: pose, Handedness: "Right", Score: 0.95}
}

// ThumbsUpLandmarks returns a thumbs up: thumb extended upward, other fingers curled.
func ThumbsUpLandmarks() HandLandmarks { return presetHand(thumbsUpPose) }

// OpenPalmLandmarks returns an open palm with all fingers extended.
func OpenPalmLandmarks() HandLandmarks { return presetHand(openPalmPose) }

// PointLandmarks returns a pointing hand: index extended, other fingers curled.
func PointLandmarks() HandLandmarks { return presetHand(pointPose) }
