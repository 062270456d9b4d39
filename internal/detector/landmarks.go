// Package detector provides hand detection interfaces and landmark types for gesture recognition.
package detector

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// It is encoded as a JSON array [x, y, z], the layout used by the gesture record file.
type Point3D struct {
	X float64
	Y float64
	Z float64
}

// Vector returns the point as an r3 vector.
func (p Point3D) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// FromVector converts an r3 vector back to a Point3D.
func FromVector(v r3.Vector) Point3D {
	return Point3D{X: v.X, Y: v.Y, Z: v.Z}
}

// Distance returns the Euclidean distance between two points.
func (p Point3D) Distance(o Point3D) float64 {
	return p.Vector().Distance(o.Vector())
}

// MarshalJSON encodes the point as [x, y, z].
func (p Point3D) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, p.Z})
}

// UnmarshalJSON accepts either [x, y, z] or {"x":..,"y":..,"z":..}.
func (p *Point3D) UnmarshalJSON(data []byte) error {
	var triple []float64
	if err := json.Unmarshal(data, &triple); err == nil {
		if len(triple) != 3 {
			return fmt.Errorf("point has %d coordinates, expected 3", len(triple))
		}
		p.X, p.Y, p.Z = triple[0], triple[1], triple[2]
		return nil
	}

	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	if obj.X == nil || obj.Y == nil || obj.Z == nil {
		return fmt.Errorf("point is missing a coordinate")
	}
	p.X, p.Y, p.Z = *obj.X, *obj.Y, *obj.Z
	return nil
}

// MarshalYAML encodes the point as a sequence [x, y, z].
func (p Point3D) MarshalYAML() (interface{}, error) {
	return []float64{p.X, p.Y, p.Z}, nil
}

// UnmarshalYAML decodes a [x, y, z] sequence.
func (p *Point3D) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var triple []float64
	if err := unmarshal(&triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("point has %d coordinates, expected 3", len(triple))
	}
	p.X, p.Y, p.Z = triple[0], triple[1], triple[2]
	return nil
}

// LandmarkSet is an ordered sequence of hand landmarks. For a tracked hand it holds
// NumLandmarks points in MediaPipe joint order, the wrist first.
type LandmarkSet []Point3D

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Set returns the landmarks as a LandmarkSet. A nil hand yields an empty set.
func (h *HandLandmarks) Set() LandmarkSet {
	if h == nil {
		return nil
	}
	set := make(LandmarkSet, NumLandmarks)
	copy(set, h.Points[:])
	return set
}

// Normalize normalizes the hand landmarks relative to wrist position and hand size.
// Returns a new HandLandmarks instance with normalized points.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(normalized.Points[:], Normalize(h.Points[:]))
	return normalized
}

// Normalize makes a landmark set invariant to hand position and distance from the camera.
//
// Every point is translated so the first point (the wrist) is the origin, then
// divided by the mean distance of the translated points from the origin. When that
// mean is zero, all points coincide with the wrist and the scale falls back to 1.
// The result has the same length and order as the input; an empty input yields an
// empty set.
func Normalize(points LandmarkSet) LandmarkSet {
	if len(points) == 0 {
		return LandmarkSet{}
	}

	base := points[0].Vector()
	translated := make([]r3.Vector, len(points))
	var sum float64
	for i, p := range points {
		translated[i] = p.Vector().Sub(base)
		sum += translated[i].Norm()
	}

	scale := sum / float64(len(points))
	if scale == 0 {
		scale = 1.0
	}

	normalized := make(LandmarkSet, len(points))
	for i, v := range translated {
		normalized[i] = Point3D{X: v.X / scale, Y: v.Y / scale, Z: v.Z / scale}
	}
	return normalized
}
