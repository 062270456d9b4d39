package detector

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func transform(set LandmarkSet, scale float64, offset Point3D) LandmarkSet {
	out := make(LandmarkSet, len(set))
	for i, p := range set {
		out[i] = Point3D{
			X: p.X*scale + offset.X,
			Y: p.Y*scale + offset.Y,
			Z: p.Z*scale + offset.Z,
		}
	}
	return out
}

func assertSetsClose(t *testing.T, got, want LandmarkSet, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Distance(want[i]) > tol {
			t.Errorf("point %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	hand := ThumbsUpLandmarks()
	raw := hand.Set()

	t.Run("wrist at origin after normalization", func(t *testing.T) {
		normalized := Normalize(raw)

		if normalized[Wrist] != (Point3D{}) {
			t.Errorf("expected wrist at origin, got %+v", normalized[Wrist])
		}
	})

	t.Run("mean distance from wrist is 1.0", func(t *testing.T) {
		normalized := Normalize(raw)

		var sum float64
		for _, p := range normalized {
			sum += p.Distance(Point3D{})
		}
		mean := sum / float64(len(normalized))

		if math.Abs(mean-1.0) > epsilon {
			t.Errorf("expected mean distance 1.0, got %f", mean)
		}
	})

	t.Run("preserves length and order", func(t *testing.T) {
		normalized := Normalize(raw)
		if len(normalized) != NumLandmarks {
			t.Fatalf("expected %d points, got %d", NumLandmarks, len(normalized))
		}
		// Thumb tip stays above the wrist (negative Y after translation).
		if normalized[ThumbTip].Y >= 0 {
			t.Errorf("expected thumb tip above wrist, got Y=%f", normalized[ThumbTip].Y)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		before := hand.Set()
		Normalize(raw)
		assertSetsClose(t, raw, before, 0)
	})

	t.Run("translation and scale invariant", func(t *testing.T) {
		want := Normalize(raw)

		tests := []struct {
			name   string
			scale  float64
			offset Point3D
		}{
			{"translated", 1, Point3D{X: 0.3, Y: -0.2, Z: 0.1}},
			{"closer to camera", 2.5, Point3D{}},
			{"farther and shifted", 0.4, Point3D{X: -0.1, Y: 0.05, Z: 0.7}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := Normalize(transform(raw, tt.scale, tt.offset))
				assertSetsClose(t, got, want, 1e-9)
			})
		}
	})

	t.Run("empty input returns empty set", func(t *testing.T) {
		if got := Normalize(nil); len(got) != 0 {
			t.Errorf("expected empty result, got %d points", len(got))
		}
	})

	t.Run("degenerate input falls back to unit scale", func(t *testing.T) {
		same := Point3D{X: 0.4, Y: 0.4, Z: 0.1}
		set := LandmarkSet{same, same, same}

		got := Normalize(set)
		for i, p := range got {
			if p != (Point3D{}) {
				t.Errorf("point %d: expected origin, got %+v", i, p)
			}
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
				t.Errorf("point %d is NaN", i)
			}
		}
	})

	t.Run("single point is the origin", func(t *testing.T) {
		got := Normalize(LandmarkSet{{X: 3, Y: 4, Z: 5}})
		if len(got) != 1 || got[0] != (Point3D{}) {
			t.Errorf("expected [origin], got %+v", got)
		}
	})
}

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("preserves handedness and score", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		normalized := hand.Normalize()

		if normalized.Handedness != hand.Handedness {
			t.Errorf("expected handedness %s, got %s", hand.Handedness, normalized.Handedness)
		}
		if normalized.Score != hand.Score {
			t.Errorf("expected score %f, got %f", hand.Score, normalized.Score)
		}
		assertSetsClose(t, normalized.Points[:], Normalize(hand.Set()), 0)
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.Normalize() != nil {
			t.Error("expected nil result for nil input")
		}
	})
}

func TestPoint3D_JSON(t *testing.T) {
	t.Run("encodes as triple", func(t *testing.T) {
		data, err := json.Marshal(LandmarkSet{{X: 1, Y: 2.5, Z: -3}})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != "[[1,2.5,-3]]" {
			t.Errorf("unexpected encoding %s", data)
		}
	})

	t.Run("decodes object form", func(t *testing.T) {
		var p Point3D
		if err := json.Unmarshal([]byte(`{"x":0.1,"y":0.2,"z":0.3}`), &p); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if p != (Point3D{X: 0.1, Y: 0.2, Z: 0.3}) {
			t.Errorf("unexpected point %+v", p)
		}
	})

	t.Run("rejects short triple", func(t *testing.T) {
		var p Point3D
		if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
			t.Error("expected error for two coordinates")
		}
	})

	t.Run("rejects missing coordinate", func(t *testing.T) {
		var p Point3D
		if err := json.Unmarshal([]byte(`{"x":1,"y":2}`), &p); err == nil {
			t.Error("expected error for missing z")
		}
	})
}

func TestFirstHand(t *testing.T) {
	if got := FirstHand(nil); len(got) != 0 {
		t.Errorf("expected empty set for no hands, got %d points", len(got))
	}

	hands := []HandLandmarks{PointLandmarks(), OpenPalmLandmarks()}
	got := FirstHand(hands)
	if len(got) != NumLandmarks {
		t.Fatalf("expected %d points, got %d", NumLandmarks, len(got))
	}
	if got[IndexTip] != hands[0].Points[IndexTip] {
		t.Error("expected landmarks of the first hand")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("plays script then falls back", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})
		mock.SetScript(nil, []HandLandmarks{PointLandmarks()})

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 0 {
			t.Errorf("expected no hands on first frame, got %d", len(first))
		}
		if len(second) != 1 || second[0].Points[IndexTip] != PointLandmarks().Points[IndexTip] {
			t.Error("expected scripted pointing hand on second frame")
		}
		if len(third) != 1 || third[0].Points[MiddleTip] != OpenPalmLandmarks().Points[MiddleTip] {
			t.Error("expected fixed hands after script ran out")
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresetPoses(t *testing.T) {
	thumbsUp := ThumbsUpLandmarks()
	openPalm := OpenPalmLandmarks()

	t.Run("thumbs up has thumb above its MCP", func(t *testing.T) {
		if thumbsUp.Points[ThumbTip].Y >= thumbsUp.Points[ThumbMCP].Y {
			t.Error("thumb tip should be above thumb MCP (lower Y value)")
		}
	})

	t.Run("open palm has all fingers extended", func(t *testing.T) {
		fingers := [][2]int{
			{IndexMCP, IndexTip},
			{MiddleMCP, MiddleTip},
			{RingMCP, RingTip},
			{PinkyMCP, PinkyTip},
		}
		for _, f := range fingers {
			if ext := openPalm.Points[f[0]].Y - openPalm.Points[f[1]].Y; ext < 0.2 {
				t.Errorf("finger tip %d not extended enough (extension: %f)", f[1], ext)
			}
		}
	})

	t.Run("poses are distinct after normalization", func(t *testing.T) {
		a := Normalize(thumbsUp.Set())
		b := Normalize(openPalm.Set())
		var diff float64
		for i := range a {
			diff += a[i].Distance(b[i])
		}
		if diff/float64(len(a)) < 0.1 {
			t.Errorf("expected distinct poses, mean distance %f", diff/float64(len(a)))
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("skips hands with wrong point count", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0,"y":0,"z":0}],"handedness":"Left","score":0.9}]}`)
		hands, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected truncated hand to be dropped, got %d", len(hands))
		}
	})

	t.Run("reports service error", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`{"error":"bad frame"}`)); err == nil {
			t.Error("expected error from service")
		}
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`not json`)); err == nil {
			t.Error("expected parse error")
		}
	})
}
