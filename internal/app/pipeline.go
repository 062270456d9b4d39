package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Run opens the camera and recognizes gestures until ctx is cancelled or the
// camera runs out of frames. The camera is closed on every return path.
//
// Pipeline logic:
//  1. Start idle (capture.IdleFPS) unless the motion gate is disabled
//  2. Motion switches to active mode (capture.ActiveFPS)
//  3. In active mode, detect the hand and run one recognition cycle
//  4. Publish results that change the gesture, the window or the phrase
//  5. Hand a newly recognized phrase to the plugins
//  6. After capture.IdleTimeout without motion, return to idle
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, nil)
}

func (a *App) run(ctx context.Context, ready chan<- struct{}) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer a.running.Store(false)

	cam := a.config.Camera
	if err := cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := cam.Close(); err != nil {
			a.log.Error().Err(err).Msg("error closing camera")
		}
	}()

	gate := capture.NewGate(a.config.MotionThreshold <= 0)
	var motion *capture.MotionDetector
	if a.config.MotionThreshold > 0 {
		motion = capture.NewMotionDetector(a.config.MotionThreshold)
		defer motion.Close()
	}

	cam.SetFPS(gate.FPS())
	ticker := time.NewTicker(time.Second / time.Duration(gate.FPS()))
	defer ticker.Stop()

	session := gesture.NewSession(a.config.Recognition.WindowSize)
	a.publish(gesture.Result{SessionID: session.ID, Gesture: gesture.NoMatch, Recent: []string{}})

	a.log.Info().Str("session", session.ID).Bool("motion_gate", motion != nil).Msg("detection pipeline started")
	defer a.log.Info().Str("session", session.ID).Msg("detection pipeline stopped")

	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := cam.ReadFrame()
		if errors.Is(err, capture.ErrNoMoreFrames) {
			return nil
		}
		if err != nil {
			a.log.Warn().Err(err).Msg("error reading frame")
			continue
		}

		if motion != nil {
			moved, _ := motion.Detect(frame)
			if active, changed := gate.Update(moved, time.Now()); changed {
				cam.SetFPS(gate.FPS())
				ticker.Reset(time.Second / time.Duration(gate.FPS()))
				a.log.Debug().Bool("active", active).Msg("motion gate switched")
			}
		}

		a.encodePreview(frame)

		if !a.IsEnabled() || !gate.Active() {
			frame.Close()
			continue
		}

		session = a.step(session, frame)
		frame.Close()
	}
}

// step runs one recognition cycle on frame and returns the next session.
func (a *App) step(session gesture.Session, frame *gocv.Mat) gesture.Session {
	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		a.log.Warn().Err(err).Msg("error detecting hands")
		return session
	}

	raw := detector.FirstHand(hands)
	a.observe(raw)

	phrases := a.config.Phrases.Snapshot()
	res, next := gesture.Recognize(session, raw, a.config.Library.Snapshot(), phrases, a.config.Recognition)

	if res.Gesture != session.Gesture || res.WindowChanged || res.PhraseChanged {
		a.publish(res)
	}

	if res.WindowChanged {
		a.log.Debug().Str("gesture", res.Gesture).Float64("distance", res.Distance).Msg("gesture recognized")
	}
	if res.PhraseChanged && res.Phrase != "" {
		a.log.Info().Str("phrase", res.Phrase).Strs("recent", res.Recent).Msg("phrase recognized")
		if a.config.Dispatcher != nil {
			a.config.Dispatcher.Notify(res.Phrase, gesturesOf(phrases, res.Phrase))
		}
	}

	return next
}

// encodePreview keeps frame as JPEG while someone is watching the preview.
func (a *App) encodePreview(frame *gocv.Mat) {
	if a.previewers.Load() == 0 {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		a.log.Debug().Err(err).Msg("error encoding preview frame")
		return
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.setFrame(jpeg)
}

// gesturesOf returns the gesture sequence of the first entry spelling phrase.
func gesturesOf(entries []gesture.SequenceEntry, phrase string) []string {
	for _, e := range entries {
		if e.Phrase == phrase {
			return e.Gestures
		}
	}
	return nil
}
