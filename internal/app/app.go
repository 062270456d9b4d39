// Package app runs the recognition pipeline: it reads camera frames, finds the
// hand, recognizes gestures and phrases, and tells subscribers and plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// subscriberBuffer is how many results a slow subscriber may fall behind.
const subscriberBuffer = 16

// ErrRunning is returned by Start and Run when the pipeline is already running.
var ErrRunning = errors.New("pipeline already running")

// Config holds the collaborators and settings of an App.
type Config struct {
	Library  *store.Library
	Phrases  *store.Phrases
	Camera   capture.Camera
	Detector detector.Detector
	// Dispatcher is optional; without one no plugins are run.
	Dispatcher *plugin.Dispatcher

	Recognition gesture.Config
	// MotionThreshold is the percentage of changed pixels that wakes the
	// pipeline. Zero disables the motion gate and analyzes every frame.
	MotionThreshold float64
	// CaptureFrames is how many consecutive poses a captured template averages.
	CaptureFrames int

	Log zerolog.Logger
}

// App is the recognition pipeline. One goroutine owns the session state while
// Run is active; everything else is safe for concurrent use.
type App struct {
	config Config
	log    zerolog.Logger

	enabled atomic.Bool
	running atomic.Bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	latest   gesture.Result
	subs     map[int]chan gesture.Result
	nextSub  int
	recorder *gesture.Recorder

	previewers atomic.Int32
	frameMu    sync.RWMutex
	frameJPEG  []byte
	frameSeq   uint64
}

// New creates an App. Recognition starts enabled.
func New(config Config) *App {
	if config.Recognition.WindowSize < 1 {
		config.Recognition.WindowSize = gesture.DefaultWindowSize
	}

	a := &App{
		config:   config,
		log:      config.Log.With().Str("component", "pipeline").Logger(),
		subs:     make(map[int]chan gesture.Result),
		recorder: gesture.NewRecorder(config.CaptureFrames),
		latest:   gesture.Result{Gesture: gesture.NoMatch},
	}
	a.enabled.Store(true)
	return a
}

// SetEnabled pauses or resumes recognition. A paused pipeline keeps the camera
// open but skips detection.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.log.Info().Bool("enabled", enabled).Msg("recognition toggled")
	}
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Running reports whether the pipeline is running.
func (a *App) Running() bool {
	return a.running.Load()
}

// Start runs the pipeline in the background until Stop is called.
func (a *App) Start() error {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	ready := make(chan struct{})
	var runErr error
	go func() {
		runErr = a.run(ctx, ready)
		close(done)
	}()

	select {
	case <-ready:
		return nil
	case <-done:
		// The camera could not be opened.
		a.mu.Lock()
		a.cancel, a.done = nil, nil
		a.mu.Unlock()
		cancel()
		return runErr
	}
}

// Stop halts a pipeline started with Start and waits for it to release the camera.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			return fmt.Errorf("close detector: %w", err)
		}
	}
	return nil
}

// Subscribe returns a channel that receives every result that changes what is
// shown: the gesture label, the window or the phrase. Slow subscribers miss
// results rather than block the pipeline. Call the returned func to unsubscribe.
func (a *App) Subscribe() (<-chan gesture.Result, func()) {
	ch := make(chan gesture.Result, subscriberBuffer)

	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// Latest returns the most recent recognition result.
func (a *App) Latest() gesture.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.latest
	r.Recent = append([]string(nil), r.Recent...)
	return r
}

func (a *App) publish(res gesture.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.latest = res
	for _, ch := range a.subs {
		select {
		case ch <- res:
		default:
		}
	}
}

// CaptureTemplate saves the pose currently in view under name. It fails with
// gesture.ErrInvalidName for a blank name and gesture.ErrNoHand when no hand
// has been seen in the latest frames.
func (a *App) CaptureTemplate(name string) (gesture.Template, error) {
	a.mu.Lock()
	tmpl, err := a.recorder.Template(name)
	a.mu.Unlock()
	if err != nil {
		return gesture.Template{}, err
	}

	if err := a.config.Library.Upsert(tmpl.Name, tmpl.Landmarks); err != nil {
		return gesture.Template{}, err
	}
	a.log.Info().Str("gesture", tmpl.Name).Msg("gesture captured")
	return tmpl, nil
}

// HandVisible reports whether the last analyzed frame showed a hand.
func (a *App) HandVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder.HandVisible()
}

func (a *App) observe(raw detector.LandmarkSet) {
	a.mu.Lock()
	a.recorder.Observe(raw)
	a.mu.Unlock()
}

// Preview registers a preview viewer; while at least one is registered every
// frame is kept as JPEG for LatestFrame. Call the returned func when done.
func (a *App) Preview() func() {
	a.previewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.previewers.Add(-1) })
	}
}

// LatestFrame returns the last preview frame as JPEG and its sequence number.
// The sequence is zero until a frame has been encoded.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.frameJPEG, a.frameSeq
}

func (a *App) setFrame(jpeg []byte) {
	a.frameMu.Lock()
	a.frameJPEG = jpeg
	a.frameSeq++
	a.frameMu.Unlock()
}

// Camera returns the camera the pipeline reads from.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}

// Library returns the gesture library store.
func (a *App) Library() *store.Library {
	return a.config.Library
}

// Phrases returns the phrase store.
func (a *App) Phrases() *store.Phrases {
	return a.config.Phrases
}
