package plugin

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// DefaultQueueSize is how many phrases may wait for plugins before new ones are dropped.
	DefaultQueueSize = 8
	// maxOutcomes bounds the kept run history.
	maxOutcomes = 100
)

// Dispatcher runs every phrase plugin for each recognized phrase on its own
// goroutine, so a slow plugin never stalls recognition.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan Request
	log      zerolog.Logger

	mu      sync.Mutex
	results []Outcome
}

// Outcome is the result of one plugin run.
type Outcome struct {
	Plugin  string
	Phrase  string
	Success bool
	Err     error
}

// NewDispatcher creates a Dispatcher. Call Run to start delivering phrases.
func NewDispatcher(manager *Manager, executor *Executor, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		queue:    make(chan Request, DefaultQueueSize),
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Notify queues phrase for delivery. It never blocks; when the queue is full
// the phrase is dropped and false is returned.
func (d *Dispatcher) Notify(phrase string, gestures []string) bool {
	if phrase == "" {
		return false
	}
	req := Request{
		Action:   ActionPhrase,
		Phrase:   phrase,
		Gestures: append([]string(nil), gestures...),
	}
	select {
	case d.queue <- req:
		return true
	default:
		d.log.Warn().Str("phrase", phrase).Msg("plugin queue full, dropping phrase")
		return false
	}
}

// Run delivers queued phrases until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.deliver(ctx, req)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	for _, p := range d.manager.Supporting(req.Action) {
		outcome := Outcome{Plugin: p.Manifest.Name, Phrase: req.Phrase}

		resp, err := d.executor.Execute(ctx, p, &req)
		switch {
		case err != nil:
			outcome.Err = err
			d.log.Error().Err(err).Str("plugin", p.Manifest.Name).Str("phrase", req.Phrase).Msg("plugin failed")
		case !resp.Success:
			d.log.Warn().Str("plugin", p.Manifest.Name).Str("error", resp.Error).Msg("plugin reported failure")
		default:
			outcome.Success = true
			d.log.Debug().Str("plugin", p.Manifest.Name).Str("phrase", req.Phrase).Msg("plugin ran")
		}

		d.mu.Lock()
		d.results = append(d.results, outcome)
		if over := len(d.results) - maxOutcomes; over > 0 {
			d.results = append(d.results[:0], d.results[over:]...)
		}
		d.mu.Unlock()
	}
}

// Outcomes returns the most recent plugin runs, oldest first.
func (d *Dispatcher) Outcomes() []Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Outcome(nil), d.results...)
}
