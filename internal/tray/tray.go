// Package tray provides the system tray menu: the current gesture and phrase,
// a recognition toggle, a link to the web UI and quit.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuPhrase  *systray.MenuItem
}

// New creates a new Tray with recognition enabled.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback called when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback called when the web UI item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra sign recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle recognition")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem(gestureTitle(""), "Current gesture")
	t.menuGesture.Disable()
	t.menuPhrase = systray.AddMenuItem(phraseTitle(""), "Current phrase")
	t.menuPhrase.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Mudra...", "Open the web UI in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle flips the enabled state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Show updates the gesture and phrase items from a recognition result.
func (t *Tray) Show(res gesture.Result) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(res.Gesture))
	}
	if t.menuPhrase != nil {
		t.menuPhrase.SetTitle(phraseTitle(res.Phrase))
	}
}

// Watch shows every result received until results is closed.
func (t *Tray) Watch(results <-chan gesture.Result) {
	for res := range results {
		t.Show(res)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func gestureTitle(name string) string {
	if name == "" || name == gesture.NoMatch {
		return "Gesture: " + gesture.NoMatch
	}
	return "Gesture: " + name
}

// phraseTitle shortens long phrases so the menu stays narrow.
func phraseTitle(phrase string) string {
	const maxRunes = 40

	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "Phrase: none"
	}
	if r := []rune(phrase); len(r) > maxRunes {
		phrase = string(r[:maxRunes-1]) + "…"
	}
	return "Phrase: " + phrase
}
