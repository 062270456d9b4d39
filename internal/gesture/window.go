package gesture

// DefaultWindowSize is the number of recent gestures kept for phrase detection.
const DefaultWindowSize = 10

// Window is a bounded history of recently recognized gesture labels, oldest first.
// Consecutive repeats collapse into one entry, so a gesture held across many
// frames counts once.
type Window struct {
	capacity int
	items    []string
}

// NewWindow creates an empty window. A capacity below 1 uses DefaultWindowSize.
func NewWindow(capacity int) Window {
	if capacity < 1 {
		capacity = DefaultWindowSize
	}
	return Window{capacity: capacity, items: make([]string, 0, capacity+1)}
}

// Push appends label unless it is empty, NoMatch, or equal to the most recent
// entry. The oldest entries are evicted once the capacity is exceeded.
// Returns whether the window changed.
func (w *Window) Push(label string) bool {
	if label == "" || label == NoMatch {
		return false
	}
	if n := len(w.items); n > 0 && w.items[n-1] == label {
		return false
	}
	if w.capacity < 1 {
		w.capacity = DefaultWindowSize
	}

	w.items = append(w.items, label)
	if over := len(w.items) - w.capacity; over > 0 {
		w.items = append(w.items[:0], w.items[over:]...)
	}
	return true
}

// Tail returns the last n labels in order, or fewer if the window is shorter.
func (w Window) Tail(n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n > len(w.items) {
		n = len(w.items)
	}
	out := make([]string, n)
	copy(out, w.items[len(w.items)-n:])
	return out
}

// Items returns all labels, oldest first.
func (w Window) Items() []string {
	return w.Tail(len(w.items))
}

// Len returns the number of labels held.
func (w Window) Len() int {
	return len(w.items)
}

// Cap returns the window capacity.
func (w Window) Cap() int {
	return w.capacity
}

// Last returns the most recent label, or "" when empty.
func (w Window) Last() string {
	if len(w.items) == 0 {
		return ""
	}
	return w.items[len(w.items)-1]
}

// Reset empties the window.
func (w *Window) Reset() {
	w.items = w.items[:0]
}

// Clone returns a copy that shares no storage with w.
func (w Window) Clone() Window {
	c := NewWindow(w.capacity)
	c.items = append(c.items, w.items...)
	return c
}
