package catalog

import "sync"

// DefaultHistorySize is how many recent plays are remembered.
const DefaultHistorySize = 10

// History is a bounded most-recent-first list of played item ids, used only
// to exclude repeats. Oldest entries fall off on overflow.
type History struct {
	mu  sync.Mutex
	ids []string
	cap int
}

// NewHistory creates a history with the given capacity.
// Non-positive capacities fall back to the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{cap: capacity}
}

// Record pushes an id to the front, truncating the oldest on overflow.
func (h *History) Record(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append([]string{id}, h.ids...)
	if len(h.ids) > h.cap {
		h.ids = h.ids[:h.cap]
	}
}

// Contains reports whether an id is anywhere in the history.
func (h *History) Contains(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.ids {
		if v == id {
			return true
		}
	}
	return false
}

// ContainsRecent reports whether an id is in the n most recent plays.
func (h *History) ContainsRecent(id string, n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.ids) {
		n = len(h.ids)
	}
	for _, v := range h.ids[:n] {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the history, most recent first.
func (h *History) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.ids))
	copy(out, h.ids)
	return out
}

// Len returns the number of remembered plays.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ids)
}

// Reset clears the history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = nil
}
