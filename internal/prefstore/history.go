package prefstore

import "github.com/fyrsmithlabs/prefd/internal/feedback"

// DefaultHistoryCapacity is the rolling-window size used when a caller
// supplies no capacity.
const DefaultHistoryCapacity = 50

// History is a fixed-capacity ring buffer of folded event summaries.
// The backing array never grows; once full, each push evicts the oldest
// entry. The zero value is unusable; construct with NewHistory.
type History struct {
	// Events is the backing array, sized to capacity at construction.
	Events []feedback.Summary `json:"events"`

	// Cursor is the next write position.
	Cursor int `json:"cursor"`

	// Count is the number of live entries, at most len(Events).
	Count int `json:"count"`
}

// NewHistory creates an empty ring buffer with the given capacity.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return History{Events: make([]feedback.Summary, capacity)}
}

// Capacity returns the fixed window size.
func (h *History) Capacity() int {
	return len(h.Events)
}

// Push appends a summary, evicting the oldest entry when full.
func (h *History) Push(s feedback.Summary) {
	if len(h.Events) == 0 {
		h.Events = make([]feedback.Summary, DefaultHistoryCapacity)
	}
	h.Events[h.Cursor] = s
	h.Cursor = (h.Cursor + 1) % len(h.Events)
	if h.Count < len(h.Events) {
		h.Count++
	}
}

// Items returns the live entries ordered oldest to newest.
func (h *History) Items() []feedback.Summary {
	out := make([]feedback.Summary, 0, h.Count)
	if h.Count == 0 {
		return out
	}
	start := h.Cursor - h.Count
	if start < 0 {
		start += len(h.Events)
	}
	for i := 0; i < h.Count; i++ {
		out = append(out, h.Events[(start+i)%len(h.Events)])
	}
	return out
}

// Clone returns a deep copy of the ring buffer.
func (h History) Clone() History {
	c := h
	c.Events = make([]feedback.Summary, len(h.Events))
	copy(c.Events, h.Events)
	return c
}
