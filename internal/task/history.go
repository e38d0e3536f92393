package task

import "slices"

// DefaultHistoryCapacity is the number of undo snapshots kept
const DefaultHistoryCapacity = 50

// History is a fixed-capacity circular buffer of task snapshots. When full,
// pushing overwrites the oldest snapshot.
type History struct {
	entries [][]Task
	start   int
	size    int
}

// NewHistory creates a history holding at most capacity snapshots.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{entries: make([][]Task, capacity)}
}

// Push records a copy of snapshot as the newest entry
func (h *History) Push(snapshot []Task) {
	entry := slices.Clone(snapshot)
	if entry == nil {
		entry = []Task{}
	}

	capacity := len(h.entries)
	if h.size == capacity {
		h.entries[h.start] = entry
		h.start = (h.start + 1) % capacity
		return
	}
	h.entries[(h.start+h.size)%capacity] = entry
	h.size++
}

// Pop removes and returns the newest snapshot
func (h *History) Pop() ([]Task, bool) {
	if h.size == 0 {
		return nil, false
	}
	index := (h.start + h.size - 1) % len(h.entries)
	entry := h.entries[index]
	h.entries[index] = nil
	h.size--
	return entry, true
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return h.size
}

// Cap returns the maximum number of stored snapshots
func (h *History) Cap() int {
	return len(h.entries)
}

// Clear drops every snapshot
func (h *History) Clear() {
	for i := range h.entries {
		h.entries[i] = nil
	}
	h.start = 0
	h.size = 0
}
