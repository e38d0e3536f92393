// Package task owns the canonical in-memory task list. The Store applies
// every user mutation, keeps a bounded undo history of snapshots and writes
// each new snapshot through a Persister exactly once.
package task

import (
	"time"
)

// Task is a single to-do item
type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Equal reports whether two tasks carry the same fields
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.Text == other.Text &&
		t.Completed == other.Completed &&
		t.CreatedAt.Equal(other.CreatedAt) &&
		t.UpdatedAt.Equal(other.UpdatedAt)
}

// EqualSlices reports whether two task lists are equal element by element
func EqualSlices(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Texts returns the text of every task in order
func Texts(tasks []Task) []string {
	texts := make([]string, len(tasks))
	for i, t := range tasks {
		texts[i] = t.Text
	}
	return texts
}

// Timestamp normalizes t to the precision and zone used for persisted
// timestamps: UTC with millisecond resolution.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// NewID builds an identifier from a coarse timestamp and a random fraction
// in [0, 1000).
func NewID(now time.Time, fraction int64) int64 {
	return now.UnixMilli()*1000 + fraction
}
