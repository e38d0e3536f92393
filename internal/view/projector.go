// Package view derives what the task list displays from a store snapshot.
package view

import (
	"fmt"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// Empty classifies a projection with no visible tasks
type Empty int

const (
	// EmptyNone means at least one task is visible
	EmptyNone Empty = iota
	// EmptyNoTasks means the store holds no tasks at all
	EmptyNoTasks
	// EmptyNoMatches means tasks exist but none pass the filter
	EmptyNoMatches
)

// Counts are computed over the whole store, not the filtered slice
type Counts struct {
	Total        int
	Active       int
	Completed    int
	HasCompleted bool
}

// Projection is the filtered view plus counters
type Projection struct {
	Filter settings.Filter
	Tasks  []task.Task
	Counts Counts
	Empty  Empty
}

// Project selects the tasks visible under filter, keeping store order.
// An unknown filter behaves as FilterAll.
func Project(tasks []task.Task, filter settings.Filter) Projection {
	if _, ok := settings.ParseFilter(string(filter)); !ok {
		filter = settings.FilterAll
	}

	p := Projection{
		Filter: filter,
		Tasks:  make([]task.Task, 0, len(tasks)),
	}
	for _, t := range tasks {
		if t.Completed {
			p.Counts.Completed++
		} else {
			p.Counts.Active++
		}
		if matches(t, filter) {
			p.Tasks = append(p.Tasks, t)
		}
	}
	p.Counts.Total = len(tasks)
	p.Counts.HasCompleted = p.Counts.Completed > 0

	switch {
	case p.Counts.Total == 0:
		p.Empty = EmptyNoTasks
	case len(p.Tasks) == 0:
		p.Empty = EmptyNoMatches
	}
	return p
}

func matches(t task.Task, filter settings.Filter) bool {
	switch filter {
	case settings.FilterActive:
		return !t.Completed
	case settings.FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// EmptyMessage is the text shown in place of an empty list
func (p Projection) EmptyMessage() string {
	switch p.Empty {
	case EmptyNoTasks:
		return "No tasks yet. Add one to get started."
	case EmptyNoMatches:
		switch p.Filter {
		case settings.FilterActive:
			return "No active tasks. Everything is done!"
		case settings.FilterCompleted:
			return "No completed tasks yet."
		}
		return "No tasks match this filter."
	}
	return ""
}

// ItemsLeft renders the active counter, e.g. "1 item left"
func (c Counts) ItemsLeft() string {
	if c.Active == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", c.Active)
}
