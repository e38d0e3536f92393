package view

import (
	"testing"
	"time"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/task"
)

func makeTasks(completed ...bool) []task.Task {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tasks := make([]task.Task, len(completed))
	for i, done := range completed {
		tasks[i] = task.Task{
			ID:        int64(i + 1),
			Text:      string(rune('a' + i)),
			Completed: done,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return tasks
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestProjectFilters(t *testing.T) {
	tasks := makeTasks(false, true, false, true, true)

	tests := []struct {
		filter settings.Filter
		want   []int64
	}{
		{settings.FilterAll, []int64{1, 2, 3, 4, 5}},
		{settings.FilterActive, []int64{1, 3}},
		{settings.FilterCompleted, []int64{2, 4, 5}},
		{settings.Filter("bogus"), []int64{1, 2, 3, 4, 5}},
	}

	for _, test := range tests {
		t.Run(string(test.filter), func(t *testing.T) {
			p := Project(tasks, test.filter)
			got := ids(p.Tasks)
			if len(got) != len(test.want) {
				t.Fatalf("got %v, want %v", got, test.want)
			}
			for i := range got {
				if got[i] != test.want[i] {
					t.Errorf("got %v, want %v", got, test.want)
					break
				}
			}
			want := Counts{Total: 5, Active: 2, Completed: 3, HasCompleted: true}
			if p.Counts != want {
				t.Errorf("counts = %+v, want %+v", p.Counts, want)
			}
			if p.Empty != EmptyNone {
				t.Errorf("Empty = %v, want EmptyNone", p.Empty)
			}
		})
	}
}

func TestProjectPartition(t *testing.T) {
	tasks := makeTasks(true, false, false, true, false, false)
	active := Project(tasks, settings.FilterActive)
	completed := Project(tasks, settings.FilterCompleted)
	all := Project(tasks, settings.FilterAll)

	if len(active.Tasks)+len(completed.Tasks) != len(all.Tasks) {
		t.Errorf("active (%d) + completed (%d) != all (%d)", len(active.Tasks), len(completed.Tasks), len(all.Tasks))
	}
	seen := map[int64]bool{}
	for _, tk := range append(active.Tasks, completed.Tasks...) {
		if seen[tk.ID] {
			t.Errorf("task %d in both partitions", tk.ID)
		}
		seen[tk.ID] = true
	}
}

func TestProjectEmptyStates(t *testing.T) {
	empty := Project(nil, settings.FilterActive)
	if empty.Empty != EmptyNoTasks {
		t.Errorf("no tasks: Empty = %v", empty.Empty)
	}
	if empty.Counts != (Counts{}) {
		t.Errorf("no tasks: counts = %+v", empty.Counts)
	}
	if empty.Tasks == nil {
		t.Error("Tasks should be non-nil")
	}

	allActive := makeTasks(false, false)
	p := Project(allActive, settings.FilterCompleted)
	if p.Empty != EmptyNoMatches {
		t.Errorf("no matches: Empty = %v", p.Empty)
	}
	if p.Counts.HasCompleted {
		t.Error("HasCompleted should be false")
	}
	if p.EmptyMessage() == empty.EmptyMessage() {
		t.Error("no-match and no-task messages should differ")
	}

	allDone := Project(makeTasks(true), settings.FilterActive)
	if allDone.EmptyMessage() == p.EmptyMessage() {
		t.Error("messages should differ per filter")
	}

	if msg := Project(allActive, settings.FilterAll).EmptyMessage(); msg != "" {
		t.Errorf("non-empty projection message = %q", msg)
	}
}

func TestItemsLeft(t *testing.T) {
	tests := []struct {
		active int
		want   string
	}{
		{0, "0 items left"},
		{1, "1 item left"},
		{4, "4 items left"},
	}
	for _, test := range tests {
		if got := (Counts{Active: test.active}).ItemsLeft(); got != test.want {
			t.Errorf("ItemsLeft(%d) = %q, want %q", test.active, got, test.want)
		}
	}
}
