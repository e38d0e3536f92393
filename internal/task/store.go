package task

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/validate"
)

var (
	// ErrNotFound is returned when an operation names a task id that is
	// not in the store. The store is left untouched.
	ErrNotFound = errors.New("task not found")

	// ErrNothingToUndo is returned by Undo when the history is empty
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Persister receives every new snapshot after a mutation
type Persister interface {
	WriteTasks(tasks []Task) error
}

// Result describes the effect of a successful mutation
type Result struct {
	// Task is the created or modified task, zero for bulk operations
	Task Task

	// Removed counts tasks dropped by ClearCompleted or Delete
	Removed int

	// Changed counts tasks modified by ToggleAll or added by Import
	Changed int

	// StorageErr is set when the in-memory change was applied but the
	// write to the persister failed. The change is kept.
	StorageErr error
}

// Store holds the canonical task list and its undo history. It is not safe
// for concurrent use; callers drive it from a single goroutine.
type Store struct {
	tasks     []Task
	history   *History
	persister Persister
	clock     clock.Clock
	fraction  func() int64
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the time source used for ids and timestamps
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithHistoryCapacity sets the number of undo snapshots kept
func WithHistoryCapacity(capacity int) Option {
	return func(s *Store) {
		s.history = NewHistory(capacity)
	}
}

// NewStore creates a store seeded with initial, which is not written back
func NewStore(initial []Task, persister Persister, opts ...Option) *Store {
	s := &Store{
		tasks:     slices.Clone(initial),
		history:   NewHistory(DefaultHistoryCapacity),
		persister: persister,
		clock:     clock.Real(),
		fraction:  func() int64 { return rand.Int64N(1000) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tasks returns a copy of the current snapshot
func (s *Store) Tasks() []Task {
	return slices.Clone(s.tasks)
}

// Len returns the number of tasks
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns the task with the given id
func (s *Store) Get(id int64) (Task, bool) {
	index := s.indexOf(id)
	if index < 0 {
		return Task{}, false
	}
	return s.tasks[index], true
}

// CanUndo reports whether Undo has a snapshot to restore
func (s *Store) CanUndo() bool {
	return s.history.Len() > 0
}

// Create validates text and prepends a new task
func (s *Store) Create(text string) (Result, error) {
	checked := validate.Validate(text, Texts(s.tasks))
	if err := checked.Err(); err != nil {
		return Result{}, err
	}

	now := s.now()
	created := Task{
		ID:        s.newID(now),
		Text:      validate.Sanitize(checked.Cleaned),
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := make([]Task, 0, len(s.tasks)+1)
	next = append(next, created)
	next = append(next, s.tasks...)

	return Result{Task: created, StorageErr: s.commit(next)}, nil
}

// ToggleCompletion flips the completed flag of the task with the given id
func (s *Store) ToggleCompletion(id int64) (Result, error) {
	index := s.indexOf(id)
	if index < 0 {
		return Result{}, ErrNotFound
	}

	next := slices.Clone(s.tasks)
	next[index].Completed = !next[index].Completed
	next[index].UpdatedAt = s.bump(next[index])

	return Result{Task: next[index], StorageErr: s.commit(next)}, nil
}

// Edit replaces the text of a task. The new text is checked for duplicates
// against every other task, so a task may be re-saved unchanged.
func (s *Store) Edit(id int64, text string) (Result, error) {
	index := s.indexOf(id)
	if index < 0 {
		return Result{}, ErrNotFound
	}

	others := make([]string, 0, len(s.tasks)-1)
	for i, t := range s.tasks {
		if i != index {
			others = append(others, t.Text)
		}
	}
	checked := validate.Validate(text, others)
	if err := checked.Err(); err != nil {
		return Result{}, err
	}

	next := slices.Clone(s.tasks)
	next[index].Text = validate.Sanitize(checked.Cleaned)
	next[index].UpdatedAt = s.bump(next[index])

	return Result{Task: next[index], StorageErr: s.commit(next)}, nil
}

// Delete removes the task with the given id
func (s *Store) Delete(id int64) (Result, error) {
	index := s.indexOf(id)
	if index < 0 {
		return Result{}, ErrNotFound
	}

	removed := s.tasks[index]
	next := slices.Delete(slices.Clone(s.tasks), index, index+1)

	return Result{Task: removed, Removed: 1, StorageErr: s.commit(next)}, nil
}

// ClearCompleted removes every completed task in one step. With nothing
// completed it is a no-op that neither records history nor writes.
func (s *Store) ClearCompleted() (Result, error) {
	next := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			next = append(next, t)
		}
	}

	removed := len(s.tasks) - len(next)
	if removed == 0 {
		return Result{}, nil
	}

	return Result{Removed: removed, StorageErr: s.commit(next)}, nil
}

// ToggleAll marks every task incomplete when all are completed, otherwise
// marks every task complete. Only tasks whose flag changes are bumped.
func (s *Store) ToggleAll() (Result, error) {
	if len(s.tasks) == 0 {
		return Result{}, nil
	}

	allCompleted := true
	for _, t := range s.tasks {
		if !t.Completed {
			allCompleted = false
			break
		}
	}
	target := !allCompleted

	next := slices.Clone(s.tasks)
	changed := 0
	for i := range next {
		if next[i].Completed == target {
			continue
		}
		next[i].Completed = target
		next[i].UpdatedAt = s.bump(next[i])
		changed++
	}

	return Result{Changed: changed, StorageErr: s.commit(next)}, nil
}

// Undo restores the previous snapshot. The restore itself is not recorded.
func (s *Store) Undo() (Result, error) {
	previous, ok := s.history.Pop()
	if !ok {
		return Result{}, ErrNothingToUndo
	}
	s.tasks = previous
	return Result{StorageErr: s.persister.WriteTasks(slices.Clone(s.tasks))}, nil
}

// Import prepends tasks that are not already present by id or by
// case-insensitive text. Text is sanitized; entries that sanitize to
// nothing are skipped.
func (s *Store) Import(incoming []Task) (Result, error) {
	ids := make(map[int64]bool, len(s.tasks))
	texts := make([]string, 0, len(s.tasks)+len(incoming))
	for _, t := range s.tasks {
		ids[t.ID] = true
		texts = append(texts, t.Text)
	}

	now := s.now()
	var added []Task
	for _, t := range incoming {
		text := validate.Sanitize(t.Text)
		if !validate.Validate(text, texts).OK {
			continue
		}
		if t.ID == 0 || ids[t.ID] {
			t.ID = s.newIDExcluding(now, ids)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		t.Text = text
		ids[t.ID] = true
		texts = append(texts, text)
		added = append(added, t)
	}

	if len(added) == 0 {
		return Result{}, nil
	}

	next := make([]Task, 0, len(added)+len(s.tasks))
	next = append(next, added...)
	next = append(next, s.tasks...)

	return Result{Changed: len(added), StorageErr: s.commit(next)}, nil
}

// Replace swaps in a snapshot loaded from elsewhere. History is kept and
// nothing is written.
func (s *Store) Replace(tasks []Task) {
	s.tasks = slices.Clone(tasks)
}

// commit records the current snapshot in history, installs next and
// writes it once
func (s *Store) commit(next []Task) error {
	s.history.Push(s.tasks)
	s.tasks = next
	return s.persister.WriteTasks(slices.Clone(next))
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

func (s *Store) now() time.Time {
	return Timestamp(s.clock.Now())
}

// bump returns the new UpdatedAt for t, never earlier than its current one
func (s *Store) bump(t Task) time.Time {
	now := s.now()
	if now.Before(t.UpdatedAt) {
		return t.UpdatedAt
	}
	return now
}

func (s *Store) newID(now time.Time) int64 {
	ids := make(map[int64]bool, len(s.tasks))
	for _, t := range s.tasks {
		ids[t.ID] = true
	}
	return s.newIDExcluding(now, ids)
}

// newIDExcluding draws time-based ids until one is not in taken, falling
// back to the next free integer after a few random attempts
func (s *Store) newIDExcluding(now time.Time, taken map[int64]bool) int64 {
	id := NewID(now, s.fraction())
	for attempt := 0; taken[id]; attempt++ {
		if attempt < 8 {
			id = NewID(now, s.fraction())
		} else {
			id++
		}
	}
	return id
}
