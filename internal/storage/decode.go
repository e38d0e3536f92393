package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/task"
)

var errNotArray = errors.New("value is not a JSON array")

// rawTask keeps each field undecoded so a wrong type in one field does not
// reject the whole entry
type rawTask struct {
	ID        json.RawMessage `json:"id"`
	Text      json.RawMessage `json:"text"`
	Completed json.RawMessage `json:"completed"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// DecodeTasks decodes a persisted task array. It fails only when data is
// not a JSON array; individual entries are repaired or dropped. now fills
// in missing timestamps and ids.
func DecodeTasks(data []byte, now time.Time) ([]task.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DecodeError{Key: KeyTasks, Err: errNotArray}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, &DecodeError{Key: KeyTasks, Err: err}
	}

	tasks := make([]task.Task, 0, len(elements))
	seen := make(map[int64]bool, len(elements))
	for i, element := range elements {
		var raw rawTask
		if err := json.Unmarshal(element, &raw); err != nil {
			continue
		}
		t, ok := normalizeTask(raw, now, int64(i))
		if !ok {
			continue
		}
		for seen[t.ID] {
			t.ID++
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// normalizeTask fills defaults for missing or mistyped fields. Entries
// without usable text are rejected.
func normalizeTask(raw rawTask, now time.Time, position int64) (task.Task, bool) {
	text, ok := decodeString(raw.Text)
	if !ok || strings.TrimSpace(text) == "" {
		return task.Task{}, false
	}

	t := task.Task{Text: text}

	if id, ok := decodeID(raw.ID); ok {
		t.ID = id
	} else {
		t.ID = task.NewID(now, position%1000)
	}

	if completed, ok := decodeBool(raw.Completed); ok {
		t.Completed = completed
	}

	if created, ok := decodeTime(raw.CreatedAt); ok {
		t.CreatedAt = created
	} else {
		t.CreatedAt = now
	}

	if updated, ok := decodeTime(raw.UpdatedAt); ok && !updated.Before(t.CreatedAt) {
		t.UpdatedAt = updated
	} else {
		t.UpdatedAt = t.CreatedAt
	}

	return t, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false, false
	}
	return b, true
}

// decodeID accepts integer and fractional JSON numbers; fractional ids
// written by older clients are truncated
func decodeID(raw json.RawMessage) (int64, bool) {
	var number json.Number
	if len(raw) == 0 || json.Unmarshal(raw, &number) != nil {
		return 0, false
	}
	if id, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
		return id, id != 0
	}
	f, err := strconv.ParseFloat(number.String(), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f < 1 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func decodeTime(raw json.RawMessage) (time.Time, bool) {
	s, ok := decodeString(raw)
	if !ok {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// DecodeSettings merges a persisted settings record over the defaults.
// Unknown or mistyped fields keep their default. On error the defaults are
// returned alongside it.
func DecodeSettings(data []byte) (settings.Settings, error) {
	merged := settings.Default()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return merged, &DecodeError{Key: KeySettings, Err: err}
	}
	if fields == nil {
		return merged, &DecodeError{Key: KeySettings, Err: errors.New("value is not a JSON object")}
	}

	if s, ok := decodeString(fields["theme"]); ok {
		if theme, ok := settings.ParseTheme(s); ok {
			merged.Theme = theme
		}
	}
	if s, ok := decodeString(fields["filter"]); ok {
		if filter, ok := settings.ParseFilter(s); ok {
			merged.Filter = filter
		}
	}
	if s, ok := decodeString(fields["sortBy"]); ok && s != "" {
		merged.SortBy = s
	}
	if s, ok := decodeString(fields["sortOrder"]); ok {
		if order, ok := settings.ParseSortOrder(s); ok {
			merged.SortOrder = order
		}
	}
	return merged, nil
}
