package db

import (
	"fmt"
	"time"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// CreateFixturesDatabase creates a database holding a realistic task list
func CreateFixturesDatabase(dbPath string) error {
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	database, err := Open(dbPath, Options{})
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	now := task.Timestamp(time.Now())
	fixtures := []struct {
		text      string
		completed bool
		age       time.Duration
		touched   time.Duration
	}{
		{"Buy milk and eggs", false, 2 * time.Hour, 2 * time.Hour},
		{"Call the dentist about Tuesday", false, 5 * time.Hour, 5 * time.Hour},
		{"Review pull request #42", true, 26 * time.Hour, 3 * time.Hour},
		{"Renew passport (expires in June)", false, 3 * 24 * time.Hour, 2 * 24 * time.Hour},
		{"Water the plants", true, 4 * 24 * time.Hour, 4 * 24 * time.Hour},
		{"Plan weekend hike: trail, snacks & map", false, 6 * 24 * time.Hour, 6 * 24 * time.Hour},
		{"Café reservation for Friday", true, 8 * 24 * time.Hour, 7 * 24 * time.Hour},
	}

	tasks := make([]task.Task, 0, len(fixtures))
	for i, f := range fixtures {
		created := now.Add(-f.age)
		tasks = append(tasks, task.Task{
			ID:        task.NewID(created, int64(i)),
			Text:      f.text,
			Completed: f.completed,
			CreatedAt: created,
			UpdatedAt: now.Add(-f.touched),
		})
	}

	gateway := storage.NewGateway(database)
	if err := gateway.WriteTasks(tasks); err != nil {
		return fmt.Errorf("writing fixture tasks: %w", err)
	}
	if err := gateway.WriteSettings(settings.Default()); err != nil {
		return fmt.Errorf("writing fixture settings: %w", err)
	}

	return nil
}
