package watch

import (
	"log/slog"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// Listener handles a key written by another process
type Listener interface {
	OnExternalChange(key storage.Key) Reload
}

// Reload describes what an external change replaced
type Reload struct {
	Key storage.Key

	// TasksChanged is set when the reloaded task list differs from the
	// snapshot it replaced
	TasksChanged bool

	// Settings holds the reloaded settings when SettingsReloaded is set
	Settings         settings.Settings
	SettingsReloaded bool
}

// Controller reloads the store from the gateway when another process
// writes. The persisted copy always wins; history is kept so undo still
// walks back through local snapshots.
type Controller struct {
	store   *task.Store
	gateway *storage.Gateway
	logger  *slog.Logger
}

// NewController creates a controller over store and gateway
func NewController(store *task.Store, gateway *storage.Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, gateway: gateway, logger: logger}
}

// OnExternalChange reloads the record stored under key. Keys other than
// tasks and settings are ignored.
func (c *Controller) OnExternalChange(key storage.Key) Reload {
	reload := Reload{Key: key}

	switch key {
	case storage.KeyTasks:
		before := c.store.Tasks()
		after := c.gateway.ReadTasks()
		c.store.Replace(after)
		reload.TasksChanged = !task.EqualSlices(before, after)
		c.logger.Debug("reloaded tasks after external write", "count", len(after), "changed", reload.TasksChanged)
	case storage.KeySettings:
		reload.Settings = c.gateway.ReadSettings()
		reload.SettingsReloaded = true
		c.logger.Debug("reloaded settings after external write")
	}
	return reload
}
