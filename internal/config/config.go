package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config location
const EnvPath = "TASKS_TUI_CONFIG"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	History  HistoryConfig  `toml:"history"`
	Sync     SyncConfig     `toml:"sync"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path          string `toml:"path"`
	MaxValueBytes int    `toml:"max_value_bytes"`
}

// HistoryConfig bounds the undo history
type HistoryConfig struct {
	Capacity int `toml:"capacity"`
}

// SyncConfig controls detection of writes by other processes
type SyncConfig struct {
	PollInterval Duration `toml:"poll_interval"`
}

// LogConfig sets the minimum level logged
type LogConfig struct {
	Level slog.Level `toml:"level"`
}

// Duration is a time.Duration written as a string such as "750ms"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Path:          filepath.Join(homeDir, ".local", "share", "tasks-tui", "tasks.db"),
			MaxValueBytes: 5 << 20,
		},
		History: HistoryConfig{
			Capacity: 50,
		},
		Sync: SyncConfig{
			PollInterval: Duration{time.Second},
		},
		Log: LogConfig{
			Level: slog.LevelInfo,
		},
	}
}

// DefaultPath returns the config location: $TASKS_TUI_CONFIG if set,
// otherwise ~/.config/tasks-tui/config.toml
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvPath); path != "" {
		return expandPath(path), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tasks-tui", "config.toml"), nil
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. A missing file yields
// the defaults.
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Database.Path != "" {
		cfg.Database.Path = expandPath(cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is empty")
	}
	if c.History.Capacity < 1 {
		return fmt.Errorf("history.capacity must be at least 1, got %d", c.History.Capacity)
	}
	if c.Sync.PollInterval.Duration <= 0 {
		return fmt.Errorf("sync.poll_interval must be positive, got %s", c.Sync.PollInterval)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	configPath, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
