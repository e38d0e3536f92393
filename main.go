// tasks-tui is a terminal task list backed by a local sqlite file.
//
// With no arguments it runs the interactive TUI. With a subcommand it runs
// that one operation and exits; a TUI open on the same database picks the
// change up within a poll interval.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/pdxmph/tasks-tui/internal/cli"
	"github.com/pdxmph/tasks-tui/internal/config"
	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/tui"
	"github.com/pdxmph/tasks-tui/internal/watch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		dbPath     string
		initDB     bool
		fixtures   bool
	)

	flagSet := pflag.NewFlagSet("tasks-tui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $TASKS_TUI_CONFIG or ~/.config/tasks-tui/config.toml)")
	flagSet.StringVar(&dbPath, "db", "", "path to the database (overrides the config file)")
	flagSet.BoolVar(&initDB, "init", false, "create an empty database and exit")
	flagSet.BoolVar(&fixtures, "fixtures", false, "create a database with sample tasks and exit")
	flagSet.BoolP("help", "h", false, "show help")
	// flags after the subcommand belong to it
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return &cli.UsageError{Message: err.Error()}
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	switch {
	case initDB:
		if err := db.Initialize(cfg.Database.Path); err != nil {
			return err
		}
		fmt.Printf("Created database at %s\n", cfg.Database.Path)
		return nil
	case fixtures:
		if err := db.CreateFixturesDatabase(cfg.Database.Path); err != nil {
			return err
		}
		fmt.Printf("Created fixtures database at %s\n", cfg.Database.Path)
		return nil
	}

	args := flagSet.Args()
	if len(args) > 0 {
		if !cli.IsCommand(args[0]) {
			return &cli.UsageError{Message: fmt.Sprintf("unknown command %q (see --help)", args[0])}
		}
		return runCommand(cfg, args)
	}
	return runTUI(cfg)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// runCommand runs one subcommand against the database. Unlike the TUI it
// does not fall back to memory: a command whose write cannot land is an
// error.
func runCommand(cfg *config.Config, args []string) error {
	logger := cli.NewLogger(cfg.Log.Level)

	database, err := db.Open(cfg.Database.Path, db.Options{
		MaxValueBytes: cfg.Database.MaxValueBytes,
		Create:        true,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	gateway := storage.NewGateway(database, storage.WithLogger(logger))
	store := task.NewStore(gateway.ReadTasks(), gateway, task.WithHistoryCapacity(cfg.History.Capacity))

	return cli.Run(cli.Env{
		Store:     store,
		Gateway:   gateway,
		Inspector: database,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Styled:    cli.IsTerminal(os.Stdout),
	}, args)
}

// runTUI runs the interactive list. Background logging goes through the
// TUI log handler so records land in the status bar instead of corrupting
// the alt screen.
func runTUI(cfg *config.Config) error {
	handler := tui.NewLogHandler(max(cfg.Log.Level, slog.LevelWarn))
	logger := slog.New(handler)

	var kv storage.KV
	database, err := db.Open(cfg.Database.Path, db.Options{
		MaxValueBytes: cfg.Database.MaxValueBytes,
		Create:        true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\nchanges in this session will not be saved\n", err)
		kv = storage.NewMemoryKV(cfg.Database.MaxValueBytes)
	} else {
		defer database.Close()
		kv = database
	}

	gateway := storage.NewGateway(kv, storage.WithLogger(logger))
	store := task.NewStore(gateway.ReadTasks(), gateway, task.WithHistoryCapacity(cfg.History.Capacity))

	opts := tui.Options{
		Store:               store,
		Gateway:             gateway,
		Settings:            gateway.ReadSettings(),
		PersistenceDisabled: database == nil || !gateway.IsAvailable(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if database != nil {
		changes := make(chan watch.Change, 8)
		watcher := watch.NewWatcher(database,
			watch.WithInterval(cfg.Sync.PollInterval.Duration),
			watch.WithLogger(logger),
		)
		go func() {
			// Run only returns once ctx is cancelled
			_ = watcher.Run(ctx, changes)
		}()
		opts.Controller = watch.NewController(store, gateway, logger)
		opts.Changes = changes
	}

	program := tea.NewProgram(tui.New(opts), tea.WithAltScreen())
	handler.SetProgram(program)

	_, err = program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tasks-tui - a terminal task list.

With no command, opens the interactive list. Every instance opened on the
same database sees the others' changes.

Usage:
  tasks-tui [flags]
  tasks-tui [flags] COMMAND [ARGS]

Examples:
  # Open the list
  tasks-tui

  # Add a task from a script
  tasks-tui add "Water the plants"

  # Show what is left
  tasks-tui list --filter active

`)
	cli.PrintUsage(os.Stderr)
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
