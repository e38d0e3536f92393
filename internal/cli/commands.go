package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/pdxmph/tasks-tui/internal/format"
	"github.com/pdxmph/tasks-tui/internal/view"
)

func runAdd(env Env, args []string) error {
	if len(args) == 0 {
		return usage("add needs the task text")
	}
	result, err := env.Store.Create(strings.Join(args, " "))
	if err := mutationError(result, err); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Added %d: %s\n", result.Task.ID, view.Printable(result.Task.Text))
	return nil
}

func runList(env Env, args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	filterFlag := flagSet.StringP("filter", "f", "", "all, active or completed (default: the saved filter)")
	if err := flagSet.Parse(args); err != nil {
		return usage("list: %v", err)
	}
	if flagSet.NArg() > 0 {
		return usage("list: unexpected argument %q", flagSet.Arg(0))
	}

	filter := env.Gateway.ReadSettings().Filter
	if flagSet.Changed("filter") {
		parsed, err := parseFilter(*filterFlag)
		if err != nil {
			return err
		}
		filter = parsed
	}

	p := view.Project(env.Store.Tasks(), filter)
	styles := newListStyles(env.Stdout, env.Styled)

	if p.Empty != view.EmptyNone {
		fmt.Fprintln(env.Stdout, styles.muted.Render(p.EmptyMessage()))
		return nil
	}

	for _, t := range p.Tasks {
		plain := view.Printable(t.Text)
		mark := styles.box
		text := styles.open.Render(plain)
		if t.Completed {
			mark = styles.check
			text = styles.done.Render(plain)
		}
		fmt.Fprintf(env.Stdout, "%d  %s %s\n", t.ID, mark, text)
	}

	footer := fmt.Sprintf("%s, %d completed (%s)", p.Counts.ItemsLeft(), p.Counts.Completed, filter)
	fmt.Fprintln(env.Stdout, styles.muted.Render(footer))
	return nil
}

func runDone(env Env, args []string) error {
	if len(args) != 1 {
		return usage("done needs exactly one task id")
	}
	t, err := resolveID(env.Store, args[0])
	if err != nil {
		return err
	}
	result, err := env.Store.ToggleCompletion(t.ID)
	if err := mutationError(result, err); err != nil {
		return err
	}
	state := "Reopened"
	if result.Task.Completed {
		state = "Completed"
	}
	fmt.Fprintf(env.Stdout, "%s %d: %s\n", state, result.Task.ID, view.Printable(result.Task.Text))
	return nil
}

func runEdit(env Env, args []string) error {
	if len(args) < 2 {
		return usage("edit needs a task id and the new text")
	}
	t, err := resolveID(env.Store, args[0])
	if err != nil {
		return err
	}
	result, err := env.Store.Edit(t.ID, strings.Join(args[1:], " "))
	if err := mutationError(result, err); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Updated %d: %s\n", result.Task.ID, view.Printable(result.Task.Text))
	return nil
}

func runRemove(env Env, args []string) error {
	if len(args) != 1 {
		return usage("rm needs exactly one task id")
	}
	t, err := resolveID(env.Store, args[0])
	if err != nil {
		return err
	}
	result, err := env.Store.Delete(t.ID)
	if err := mutationError(result, err); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Deleted %d: %s\n", t.ID, view.Printable(t.Text))
	return nil
}

func runClear(env Env, args []string) error {
	if len(args) != 0 {
		return usage("clear takes no arguments")
	}
	result, err := env.Store.ClearCompleted()
	if err := mutationError(result, err); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Cleared %d completed %s\n", result.Removed, plural(result.Removed))
	return nil
}

func runToggleAll(env Env, args []string) error {
	if len(args) != 0 {
		return usage("toggle-all takes no arguments")
	}
	result, err := env.Store.ToggleAll()
	if err := mutationError(result, err); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Updated %d %s\n", result.Changed, plural(result.Changed))
	return nil
}

func runExport(env Env, args []string) error {
	flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	formatFlag := flagSet.String("format", "", "one of: "+strings.Join(format.List(), ", ")+" (default: by file extension, else json)")
	if err := flagSet.Parse(args); err != nil {
		return usage("export: %v", err)
	}
	if flagSet.NArg() > 1 {
		return usage("export takes at most one file")
	}

	path := flagSet.Arg(0)
	if path == "-" {
		path = ""
	}
	encoder, err := format.Select(*formatFlag, path)
	if err != nil {
		return usage("export: %v", err)
	}

	tasks := env.Store.Tasks()
	data, err := encoder.Encode(tasks, env.now())
	if err != nil {
		return fmt.Errorf("encoding %s export: %w", encoder.Name(), err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if path == "" {
		_, err := env.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(env.Stdout, "Exported %d %s to %s (%s)\n", len(tasks), plural(len(tasks)), path, encoder.Name())
	return nil
}

func runImport(env Env, args []string) error {
	if len(args) != 1 {
		return usage("import needs exactly one file")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(env.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading import: %w", err)
	}

	incoming, err := env.Gateway.Import(data)
	if err != nil {
		return fmt.Errorf("parsing import: %w", err)
	}
	result, err := env.Store.Import(incoming)
	if err := mutationError(result, err); err != nil {
		return err
	}
	skipped := len(incoming) - result.Changed
	fmt.Fprintf(env.Stdout, "Imported %d %s (%d skipped)\n", result.Changed, plural(result.Changed), skipped)
	return nil
}

func runInfo(env Env, args []string) error {
	if len(args) != 0 {
		return usage("info takes no arguments")
	}
	out := env.Stdout

	if env.Inspector == nil {
		fmt.Fprintln(out, "storage:   in-memory (nothing is persisted)")
	} else {
		fmt.Fprintf(out, "database:  %s\n", env.Inspector.Path())
		fmt.Fprintf(out, "writer:    %s\n", env.Inspector.WriterID())
	}
	fmt.Fprintf(out, "available: %t\n", env.Gateway.IsAvailable())

	if meta, ok := env.Gateway.ReadMeta(); ok {
		fmt.Fprintf(out, "schema:    %s\n", meta.Version)
		fmt.Fprintf(out, "modified:  %s\n", meta.LastModified.Local().Format(time.DateTime))
		fmt.Fprintf(out, "tasks:     %d\n", meta.TaskCount)
	} else {
		fmt.Fprintln(out, "tasks:     never written")
	}

	if env.Inspector == nil {
		return nil
	}
	entries, err := env.Inspector.Entries()
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}
	fmt.Fprintln(out, "keys:")
	for _, e := range entries {
		origin := "other process"
		if e.Own(env.Inspector.WriterID()) {
			origin = "this process"
		}
		fmt.Fprintf(out, "  %-12s %8s  rev %-4d %s\n", e.Key, formatBytes(e.Size), e.Revision, origin)
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MiB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + " KiB"
	}
	return strconv.Itoa(n) + " B"
}

