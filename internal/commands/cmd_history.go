package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tkarvinen/moodlesync/internal/printer"
	"github.com/tkarvinen/moodlesync/internal/styles"
)

type HistoryCmd struct {
	flags *Flags

	// Command-specific flags
	clear bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "View or manage the download cache",
		UsageText: "moodlesync history [options]",
		Description: `View or manage the cache of downloaded resources.

By default, lists every recorded download with its local path, whether the
file is still on disk, and its source URL. Use --clear to forget all
downloads; the next sync fetches everything again.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Aliases:     []string{"c"},
				Usage:       "forget all recorded downloads",
				Destination: &cmd.clear,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.clear {
		return cmd.runClear(ctx, p)
	}

	return cmd.runList(ctx, c)
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.History.List(ctx)
	if err != nil {
		return fmt.Errorf("list downloads: %w", err)
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No downloads recorded")
		return nil
	}

	subjects := listSubjectDirs(cmd.flags.Config.Root)

	out := c.Root().Writer
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tSTATUS\tURL")

	for _, e := range entries {
		status := printer.StatusOK()
		if !fileUnderAny(subjects, e.Path) {
			status = printer.StatusFailed("missing")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Path, status, e.URL)
	}

	return w.Flush()
}

// listSubjectDirs returns the subject folders under the output root.
// A missing root means no subjects yet.
func listSubjectDirs(root string) []string {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var dirs []string
	for _, de := range dirEntries {
		if de.IsDir() {
			dirs = append(dirs, filepath.Join(root, de.Name()))
		}
	}

	return dirs
}

// fileUnderAny reports whether the slash-separated cache path resolves
// to a file under any of the given subject folders. Cache paths are
// subject-relative, so every subject is a candidate.
func fileUnderAny(subjects []string, relPath string) bool {
	for _, dir := range subjects {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(relPath))); err == nil {
			return true
		}
	}

	return false
}

func (cmd *HistoryCmd) runClear(ctx context.Context, p *printer.Printer) error {
	count := cmd.flags.History.Len(ctx)
	if count == 0 {
		p.Infof("No downloads recorded")
		return nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		var confirmed bool
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("Forget %d recorded download(s)?", count)).
			Description("The next sync will download everything again.").
			Value(&confirmed)

		if err := huh.NewForm(huh.NewGroup(confirm)).WithTheme(styles.FormTheme()).Run(); err != nil {
			return fmt.Errorf("confirm clear: %w", err)
		}

		if !confirmed {
			p.Infof("Aborted")
			return nil
		}
	}

	if err := cmd.flags.History.Clear(ctx); err != nil {
		return fmt.Errorf("clear download cache: %w", err)
	}

	p.Successf("Download cache cleared (%d entries)", count)
	return nil
}
