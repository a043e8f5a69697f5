package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tkarvinen/moodlesync/internal/mirror"
	"github.com/tkarvinen/moodlesync/internal/styles"
)

// previewMaxWidth caps the rendered line width on wide terminals.
const previewMaxWidth = 100

type PreviewCmd struct {
	flags *Flags

	// Command-specific flags
	subject string
	raw     bool
}

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(flags *Flags) *PreviewCmd {
	return &PreviewCmd{flags: flags}
}

// Register adds the preview command to the application
func (cmd *PreviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "preview",
		Usage:       "Render a subject's Markdown index in the terminal",
		UsageText:   "moodlesync preview -o <subject>",
		Description: "Renders the README.md that sync generated for the given subject.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "subject folder name (required)",
				Required:    true,
				Destination: &cmd.subject,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the raw Markdown without rendering",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PreviewCmd) run(ctx context.Context, c *cli.Command) error {
	indexPath := filepath.Join(cmd.flags.Config.SubjectDir(cmd.subject), mirror.IndexFileName)

	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no index found for %q; run 'moodlesync sync' first", cmd.subject)
		}
		return fmt.Errorf("read index: %w", err)
	}

	out := c.Root().Writer

	if cmd.raw {
		_, err := fmt.Fprintln(out, string(data))
		return err
	}

	_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render(indexPath))
	_, _ = fmt.Fprintln(out, styles.DividerStyle.Render(strings.Repeat("─", 60)))

	rendered, err := renderMarkdown(string(data))
	if err != nil {
		// degraded output beats none
		_, err := fmt.Fprintln(out, string(data))
		return err
	}

	_, err = fmt.Fprint(out, rendered)
	return err
}

// renderMarkdown renders markdown content for terminal display.
func renderMarkdown(md string) (string, error) {
	width := previewMaxWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	return renderer.Render(md)
}
