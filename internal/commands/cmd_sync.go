package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tkarvinen/moodlesync/internal/core/validate"
	"github.com/tkarvinen/moodlesync/internal/mirror"
	"github.com/tkarvinen/moodlesync/internal/moodle"
	"github.com/tkarvinen/moodlesync/internal/printer"
	"github.com/tkarvinen/moodlesync/internal/styles"
)

type SyncCmd struct {
	flags *Flags

	// Command-specific flags
	subject string
	cookie  string
}

// NewSyncCmd creates a new sync command
func NewSyncCmd(flags *Flags) *SyncCmd {
	return &SyncCmd{flags: flags}
}

// Register adds the sync command to the application
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Mirror a Moodle course into the output root",
		UsageText: "moodlesync sync [options] <course-url> [session-cookie]",
		Description: `Downloads every file resource of a Moodle course into a subject folder,
one subfolder per course section, and writes a Markdown index linking
everything together.

Files already in the download cache at <root>/downloaded_index.json are
never fetched again, so repeat runs only pick up new material.

The MoodleSession cookie can be passed with --cookie, the MOODLE_SESSION
environment variable, or as the second positional argument. With none of
those set, an interactive prompt asks for it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "subject folder name (required)",
				Required:    true,
				Destination: &cmd.subject,
			},
			&cli.StringFlag{
				Name:        "cookie",
				Usage:       "MoodleSession cookie value",
				Sources:     cli.EnvVars("MOODLE_SESSION"),
				Destination: &cmd.cookie,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	courseURL := c.Args().First()
	if courseURL == "" {
		return fmt.Errorf("missing course URL. Run 'moodlesync sync --help' for usage")
	}

	if err := validate.Subject(cmd.subject); err != nil {
		return err
	}

	cookie, err := cmd.resolveCookie(c)
	if err != nil {
		return err
	}

	cfg := cmd.flags.Config
	client, err := moodle.NewClient(courseURL, cookie, cfg.Timeout(), cfg.UserAgent)
	if err != nil {
		return err
	}

	logger := log.With().Str("component", "mirror").Logger()
	svc := mirror.New(client, cmd.flags.History, cfg, p, logger)

	p.Banner()

	sum, err := svc.Sync(ctx, mirror.SyncOptions{CourseURL: courseURL, Subject: cmd.subject})
	if err != nil {
		if errors.Is(err, moodle.ErrSessionExpired) {
			p.Errorf("SESSION EXPIRED: update your cookie and try again")
			return cli.Exit("", 1)
		}
		return fmt.Errorf("sync course: %w", err)
	}

	p.Printf("")
	p.Success(
		fmt.Sprintf("DONE: %s", sum.Subject),
		fmt.Sprintf("%d new, %d cached, %d linked, %d skipped, %d failed",
			sum.Saved, sum.Cached, sum.Linked, sum.Skipped, sum.Failed),
	)

	return nil
}

// resolveCookie finds the session cookie: the --cookie flag (or its
// environment source), then the second positional argument, then an
// interactive prompt when stdin is a terminal.
func (cmd *SyncCmd) resolveCookie(c *cli.Command) (string, error) {
	if cmd.cookie != "" {
		return cmd.cookie, nil
	}

	if arg := c.Args().Get(1); arg != "" {
		return arg, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no session cookie provided; use --cookie or the MOODLE_SESSION environment variable")
	}

	var cookie string
	input := huh.NewInput().
		Title("MoodleSession cookie").
		Description("Copy the MoodleSession value from your browser's cookie storage.").
		EchoMode(huh.EchoModePassword).
		Value(&cookie)

	form := huh.NewForm(huh.NewGroup(input)).WithTheme(styles.FormTheme())
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("read cookie: %w", err)
	}

	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return "", fmt.Errorf("no session cookie provided")
	}

	return cookie, nil
}
