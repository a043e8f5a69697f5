package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tkarvinen/moodlesync/internal/core/config"
	"github.com/tkarvinen/moodlesync/internal/core/course"
	"github.com/tkarvinen/moodlesync/internal/core/history"
	"github.com/tkarvinen/moodlesync/internal/moodle"
	"github.com/tkarvinen/moodlesync/internal/printer"
	"github.com/tkarvinen/moodlesync/pkg/htmltext"
	"github.com/tkarvinen/moodlesync/pkg/sanitize"
)

// IndexFileName is the Markdown index written at the subject root.
const IndexFileName = "README.md"

// SectionNoteFileName is the per-section context note.
const SectionNoteFileName = "context.txt"

// SyncOptions are the inputs for one course sync.
type SyncOptions struct {
	CourseURL string
	Subject   string
}

// Summary reports what one sync did.
type Summary struct {
	Title    string
	Subject  string
	Sections int
	Saved    int
	Cached   int
	Skipped  int
	Failed   int
	Linked   int
}

// Service coordinates a course sync end to end: course page, state
// snapshot, per-section downloads, and the Markdown index.
type Service struct {
	client  *moodle.Client
	history history.Store
	config  *config.Config
	printer *printer.Printer
	log     zerolog.Logger
}

// New creates a sync service.
func New(client *moodle.Client, store history.Store, cfg *config.Config, p *printer.Printer, log zerolog.Logger) *Service {
	return &Service{
		client:  client,
		history: store,
		config:  cfg,
		printer: p,
		log:     log,
	}
}

// Sync mirrors one course into its subject directory and returns a
// summary of what changed. Per-resource failures are counted, not
// returned; only course-level failures produce an error.
func (s *Service) Sync(ctx context.Context, opts SyncOptions) (*Summary, error) {
	s.log.Info().Str("url", opts.CourseURL).Str("subject", opts.Subject).Msg("starting sync")

	html, err := s.client.Page(ctx, opts.CourseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch course page: %w", err)
	}

	page, err := moodle.ParseCoursePage(html, s.config.LoginMarker)
	if err != nil {
		return nil, fmt.Errorf("parse course page: %w", err)
	}

	stateData, err := s.client.State(ctx, page.CourseID, page.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetch course state: %w", err)
	}

	state, err := course.ParseState(stateData)
	if err != nil {
		return nil, err
	}

	subjectDir := s.config.SubjectDir(opts.Subject)
	if err := os.MkdirAll(filepath.Join(subjectDir, s.config.NotesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}

	modules := state.ModuleIndex()
	fetcher := NewFetcher(s.client, s.history, subjectDir, s.log)
	idx := NewIndex(page.Title, opts.CourseURL, s.config.NotesDir)

	summary := &Summary{
		Title:   page.Title,
		Subject: sanitize.Name(opts.Subject),
	}

	for i, sec := range state.Sections {
		title := sec.DisplayTitle()
		if !s.config.IncludeSection(title) {
			s.log.Debug().Str("section", title).Msg("section filtered out")
			continue
		}

		summary.Sections++
		s.printer.Progress(i+1, len(state.Sections))
		s.printer.SectionHeader(title)

		folder := sanitize.Name(title)
		folderPath := filepath.Join(subjectDir, folder)

		_, statErr := os.Stat(folderPath)
		isNew := os.IsNotExist(statErr)

		if err := os.MkdirAll(folderPath, 0o755); err != nil {
			return nil, fmt.Errorf("create section directory: %w", err)
		}

		if err := writeSectionNote(folderPath, title, sec.Summary); err != nil {
			return nil, fmt.Errorf("write section note: %w", err)
		}

		idx.AddSection(title)

		updated := false
		for _, id := range sec.ModuleIDs {
			mod, ok := modules[id]
			if !ok {
				// stale reference in the snapshot
				continue
			}

			linkTitle := htmltext.Line(mod.Name)
			if !mod.IsResource() {
				idx.AddRemote(linkTitle, mod.URL)
				summary.Linked++
				continue
			}

			// A URL outside the cache marks the section changed even
			// when the fetch itself ends up skipped or failed.
			if _, seen := s.history.Resolve(ctx, mod.URL); !seen {
				updated = true
			}

			res := fetcher.Fetch(ctx, mod.URL, folder, mod.Name)
			switch res.Outcome {
			case OutcomeCached:
				summary.Cached++
				s.printer.ExistItem(mod.Name)
			case OutcomeSaved:
				summary.Saved++
				s.printer.NewItem(path.Base(res.Path))
			case OutcomeSkipped:
				summary.Skipped++
			case OutcomeFailed:
				summary.Failed++
				s.printer.ErrItem(mod.Name, res.Err)
			}

			if res.Stored() {
				idx.AddLocal(res.Path, linkTitle)
			}
		}

		if !updated && !isNew {
			s.printer.NothingNew()
		}
	}

	if err := os.WriteFile(filepath.Join(subjectDir, IndexFileName), []byte(idx.Render()), 0o644); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}

	s.log.Info().
		Int("sections", summary.Sections).
		Int("saved", summary.Saved).
		Int("cached", summary.Cached).
		Int("failed", summary.Failed).
		Msg("sync complete")

	return summary, nil
}

// writeSectionNote writes the per-section context file: the section
// title plus a plain-text rendering of its summary, if it has one.
func writeSectionNote(folderPath, title, summaryHTML string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "SECTION: %s\n", title)
	if summaryHTML != "" {
		fmt.Fprintf(&b, "\n[SUMMARY]\n%s\n", htmltext.Flatten(summaryHTML))
	}
	return os.WriteFile(filepath.Join(folderPath, SectionNoteFileName), []byte(b.String()), 0o644)
}
