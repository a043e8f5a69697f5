// Package mirror drives a course sync: fetching resources through the
// download cache and assembling the Markdown index of a subject folder.
package mirror

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tkarvinen/moodlesync/internal/core/history"
	"github.com/tkarvinen/moodlesync/internal/moodle"
	"github.com/tkarvinen/moodlesync/pkg/sanitize"
)

// Outcome classifies one fetch attempt.
type Outcome int

const (
	// OutcomeCached means the URL was already recorded; no request was made.
	OutcomeCached Outcome = iota
	// OutcomeSaved means the file was downloaded and recorded.
	OutcomeSaved
	// OutcomeSkipped means the server answered with an HTML page, not a file.
	OutcomeSkipped
	// OutcomeFailed means the request or the local write failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeSaved:
		return "saved"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch attempt. Path is relative to the
// subject directory, in forward-slash form, and set only for cached and
// saved outcomes.
type Result struct {
	Outcome Outcome
	Path    string
	Err     error
}

// Stored reports whether the result carries a local file path.
func (r Result) Stored() bool {
	return r.Outcome == OutcomeCached || r.Outcome == OutcomeSaved
}

// suffixRe strips the trailing module-type label Moodle appends to
// resource display names.
var suffixRe = regexp.MustCompile(`(File|URL|Folder)$`)

// extByType maps declared media types to file extensions. Types not
// listed here get no extension at all.
var extByType = map[string]string{
	"application/pdf":               ".pdf",
	"application/msword":            ".doc",
	"application/vnd.ms-powerpoint": ".ppt",
	"application/vnd.ms-excel":      ".xls",
	"application/zip":               ".zip",
	"text/plain":                    ".txt",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
}

// knownExts are document extensions a display name may already carry.
// A name ending in one of these keeps it instead of gaining another.
var knownExts = []string{".pdf", ".docx", ".doc", ".pptx", ".ppt", ".xlsx", ".xls", ".zip"}

// Fetcher retrieves course resources through the download cache into a
// subject directory.
type Fetcher struct {
	client     *moodle.Client
	history    history.Store
	subjectDir string
	log        zerolog.Logger
}

// NewFetcher creates a fetcher rooted at subjectDir.
func NewFetcher(client *moodle.Client, store history.Store, subjectDir string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		history:    store,
		subjectDir: subjectDir,
		log:        log,
	}
}

// Fetch retrieves one resource URL into folder, deriving the stored
// filename from displayName and the response content type. A URL
// already in the cache short-circuits without touching the network.
// Per-resource failures never abort a sync; they come back as
// OutcomeFailed results instead of errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, folder, displayName string) Result {
	if p, ok := f.history.Resolve(ctx, rawURL); ok {
		return Result{Outcome: OutcomeCached, Path: p}
	}

	resp, err := f.client.Get(ctx, directURL(rawURL))
	if err != nil {
		f.log.Error().Err(err).Str("name", displayName).Msg("resource request failed")
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ctype, "text/html") {
		f.log.Debug().Str("url", rawURL).Str("name", displayName).Msg("html response, not a file")
		return Result{Outcome: OutcomeSkipped}
	}

	relPath := path.Join(folder, filename(displayName, ctype))

	if err := f.write(relPath, resp.Body); err != nil {
		f.log.Error().Err(err).Str("name", displayName).Msg("resource write failed")
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	if err := f.history.Put(ctx, rawURL, relPath); err != nil {
		f.log.Error().Err(err).Str("name", displayName).Msg("recording download failed")
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	f.log.Debug().Str("url", rawURL).Str("path", relPath).Msg("saved resource")
	return Result{Outcome: OutcomeSaved, Path: relPath}
}

// write streams body to relPath under the subject directory.
func (f *Fetcher) write(relPath string, body io.Reader) error {
	full := filepath.Join(f.subjectDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create resource directory: %w", err)
	}

	out, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create %s: %w", relPath, err)
	}

	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", relPath, err)
	}

	return out.Close()
}

// directURL appends the redirect=1 hint that makes a resource URL serve
// the file itself instead of its info page.
func directURL(rawURL string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "redirect=1"
}

// filename derives the stored name: the display name minus its
// File/URL/Folder label, sanitized, plus an extension inferred from the
// media type unless the name already ends in a known document extension.
func filename(displayName, ctype string) string {
	base := sanitize.Name(suffixRe.ReplaceAllString(displayName, ""))

	for _, ext := range knownExts {
		if strings.HasSuffix(base, ext) {
			return base
		}
	}

	mediaType := ctype
	if mt, _, err := mime.ParseMediaType(ctype); err == nil {
		mediaType = mt
	}

	return base + extByType[mediaType]
}
