package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tkarvinen/moodlesync/internal/core/history"
)

// StaleCheck detects cache entries whose downloaded file exists under
// no subject folder anymore. Stale entries make sync skip files that
// are gone from disk.
type StaleCheck struct {
	store history.Store
	root  string
	fix   bool
}

// NewStaleCheck creates a new stale entry check.
// If fix is true, stale entries are removed from the cache so the next
// sync downloads them again.
func NewStaleCheck(store history.Store, root string, fix bool) *StaleCheck {
	return &StaleCheck{
		store: store,
		root:  root,
		fix:   fix,
	}
}

func (c *StaleCheck) Name() string {
	return "Downloaded Files"
}

func (c *StaleCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	entries, err := c.store.List(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "List downloads",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(entries) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "No downloads recorded",
			Status: StatusPass,
		})
		return result
	}

	subjects, err := subjectDirs(c.root)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Read output root",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	var stale []history.Entry
	for _, e := range entries {
		if !foundUnder(subjects, e.Path) {
			stale = append(stale, e)
		}
	}

	if len(stale) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "All files present",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d download(s) checked", len(entries)),
		})
		return result
	}

	for _, e := range stale {
		if c.fix {
			if err := c.store.Delete(ctx, e.URL); err != nil {
				result.Items = append(result.Items, CheckItem{
					Label:  e.Path,
					Status: StatusFail,
					Detail: fmt.Sprintf("failed to forget: %v", err),
				})
			} else {
				result.Items = append(result.Items, CheckItem{
					Label:  e.Path,
					Status: StatusPass,
					Detail: "forgotten; next sync will download it again",
				})
			}
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:   e.Path,
				Status:  StatusWarn,
				Detail:  "file missing on disk",
				Fixable: true,
			})
		}
	}

	return result
}

// subjectDirs lists the subject folders under the output root. A
// missing root means no folders at all.
func subjectDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}

	return dirs, nil
}

// foundUnder reports whether relPath resolves to a file under any of
// the subject directories. Cache paths are subject-relative, so a file
// present under one subject counts as present.
func foundUnder(subjects []string, relPath string) bool {
	for _, dir := range subjects {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(relPath))); err == nil {
			return true
		}
	}

	return false
}
