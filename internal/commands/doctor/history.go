package doctor

import (
	"context"
	"fmt"

	"github.com/tkarvinen/moodlesync/internal/core/history"
	"github.com/tkarvinen/moodlesync/internal/store/jsonfile"
)

// HistoryCheck verifies the download cache file parses cleanly. Sync
// deliberately swallows cache corruption and starts from an empty
// mapping, so this check is where a damaged file actually surfaces.
type HistoryCheck struct {
	store history.Store
	path  string
}

// NewHistoryCheck creates a new download cache check.
func NewHistoryCheck(store history.Store, path string) *HistoryCheck {
	return &HistoryCheck{
		store: store,
		path:  path,
	}
}

func (c *HistoryCheck) Name() string {
	return "Download Cache"
}

func (c *HistoryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if err := jsonfile.Verify(c.path); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "History file",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "History file",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d download(s) recorded", c.store.Len(ctx)),
	})

	return result
}
