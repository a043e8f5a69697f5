package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a URL has no recorded download.
var ErrNotFound = errors.New("history entry not found")

// Store defines persistence operations for the download cache.
// Once a URL maps to a path, the path is trusted to still exist on
// disk; no freshness check is performed by the store.
type Store interface {
	// Resolve returns the stored relative path for a URL.
	Resolve(ctx context.Context, url string) (string, bool)
	// Put records a URL to relative-path mapping and persists it immediately.
	Put(ctx context.Context, url, relPath string) error
	// List returns all entries sorted by URL.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes the entry for a URL. Returns ErrNotFound if absent.
	Delete(ctx context.Context, url string) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// Len returns the number of recorded downloads.
	Len(ctx context.Context) int
}
