// Package jsonfile provides the JSON file-backed download cache.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/tkarvinen/moodlesync/internal/core/history"
)

// HistoryStore implements history.Store using a flat JSON object on disk:
// URL keys, relative path values. The file is read once at construction;
// every mutation persists the full mapping so an interrupted run never
// loses previously recorded downloads.
type HistoryStore struct {
	path    string
	mu      sync.RWMutex
	entries map[string]string
}

// NewHistoryStore creates a history store backed by the file at path.
// A missing, empty, or corrupt file yields an empty mapping: a damaged
// cache must never block a sync, it is rebuilt from scratch. Use
// Verify to surface corruption instead.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{
		path:    path,
		entries: loadLenient(path),
	}
}

// Resolve returns the stored relative path for a URL.
func (s *HistoryStore) Resolve(ctx context.Context, url string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.entries[url]
	return p, ok
}

// Put records a URL to relative-path mapping and persists the full
// mapping immediately. Paths are normalized to forward slashes so the
// cache file round-trips across operating systems.
func (s *HistoryStore) Put(ctx context.Context, url, relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[url] = filepath.ToSlash(relPath)
	return s.save()
}

// List returns all entries sorted by URL.
func (s *HistoryStore) List(ctx context.Context) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]history.Entry, 0, len(s.entries))
	for _, url := range slices.Sorted(maps.Keys(s.entries)) {
		entries = append(entries, history.Entry{URL: url, Path: s.entries[url]})
	}

	return entries, nil
}

// Delete removes the entry for a URL. Returns history.ErrNotFound if absent.
func (s *HistoryStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[url]; !ok {
		return history.ErrNotFound
	}

	delete(s.entries, url)
	return s.save()
}

// Clear removes all entries.
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]string)
	return s.save()
}

// Len returns the number of recorded downloads.
func (s *HistoryStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Verify performs the strict parse that NewHistoryStore deliberately
// skips, reporting whether the on-disk file is intact. A missing file
// is fine; malformed content is not.
func Verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read history file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse history file: %w", err)
	}

	return nil
}

// loadLenient reads the mapping from disk, swallowing every failure
// into an empty map.
func loadLenient(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}

	return m
}

// save writes the full mapping to disk atomically.
func (s *HistoryStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename history file: %w", err)
	}

	return nil
}
