package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvinen/moodlesync/internal/core/history"
)

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put and resolve", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))

		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "week_1/slides.pdf"))

		got, ok := store.Resolve(ctx, "https://moodle.example/r/1")
		require.True(t, ok)
		assert.Equal(t, "week_1/slides.pdf", got)
	})

	t.Run("resolve missing", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))

		_, ok := store.Resolve(ctx, "https://moodle.example/r/none")
		assert.False(t, ok)
	})

	t.Run("persists across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "downloaded_index.json")

		store := NewHistoryStore(path)
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "week_1/slides.pdf"))
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/2", "week_1/notes.txt"))

		reopened := NewHistoryStore(path)
		got, ok := reopened.Resolve(ctx, "https://moodle.example/r/2")
		require.True(t, ok)
		assert.Equal(t, "week_1/notes.txt", got)
	})

	t.Run("durable form is a flat json object", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "downloaded_index.json")

		store := NewHistoryStore(path)
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", filepath.Join("week_1", "slides.pdf")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, map[string]string{"https://moodle.example/r/1": "week_1/slides.pdf"}, m)
	})

	t.Run("corrupt file yields empty mapping", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "downloaded_index.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		store := NewHistoryStore(path)
		_, ok := store.Resolve(ctx, "https://moodle.example/r/1")
		assert.False(t, ok)

		entries, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing and empty files yield empty mapping", func(t *testing.T) {
		dir := t.TempDir()

		store := NewHistoryStore(filepath.Join(dir, "nope.json"))
		entries, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)

		empty := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(empty, nil, 0o644))
		store = NewHistoryStore(empty)
		entries, err = store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("list sorted by url", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))

		require.NoError(t, store.Put(ctx, "https://moodle.example/r/2", "b"))
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "a"))

		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "https://moodle.example/r/1", entries[0].URL)
		assert.Equal(t, "https://moodle.example/r/2", entries[1].URL)
	})

	t.Run("delete", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))

		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "a"))
		require.NoError(t, store.Delete(ctx, "https://moodle.example/r/1"))

		_, ok := store.Resolve(ctx, "https://moodle.example/r/1")
		assert.False(t, ok)
	})

	t.Run("delete not found", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))

		err := store.Delete(ctx, "https://moodle.example/r/none")
		assert.True(t, errors.Is(err, history.ErrNotFound))
	})

	t.Run("clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "downloaded_index.json")

		store := NewHistoryStore(path)
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "a"))
		require.NoError(t, store.Clear(ctx))

		reopened := NewHistoryStore(path)
		entries, err := reopened.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("len", func(t *testing.T) {
		store := NewHistoryStore(filepath.Join(t.TempDir(), "downloaded_index.json"))
		assert.Equal(t, 0, store.Len(ctx))

		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "a"))
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/2", "b"))
		assert.Equal(t, 2, store.Len(ctx))
	})

	t.Run("save leaves no temp file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "downloaded_index.json")

		store := NewHistoryStore(path)
		require.NoError(t, store.Put(ctx, "https://moodle.example/r/1", "a"))

		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("missing file ok", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Verify(filepath.Join(t.TempDir(), "nope.json")))
	})

	t.Run("valid file ok", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "downloaded_index.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"u": "p"}`), 0o644))
		assert.NoError(t, Verify(path))
	})

	t.Run("corrupt file reported", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "downloaded_index.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		assert.Error(t, Verify(path))
	})

	t.Run("wrong shape reported", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "downloaded_index.json")
		require.NoError(t, os.WriteFile(path, []byte(`["a","b"]`), 0o644))
		assert.Error(t, Verify(path))
	})
}
