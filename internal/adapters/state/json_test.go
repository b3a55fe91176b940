package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func TestJSONResultStore_RoundTrip(t *testing.T) {
	store, err := NewJSONResultStore(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, err)
	ctx := context.Background()
	created := time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testInput(), testResult("r1", created)))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Metformin is recommended as first-line therapy.", got.Answer)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.NoError(t, store.Close())
}

func TestJSONResultStore_ListOrderingAndLimit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONResultStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, nil, testResult("b", base)))
	require.NoError(t, store.Save(ctx, nil, testResult("a", base)))
	require.NoError(t, store.Save(ctx, nil, testResult("c", base.Add(time.Minute))))
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}

func TestJSONResultStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONResultStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "missing")
	assert.True(t, core.HasCode(err, core.CodeResultNotFound))

	err = store.Save(ctx, nil, testResult("../escape", time.Now()))
	assert.True(t, core.HasCode(err, core.CodeInvalidResult))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0o600))
	_, err = store.Get(ctx, "bad")
	assert.True(t, core.HasCode(err, core.CodeCorruptResult))
}

func TestJSONResultStore_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONResultStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, nil, testResult("r1", time.Now())))

	path := filepath.Join(dir, "r1.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"confidence": 0.82`, `"confidence": 0.99`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	_, err = store.Get(ctx, "r1")
	assert.True(t, core.HasCode(err, core.CodeCorruptResult))
}

func TestWriteAndReadResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")

	require.NoError(t, WriteResultFile(path, testInput(), testResult("r1", time.Now())))

	input, result, err := ReadResultFile(path)
	require.NoError(t, err)
	assert.Equal(t, "r1", result.ID)
	require.NotNil(t, input)
	assert.Len(t, input.Responses, 1)
}

func TestNewResultStore(t *testing.T) {
	dir := t.TempDir()

	s, err := NewResultStore("", filepath.Join(dir, "results.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteResultStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewResultStore("", filepath.Join(dir, "results"))
	require.NoError(t, err)
	assert.IsType(t, &JSONResultStore{}, s)

	s, err = NewResultStore("SQLite", filepath.Join(dir, "other.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteResultStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewResultStore("redis", filepath.Join(dir, "x"))
	assert.True(t, core.HasCode(err, core.CodeInvalidConfig))

	_, err = NewResultStore("", "  ")
	assert.True(t, core.HasCode(err, core.CodeInvalidConfig))
}

func TestJSONResultStore_InputDeleteAndPrune(t *testing.T) {
	store, err := NewJSONResultStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testInput(), testResult("old", base)))
	require.NoError(t, store.Save(ctx, nil, testResult("new", base.Add(48*time.Hour))))

	input, err := store.GetInput(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, input)
	assert.Len(t, input.Responses, len(testInput().Responses))

	input, err = store.GetInput(ctx, "new")
	require.NoError(t, err)
	assert.Nil(t, input)

	n, err := store.Prune(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "old")
	assert.True(t, core.HasCode(err, core.CodeResultNotFound))

	require.NoError(t, store.Delete(ctx, "new"))
	err = store.Delete(ctx, "new")
	assert.True(t, core.HasCode(err, core.CodeResultNotFound))
}
