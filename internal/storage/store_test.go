package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}))
}

func finishedDemo(id string) *game.Game {
	g := game.Demo(game.ScoreViewChart, time.UnixMilli(1700000000000)).Archived()
	g.SetEndedAt(time.UnixMilli(1700003600000))
	g.SetID(id)
	return g
}

func TestActiveGameLifecycle(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadActive()
	assert.ErrorIs(t, err, ErrNoActiveGame)

	g := game.Demo(game.ScoreViewChart, time.UnixMilli(1700000000000))
	require.NoError(t, store.Save(g))

	loaded, err := store.LoadActive()
	require.NoError(t, err)
	assert.Equal(t, g.Score(), loaded.Score())
	assert.Equal(t, g.Round(), loaded.Round())

	require.NoError(t, store.ClearActive())
	require.NoError(t, store.ClearActive(), "clearing twice is fine")
	_, err = store.LoadActive()
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestLoadActiveMalformed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ActiveFile), []byte(`{"round":"x"}`), 0o644))

	_, err := store.LoadActive()
	var verr *game.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "dealer", verr.Field)
}

func TestSaveFailureIsStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := NewFileStore(filepath.Join(blocker, "data"), nil)

	err := store.Save(game.Demo(game.ScoreViewChart, time.Now()))
	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "write", serr.Op)
}

func TestArchiveDedupesByID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Archive(finishedDemo("")))
	require.NoError(t, store.Archive(finishedDemo("a1")))
	require.NoError(t, store.Archive(finishedDemo("a1")))
	require.NoError(t, store.Archive(finishedDemo("")))

	raw, err := store.ArchivedRaw()
	require.NoError(t, err)
	assert.Len(t, raw, 3)
}

func TestReplaceAndRemoveArchived(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Archive(finishedDemo("")))
	require.NoError(t, store.Archive(finishedDemo("b2")))

	require.NoError(t, store.ReplaceArchived(0, finishedDemo("z9")))
	raw, err := store.ArchivedRaw()
	require.NoError(t, err)
	first, err := game.Decode(raw[0])
	require.NoError(t, err)
	assert.Equal(t, "z9", first.ID())

	require.NoError(t, store.RemoveArchived(1))
	raw, err = store.ArchivedRaw()
	require.NoError(t, err)
	assert.Len(t, raw, 1)

	var serr *Error
	assert.ErrorAs(t, store.RemoveArchived(5), &serr)
	assert.ErrorAs(t, store.ReplaceArchived(-1, finishedDemo("")), &serr)
}

func TestArchiveKeepsCorruptEntries(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ArchiveFile), []byte(`[{"broken":true}]`), 0o644))

	require.NoError(t, store.Archive(finishedDemo("c3")))
	raw, err := store.ArchivedRaw()
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.JSONEq(t, `{"broken":true}`, string(raw[0]))
}

func TestRememberPlayers(t *testing.T) {
	store := newTestStore(t)

	names, err := store.Players()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.RememberPlayers([]string{"Ann", "Bob"}))
	require.NoError(t, store.RememberPlayers([]string{"Bob", " Cid ", ""}))

	names, err = store.Players()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Bob", "Cid"}, names)
}
