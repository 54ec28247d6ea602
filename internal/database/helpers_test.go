package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/wordbook/pkg/models"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(Options{
		Driver: DriverSQLite3,
		Path:   filepath.Join(t.TempDir(), "data", "vocabulary.db"),
		Logger: quietLogger(),
	})
	t.Cleanup(func() { store.Close() })
	require.Equal(t, Ready, store.EnsureInitialized(context.Background()).Kind)
	return store
}

func addWord(t *testing.T, repo *VocabularyRepository, word string, createdAt time.Time) {
	t.Helper()
	ok, err := repo.Create(context.Background(), models.VocabularyEntry{Word: word, Translation: word + "-tr"}, createdAt)
	require.NoError(t, err)
	require.True(t, ok, word)
}

func setProgress(t *testing.T, repo *ProgressRepository, word string, p models.ReviewProgress) {
	t.Helper()
	got, err := repo.Apply(context.Background(), models.WordKey(word), func(models.ReviewProgress) (models.ReviewProgress, error) {
		return p, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got, word)
}

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}
