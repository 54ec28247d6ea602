package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordbook/pkg/models"
)

func TestApplyCreatesProgressLazily(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	progress := NewProgressRepository(store)

	addWord(t, words, "Owl", baseTime)

	before, err := progress.GetByKey(ctx, "owl")
	require.NoError(t, err)
	assert.Nil(t, before, "adding a word must not create progress")

	var seen models.ReviewProgress
	got, err := progress.Apply(ctx, "owl", func(cur models.ReviewProgress) (models.ReviewProgress, error) {
		seen = cur
		cur.Proficiency = 1
		cur.ReviewCount = 1
		cur.SuccessCount = 1
		cur.NextReviewAt = ms(baseTime)
		return cur, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.ReviewProgress{Word: "owl"}, seen)

	stored, err := progress.GetByKey(ctx, "owl")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, *got, *stored)
	assert.Nil(t, stored.LastReviewedAt)
	assert.Equal(t, baseTime.UnixMilli(), *stored.NextReviewAt)
}

func TestApplyUnknownWord(t *testing.T) {
	progress := NewProgressRepository(newTestStore(t))
	called := false

	got, err := progress.Apply(context.Background(), "nothing", func(cur models.ReviewProgress) (models.ReviewProgress, error) {
		called = true
		return cur, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, called)
}

func TestApplyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	addWord(t, NewVocabularyRepository(store), "crow", baseTime)
	progress := NewProgressRepository(store)

	boom := errors.New("boom")
	_, err := progress.Apply(ctx, "crow", func(models.ReviewProgress) (models.ReviewProgress, error) {
		return models.ReviewProgress{}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := progress.GetByKey(ctx, "crow")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestApplyRejectsBrokenCounters(t *testing.T) {
	store := newTestStore(t)
	addWord(t, NewVocabularyRepository(store), "wren", baseTime)

	_, err := NewProgressRepository(store).Apply(context.Background(), "wren", func(cur models.ReviewProgress) (models.ReviewProgress, error) {
		cur.ReviewCount = 3
		cur.SuccessCount = 1
		return cur, nil
	})
	assert.Error(t, err)
}

func TestApplySerializesConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	addWord(t, NewVocabularyRepository(store), "lark", baseTime)
	progress := NewProgressRepository(store)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := progress.Apply(ctx, "lark", func(cur models.ReviewProgress) (models.ReviewProgress, error) {
				cur.ReviewCount++
				cur.SuccessCount++
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := progress.GetByKey(ctx, "lark")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, workers, got.ReviewCount)
}

func TestDeleteProgress(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	progress := NewProgressRepository(store)

	for _, w := range []string{"one", "two", "three"} {
		addWord(t, words, w, baseTime)
		setProgress(t, progress, w, models.ReviewProgress{Proficiency: 1, ReviewCount: 1, SuccessCount: 1})
	}

	require.NoError(t, progress.Delete(ctx, "one", "missing"))
	got, err := progress.GetByKey(ctx, "one")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = progress.GetByKey(ctx, "two")
	require.NoError(t, err)
	assert.NotNil(t, got)

	require.NoError(t, progress.DeleteAll(ctx))
	got, err = progress.GetByKey(ctx, "three")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := words.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "clearing progress keeps the words")
}
