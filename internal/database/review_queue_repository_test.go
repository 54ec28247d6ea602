package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordbook/pkg/models"
)

func TestClampQueueLimit(t *testing.T) {
	assert.Equal(t, DefaultQueueLimit, ClampQueueLimit(0))
	assert.Equal(t, DefaultQueueLimit, ClampQueueLimit(-3))
	assert.Equal(t, 1, ClampQueueLimit(1))
	assert.Equal(t, 50, ClampQueueLimit(50))
	assert.Equal(t, MaxQueueLimit, ClampQueueLimit(10_000))
}

func TestQueueOrderingAndDueFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	progress := NewProgressRepository(store)
	queue := NewReviewQueueRepository(store)

	now := baseTime.Add(24 * time.Hour)

	// never reviewed, effective time = created_at
	addWord(t, words, "new-old", baseTime)
	addWord(t, words, "new-young", baseTime.Add(time.Hour))
	// reviewed, due in the past
	addWord(t, words, "overdue", baseTime.Add(2*time.Hour))
	setProgress(t, progress, "overdue", models.ReviewProgress{
		Proficiency: 1, ReviewCount: 1, SuccessCount: 1, NextReviewAt: ms(baseTime.Add(30 * time.Minute)),
	})
	// reviewed, exactly due
	addWord(t, words, "on-time", baseTime.Add(3*time.Hour))
	setProgress(t, progress, "on-time", models.ReviewProgress{
		Proficiency: 2, ReviewCount: 2, SuccessCount: 2, NextReviewAt: ms(now),
	})
	// reviewed, not due yet
	addWord(t, words, "later", baseTime.Add(4*time.Hour))
	setProgress(t, progress, "later", models.ReviewProgress{
		Proficiency: 3, ReviewCount: 3, SuccessCount: 3, NextReviewAt: ms(now.Add(time.Hour)),
	})

	names := func(items []models.ReviewItem) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.Word)
		}
		return out
	}

	due, err := queue.Queue(ctx, 20, true, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-old", "overdue", "new-young", "on-time"}, names(due))

	all, err := queue.Queue(ctx, 20, false, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-old", "overdue", "new-young", "on-time", "later"}, names(all))

	limited, err := queue.Queue(ctx, 2, true, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-old", "overdue"}, names(limited))

	// defaults for words without progress
	first := due[0]
	assert.Equal(t, "new-old", first.Progress.Word)
	assert.Zero(t, first.Progress.Proficiency)
	assert.Zero(t, first.Progress.ReviewCount)
	assert.Nil(t, first.Progress.NextReviewAt)
	assert.Equal(t, "new-old-tr", first.Translation)

	onTime := due[3]
	assert.Equal(t, 2, onTime.Progress.Proficiency)
	assert.Equal(t, now.UnixMilli(), *onTime.Progress.NextReviewAt)
}

func TestQueueTieBreaksNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	progress := NewProgressRepository(store)

	addWord(t, words, "older", baseTime)
	addWord(t, words, "newer", baseTime.Add(time.Minute))
	at := ms(baseTime.Add(10 * time.Minute))
	for _, w := range []string{"older", "newer"} {
		setProgress(t, progress, w, models.ReviewProgress{Proficiency: 0, ReviewCount: 1, FailCount: 1, NextReviewAt: at})
	}

	items, err := NewReviewQueueRepository(store).Queue(ctx, 5, true, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "newer", items[0].Word)
	assert.Equal(t, "older", items[1].Word)
}

func TestQueueLimitClamp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	for i := 0; i < 25; i++ {
		addWord(t, words, fmt.Sprintf("w%02d", i), baseTime.Add(time.Duration(i)*time.Second))
	}
	queue := NewReviewQueueRepository(store)

	items, err := queue.Queue(ctx, 0, true, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, items, DefaultQueueLimit)

	items, err = queue.Queue(ctx, 1000, true, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, items, 25)
}

func TestAllIsNotLimited(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	words := NewVocabularyRepository(store)
	progress := NewProgressRepository(store)
	queue := NewReviewQueueRepository(store)

	total := MaxQueueLimit + 50
	for i := 0; i < total; i++ {
		addWord(t, words, fmt.Sprintf("word-%03d", i), baseTime.Add(time.Duration(i)*time.Second))
	}
	setProgress(t, progress, "word-007", models.ReviewProgress{
		Proficiency: 2, ReviewCount: 3, SuccessCount: 2, FailCount: 1, NextReviewAt: ms(baseTime),
	})

	all, err := queue.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, total)
	assert.Equal(t, fmt.Sprintf("word-%03d", total-1), all[0].Word, "newest first")

	byWord := map[string]models.ReviewItem{}
	for _, it := range all {
		byWord[it.Word] = it
	}
	assert.Equal(t, 2, byWord["word-007"].Progress.Proficiency)
	assert.Equal(t, 3, byWord["word-007"].Progress.ReviewCount)
	assert.Equal(t, "word-007-tr", byWord["word-007"].Translation)
	assert.Zero(t, byWord["word-008"].Progress.ReviewCount)
	assert.Nil(t, byWord["word-008"].Progress.NextReviewAt)
}
