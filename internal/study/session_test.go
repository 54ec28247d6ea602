package study

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordbook/pkg/models"
)

type fakeReviewer struct {
	items   []models.ReviewItem
	applied map[string]models.Outcome
	reject  map[string]bool
}

func (f *fakeReviewer) ReviewQueue(_ context.Context, limit int, onlyDue bool) []models.ReviewItem {
	if len(f.items) > limit {
		return f.items[:limit]
	}
	return f.items
}

func (f *fakeReviewer) ApplyReviewResult(_ context.Context, word string, o models.Outcome) (models.ReviewProgress, bool) {
	if f.reject[word] {
		return models.ReviewProgress{}, false
	}
	if f.applied == nil {
		f.applied = map[string]models.Outcome{}
	}
	f.applied[word] = o
	next := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC).UnixMilli()
	return models.ReviewProgress{Word: word, Proficiency: 1, NextReviewAt: &next}, true
}

func items(words ...string) []models.ReviewItem {
	out := make([]models.ReviewItem, 0, len(words))
	for _, w := range words {
		out = append(out, models.ReviewItem{VocabularyEntry: models.VocabularyEntry{Word: w, Translation: w + "-tr"}})
	}
	return out
}

func TestSessionAppliesAnswers(t *testing.T) {
	rev := &fakeReviewer{items: items("alpha", "beta", "gamma", "delta")}
	in := strings.NewReader("\nr\n\nwhat\nh\n\nf\n\ns\n")
	var out bytes.Buffer

	sum, err := NewSession(rev, in, &out, 10).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Shown: 4, Remembered: 1, Hard: 1, Forgotten: 1, Skipped: 1}, sum)
	assert.Equal(t, 3, sum.Reviewed())
	assert.Equal(t, map[string]models.Outcome{
		"alpha": models.OutcomeRemember,
		"beta":  models.OutcomeHard,
		"gamma": models.OutcomeForget,
	}, rev.applied)
	assert.Contains(t, out.String(), "alpha-tr")
	assert.Contains(t, out.String(), `unknown answer "what"`)
}

func TestSessionQuit(t *testing.T) {
	rev := &fakeReviewer{items: items("one", "two")}
	sum, err := NewSession(rev, strings.NewReader("\nq\n"), &bytes.Buffer{}, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Shown)
	assert.Zero(t, sum.Reviewed())
	assert.Empty(t, rev.applied)
}

func TestSessionInputEnds(t *testing.T) {
	rev := &fakeReviewer{items: items("one", "two")}
	sum, err := NewSession(rev, strings.NewReader("\nremember\n"), &bytes.Buffer{}, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Remembered)
	assert.Equal(t, 2, sum.Shown)
}

func TestSessionSaveFailure(t *testing.T) {
	rev := &fakeReviewer{items: items("one"), reject: map[string]bool{"one": true}}
	var out bytes.Buffer
	sum, err := NewSession(rev, strings.NewReader("\nr\n"), &out, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, out.String(), "could not save")
}

func TestSessionEmptyQueue(t *testing.T) {
	var out bytes.Buffer
	sum, err := NewSession(&fakeReviewer{}, strings.NewReader(""), &out, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Contains(t, out.String(), "Nothing to review")
}

func TestSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSession(&fakeReviewer{items: items("one")}, strings.NewReader("\nr\n"), &bytes.Buffer{}, 10).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
