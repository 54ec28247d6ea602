package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordbook/pkg/models"
)

// Queue limits
const (
	DefaultQueueLimit = 20
	MaxQueueLimit     = 200
)

// ClampQueueLimit maps limit into [1, MaxQueueLimit]; zero or less selects the default
func ClampQueueLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueueLimit
	}
	return min(limit, MaxQueueLimit)
}

// reviewItemRow is one row of the vocabulary ⋈ progress join
type reviewItemRow struct {
	models.VocabularyEntry
	Proficiency    int    `db:"proficiency"`
	ReviewCount    int    `db:"review_count"`
	SuccessCount   int    `db:"success_count"`
	FailCount      int    `db:"fail_count"`
	LastReviewedAt *int64 `db:"last_reviewed_at"`
	NextReviewAt   *int64 `db:"next_review_at"`
}

func (row reviewItemRow) item() models.ReviewItem {
	return models.ReviewItem{
		VocabularyEntry: row.VocabularyEntry,
		Progress: models.ReviewProgress{
			Word:           row.Key,
			Proficiency:    row.Proficiency,
			ReviewCount:    row.ReviewCount,
			SuccessCount:   row.SuccessCount,
			FailCount:      row.FailCount,
			LastReviewedAt: row.LastReviewedAt,
			NextReviewAt:   row.NextReviewAt,
		},
	}
}

// reviewItemSelect joins every entry with its progress, defaulting missing progress
const reviewItemSelect = `
	SELECT ` + entryColumns + `,
		COALESCE(p.proficiency, 0) AS proficiency,
		COALESCE(p.review_count, 0) AS review_count,
		COALESCE(p.success_count, 0) AS success_count,
		COALESCE(p.fail_count, 0) AS fail_count,
		p.last_reviewed_at,
		p.next_review_at
	FROM vocabulary v
	LEFT JOIN vocabulary_progress p ON p.word_key = v.word_key`

// dueCondition selects rows never reviewed or scheduled at or before the bound time
const dueCondition = `(p.next_review_at IS NULL OR p.next_review_at <= ?)`

// ReviewQueueRepository builds the review queue from vocabulary and progress
type ReviewQueueRepository struct {
	store *Store
}

// NewReviewQueueRepository creates a new repository instance
func NewReviewQueueRepository(store *Store) *ReviewQueueRepository {
	return &ReviewQueueRepository{store: store}
}

// Queue returns up to limit entries ordered by their effective review time
// (next review, or creation for never-reviewed words), newest first on ties.
// With onlyDue, entries scheduled after now are left out.
func (r *ReviewQueueRepository) Queue(ctx context.Context, limit int, onlyDue bool, now time.Time) ([]models.ReviewItem, error) {
	query := reviewItemSelect

	var args []interface{}
	if onlyDue {
		query += ` WHERE ` + dueCondition
		args = append(args, now.UnixMilli())
	}
	query += `
		ORDER BY COALESCE(p.next_review_at, v.created_at) ASC, v.created_at DESC, v.word_key ASC
		LIMIT ?`
	args = append(args, ClampQueueLimit(limit))

	var rows []reviewItemRow
	if err := r.store.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get review queue: %w", err)
	}
	return items(rows), nil
}

// All returns every entry with its progress in one read, ordered like
// VocabularyRepository.List. There is no limit.
func (r *ReviewQueueRepository) All(ctx context.Context) ([]models.ReviewItem, error) {
	var rows []reviewItemRow
	err := r.store.Select(ctx, &rows, reviewItemSelect+`
		ORDER BY v.created_at DESC, v.word_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list words with progress: %w", err)
	}
	return items(rows), nil
}

func items(rows []reviewItemRow) []models.ReviewItem {
	out := make([]models.ReviewItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.item())
	}
	return out
}
