package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/wordbook/pkg/models"
)

const progressColumns = `
	word_key,
	proficiency,
	review_count,
	success_count,
	fail_count,
	last_reviewed_at,
	next_review_at`

// ProgressRepository handles database operations for review progress
type ProgressRepository struct {
	store *Store
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(store *Store) *ProgressRepository {
	return &ProgressRepository{store: store}
}

// GetByKey returns the progress of key, or nil when the word was never reviewed
func (r *ProgressRepository) GetByKey(ctx context.Context, key string) (*models.ReviewProgress, error) {
	var progress models.ReviewProgress
	err := r.store.Get(ctx, &progress, `SELECT `+progressColumns+` FROM vocabulary_progress WHERE word_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for %q: %w", key, err)
	}
	return &progress, nil
}

// Apply reads the progress of key, passes it to next and stores the result,
// all in one transaction under the write lock. Words never reviewed start from
// the zero value. It returns nil when key has no vocabulary entry.
func (r *ProgressRepository) Apply(
	ctx context.Context,
	key string,
	next func(current models.ReviewProgress) (models.ReviewProgress, error),
) (*models.ReviewProgress, error) {
	var result *models.ReviewProgress

	err := r.store.WithTx(ctx, func(ctx context.Context, q Querier) error {
		var n int
		if err := q.GetContext(ctx, &n, q.Rebind(`SELECT COUNT(*) FROM vocabulary WHERE word_key = ?`), key); err != nil {
			return fmt.Errorf("failed to check word %q: %w", key, err)
		}
		if n == 0 {
			return nil
		}

		current := models.ReviewProgress{Word: key}
		err := q.GetContext(ctx, &current, q.Rebind(`SELECT `+progressColumns+` FROM vocabulary_progress WHERE word_key = ?`), key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get progress for %q: %w", key, err)
		}

		updated, err := next(current)
		if err != nil {
			return err
		}
		updated.Word = key

		if err := upsertProgress(ctx, q, updated); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// upsertProgress writes the whole progress row in one statement
func upsertProgress(ctx context.Context, q Querier, p models.ReviewProgress) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO vocabulary_progress (
			word_key, proficiency, review_count, success_count, fail_count, last_reviewed_at, next_review_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_key) DO UPDATE SET
			proficiency = excluded.proficiency,
			review_count = excluded.review_count,
			success_count = excluded.success_count,
			fail_count = excluded.fail_count,
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_at = excluded.next_review_at
	`),
		p.Word,
		p.Proficiency,
		p.ReviewCount,
		p.SuccessCount,
		p.FailCount,
		p.LastReviewedAt,
		p.NextReviewAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress for %q: %w", p.Word, err)
	}
	return nil
}

// Delete removes the progress of the given keys; missing keys are ignored
func (r *ProgressRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.store.WithTx(ctx, func(ctx context.Context, q Querier) error {
		for _, key := range keys {
			if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM vocabulary_progress WHERE word_key = ?`), key); err != nil {
				return fmt.Errorf("failed to delete progress for %q: %w", key, err)
			}
		}
		return nil
	})
}

// DeleteAll removes every progress row; vocabulary entries stay
func (r *ProgressRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.store.Exec(ctx, `DELETE FROM vocabulary_progress`); err != nil {
		return fmt.Errorf("failed to delete all progress: %w", err)
	}
	return nil
}
