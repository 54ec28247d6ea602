package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordbook/pkg/models"
)

// StatisticsRepository derives counts from the vocabulary and progress tables
type StatisticsRepository struct {
	store *Store
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(store *Store) *StatisticsRepository {
	return &StatisticsRepository{store: store}
}

// Total returns the number of entries
func (r *StatisticsRepository) Total(ctx context.Context) (int, error) {
	var n int
	if err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM vocabulary`); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}

// Due returns the number of entries due at now
func (r *StatisticsRepository) Due(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.store.Get(ctx, &n, `
		SELECT COUNT(*)
		FROM vocabulary v
		LEFT JOIN vocabulary_progress p ON p.word_key = v.word_key
		WHERE `+dueCondition, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to count due words: %w", err)
	}
	return n, nil
}

// Mastered returns the number of words at the top proficiency level
func (r *StatisticsRepository) Mastered(ctx context.Context) (int, error) {
	var n int
	err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM vocabulary_progress WHERE proficiency >= ?`, models.MaxProficiency)
	if err != nil {
		return 0, fmt.Errorf("failed to count mastered words: %w", err)
	}
	return n, nil
}

// Get runs the three counts one after another. They are not read in one
// snapshot; a concurrent write can make them disagree by one record.
func (r *StatisticsRepository) Get(ctx context.Context, now time.Time) (models.Statistics, error) {
	var stats models.Statistics
	var err error

	if stats.Total, err = r.Total(ctx); err != nil {
		return models.Statistics{}, err
	}
	if stats.Due, err = r.Due(ctx, now); err != nil {
		return models.Statistics{}, err
	}
	if stats.Mastered, err = r.Mastered(ctx); err != nil {
		return models.Statistics{}, err
	}
	return stats, nil
}
