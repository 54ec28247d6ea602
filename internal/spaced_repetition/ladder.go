package spaced_repetition

import (
	"errors"
	"time"

	"github.com/example/wordbook/pkg/models"
)

// ErrInvalidOutcome is returned for outcomes outside remember/hard/forget
var ErrInvalidOutcome = errors.New("invalid review outcome")

// DefaultIntervals is the waiting time before the next review, indexed by proficiency
var DefaultIntervals = [models.MaxProficiency + 1]time.Duration{
	5 * time.Minute,
	12 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

// Ladder implements the fixed-interval review schedule
type Ladder struct {
	// HardAdvances makes "hard" raise proficiency exactly like "remember".
	// When false, "hard" keeps the current level and reschedules on it.
	HardAdvances bool
	intervals    [models.MaxProficiency + 1]time.Duration
}

// NewLadder returns a ladder with the default intervals
func NewLadder(hardAdvances bool) *Ladder {
	return &Ladder{
		HardAdvances: hardAdvances,
		intervals:    DefaultIntervals,
	}
}

// Interval returns the waiting time for a proficiency level, clamped to the ladder
func (l *Ladder) Interval(level int) time.Duration {
	return l.intervals[clamp(level)]
}

// Intervals returns a copy of the ladder
func (l *Ladder) Intervals() []time.Duration {
	out := make([]time.Duration, len(l.intervals))
	copy(out, l.intervals[:])
	return out
}

// Next computes the progress after a review at now.
// The input is not modified; the caller persists the returned value as one write.
func (l *Ladder) Next(progress models.ReviewProgress, outcome models.Outcome, now time.Time) (models.ReviewProgress, error) {
	if !outcome.Valid() {
		return progress, ErrInvalidOutcome
	}

	next := progress
	level := clamp(progress.Proficiency)

	switch outcome {
	case models.OutcomeRemember:
		level = clamp(level + 1)
	case models.OutcomeHard:
		if l.HardAdvances {
			level = clamp(level + 1)
		}
	case models.OutcomeForget:
		level = clamp(level - 1)
	}
	next.Proficiency = level

	index := level
	if outcome == models.OutcomeForget {
		index = 0
	}

	reviewedAt := now.UnixMilli()
	nextAt := now.Add(l.intervals[index]).UnixMilli()
	next.LastReviewedAt = &reviewedAt
	next.NextReviewAt = &nextAt

	next.ReviewCount++
	if outcome == models.OutcomeForget {
		next.FailCount++
	} else {
		next.SuccessCount++
	}

	return next, nil
}

func clamp(level int) int {
	return max(0, min(level, models.MaxProficiency))
}
