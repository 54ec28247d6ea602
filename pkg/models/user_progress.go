package models

import "time"

// MaxProficiency is the highest proficiency level a word can reach
const MaxProficiency = 5

// ReviewProgress tracks the review history of a single word.
// A word without a progress row has never been reviewed.
type ReviewProgress struct {
	Word           string `json:"word" db:"word_key"`
	Proficiency    int    `json:"proficiency" db:"proficiency"` // 0..MaxProficiency
	ReviewCount    int    `json:"review_count" db:"review_count"`
	SuccessCount   int    `json:"success_count" db:"success_count"`
	FailCount      int    `json:"fail_count" db:"fail_count"`
	LastReviewedAt *int64 `json:"last_reviewed_at,omitempty" db:"last_reviewed_at"` // epoch ms
	NextReviewAt   *int64 `json:"next_review_at,omitempty" db:"next_review_at"`     // epoch ms, nil means due now
}

// IsDue reports whether the word should be reviewed at now
func (p ReviewProgress) IsDue(now time.Time) bool {
	return p.NextReviewAt == nil || *p.NextReviewAt <= now.UnixMilli()
}

// IsMastered reports whether the word reached the top of the ladder
func (p ReviewProgress) IsMastered() bool {
	return p.Proficiency >= MaxProficiency
}

// NextReview returns NextReviewAt as a time value and false when unset
func (p ReviewProgress) NextReview() (time.Time, bool) {
	if p.NextReviewAt == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*p.NextReviewAt), true
}

// ReviewItem is a vocabulary entry joined with its progress.
// Entries without progress carry the zero-value defaults.
type ReviewItem struct {
	VocabularyEntry
	Progress ReviewProgress `json:"progress"`
}
