package models

import "time"

// VocabularyEntry is a word saved for later study
type VocabularyEntry struct {
	Word         string `json:"word" db:"word" validate:"required,max=200"`
	Key          string `json:"-" db:"word_key"`
	Translation  string `json:"translation,omitempty" db:"translation" validate:"max=2000"`
	Phonetic     string `json:"phonetic,omitempty" db:"phonetic" validate:"max=200"`
	FromLanguage string `json:"from_language,omitempty" db:"from_language" validate:"max=35"`
	ToLanguage   string `json:"to_language,omitempty" db:"to_language" validate:"max=35"`
	Note         string `json:"note,omitempty" db:"note" validate:"max=4000"`
	CreatedAt    int64  `json:"created_at" db:"created_at"` // epoch ms, set once
	UpdatedAt    int64  `json:"updated_at" db:"updated_at"` // epoch ms, set on every write
}

// Created returns CreatedAt as a time value
func (e VocabularyEntry) Created() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// Updated returns UpdatedAt as a time value
func (e VocabularyEntry) Updated() time.Time {
	return time.UnixMilli(e.UpdatedAt)
}
