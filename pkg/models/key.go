package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// WordKey returns the natural key of a word: trimmed and Unicode case-folded.
// Two words with the same key are the same vocabulary entry.
func WordKey(word string) string {
	return cases.Fold().String(strings.TrimSpace(word))
}
