package models

import (
	"fmt"
	"strings"
)

// Outcome is the result of a single review
type Outcome string

const (
	// OutcomeRemember means the word was recalled without trouble
	OutcomeRemember Outcome = "remember"
	// OutcomeHard means the word was recalled with effort
	OutcomeHard Outcome = "hard"
	// OutcomeForget means the word was not recalled
	OutcomeForget Outcome = "forget"
)

// Valid reports whether o is one of the known outcomes
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeRemember, OutcomeHard, OutcomeForget:
		return true
	}
	return false
}

// ParseOutcome accepts the full name or its first letter, case-insensitively
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remember", "r":
		return OutcomeRemember, nil
	case "hard", "h":
		return OutcomeHard, nil
	case "forget", "f":
		return OutcomeForget, nil
	}
	return "", fmt.Errorf("unknown review outcome %q", s)
}
