// Package study runs an interactive review session over the due queue.
package study

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/wordbook/pkg/models"
)

// Reviewer is the part of the vocabulary service a session needs
type Reviewer interface {
	ReviewQueue(ctx context.Context, limit int, onlyDue bool) []models.ReviewItem
	ApplyReviewResult(ctx context.Context, word string, outcome models.Outcome) (models.ReviewProgress, bool)
}

// Summary counts what happened during a session
type Summary struct {
	Shown      int
	Remembered int
	Hard       int
	Forgotten  int
	Skipped    int
	Failed     int // answers that could not be saved
}

// Reviewed returns the number of answers saved
func (s Summary) Reviewed() int {
	return s.Remembered + s.Hard + s.Forgotten
}

// Session walks the review queue once, asking for an outcome per word
type Session struct {
	reviewer Reviewer
	in       *bufio.Scanner
	out      io.Writer
	limit    int
}

// NewSession creates a session reading answers from in and writing prompts to out
func NewSession(reviewer Reviewer, in io.Reader, out io.Writer, limit int) *Session {
	return &Session{
		reviewer: reviewer,
		in:       bufio.NewScanner(in),
		out:      out,
		limit:    limit,
	}
}

// Run reviews the due words until the queue is exhausted, the input ends,
// the user quits or ctx is cancelled.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	items := s.reviewer.ReviewQueue(ctx, s.limit, true)
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Nothing to review right now.")
		return sum, nil
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sum.Shown++
		fmt.Fprintf(s.out, "\n[%d/%d] %s", i+1, len(items), item.Word)
		if item.Phonetic != "" {
			fmt.Fprintf(s.out, " [%s]", item.Phonetic)
		}
		fmt.Fprintf(s.out, "  (level %d)\n", item.Progress.Proficiency)

		fmt.Fprint(s.out, "Press Enter to show the translation...")
		if !s.in.Scan() {
			return sum, s.in.Err()
		}
		fmt.Fprintf(s.out, "  %s\n", describe(item.VocabularyEntry))

		outcome, quit, ok := s.ask()
		if quit || !ok {
			return sum, s.in.Err()
		}
		if outcome == "" {
			sum.Skipped++
			continue
		}

		p, saved := s.reviewer.ApplyReviewResult(ctx, item.Word, outcome)
		if !saved {
			sum.Failed++
			fmt.Fprintln(s.out, "  could not save the answer")
			continue
		}
		switch outcome {
		case models.OutcomeRemember:
			sum.Remembered++
		case models.OutcomeHard:
			sum.Hard++
		case models.OutcomeForget:
			sum.Forgotten++
		}
		if next, ok := p.NextReview(); ok {
			fmt.Fprintf(s.out, "  level %d, next review %s\n", p.Proficiency, next.Format("2006-01-02 15:04"))
		}
	}
	return sum, nil
}

// ask reads until a valid answer. An empty outcome means skip.
func (s *Session) ask() (outcome models.Outcome, quit, ok bool) {
	for {
		fmt.Fprint(s.out, "[r]emember [h]ard [f]orget [s]kip [q]uit: ")
		if !s.in.Scan() {
			return "", false, false
		}
		answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
		switch answer {
		case "q", "quit":
			return "", true, true
		case "s", "skip":
			return "", false, true
		}
		if o, err := models.ParseOutcome(answer); err == nil {
			return o, false, true
		}
		fmt.Fprintf(s.out, "  unknown answer %q\n", answer)
	}
}

func describe(e models.VocabularyEntry) string {
	parts := []string{}
	if e.Translation != "" {
		parts = append(parts, e.Translation)
	} else {
		parts = append(parts, "(no translation)")
	}
	if e.Note != "" {
		parts = append(parts, "("+e.Note+")")
	}
	return strings.Join(parts, " ")
}
