// Package vocabulary is the entry point for everything that reads or writes
// the vocabulary book. It keeps the store's fail-open contract: storage
// problems are logged and show up as false or empty results, never as errors.
package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/wordbook/internal/database"
	"github.com/example/wordbook/internal/spaced_repetition"
	"github.com/example/wordbook/pkg/models"
)

// Options tunes the policies that the service leaves open
type Options struct {
	// UpsertResetsCreatedAt makes Upsert of a known word restart its created_at
	UpsertResetsCreatedAt bool
	// SearchCaseSensitive switches Search to exact-case substring matching
	SearchCaseSensitive bool
	Logger              *slog.Logger
	// Now is the clock; time.Now when nil
	Now func() time.Time
}

// Service exposes the vocabulary book operations
type Service struct {
	store    *database.Store
	words    *database.VocabularyRepository
	progress *database.ProgressRepository
	queue    *database.ReviewQueueRepository
	stats    *database.StatisticsRepository
	ladder   *spaced_repetition.Ladder
	validate *validator.Validate
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New wires the repositories around store
func New(store *database.Store, ladder *spaced_repetition.Ladder, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if ladder == nil {
		ladder = spaced_repetition.NewLadder(true)
	}
	return &Service{
		store:    store,
		words:    database.NewVocabularyRepository(store),
		progress: database.NewProgressRepository(store),
		queue:    database.NewReviewQueueRepository(store),
		stats:    database.NewStatisticsRepository(store),
		ladder:   ladder,
		validate: validator.New(),
		opts:     opts,
		logger:   logger.With("component", "vocabulary"),
		now:      now,
	}
}

// Add stores a new word. It returns false when a word with the same key
// already exists, when the entry is invalid, or when the write fails.
func (s *Service) Add(ctx context.Context, entry models.VocabularyEntry) bool {
	if !s.valid(entry) {
		return false
	}

	key := models.WordKey(entry.Word)
	exists, err := s.words.Exists(ctx, key)
	if err != nil {
		s.failed("add", err, "word", entry.Word)
		return false
	}
	if exists {
		s.logger.Debug("word already saved", "word", entry.Word)
		return false
	}

	created, err := s.words.Create(ctx, entry, s.now())
	if err != nil {
		s.failed("add", err, "word", entry.Word)
		return false
	}
	return created
}

// Upsert stores the word or replaces the saved fields of an existing one
func (s *Service) Upsert(ctx context.Context, entry models.VocabularyEntry) bool {
	if !s.valid(entry) {
		return false
	}
	if err := s.words.Upsert(ctx, entry, s.now(), s.opts.UpsertResetsCreatedAt); err != nil {
		s.failed("upsert", err, "word", entry.Word)
		return false
	}
	return true
}

// Remove deletes the word and its progress. Removing an unknown word succeeds.
func (s *Service) Remove(ctx context.Context, word string) bool {
	if err := s.words.Delete(ctx, models.WordKey(word)); err != nil {
		s.failed("remove", err, "word", word)
		return false
	}
	return true
}

// Exists reports whether the word is saved
func (s *Service) Exists(ctx context.Context, word string) bool {
	ok, err := s.words.Exists(ctx, models.WordKey(word))
	if err != nil {
		s.failed("exists", err, "word", word)
		return false
	}
	return ok
}

// Get returns the saved entry for word
func (s *Service) Get(ctx context.Context, word string) (models.VocabularyEntry, bool) {
	entry, err := s.words.GetByKey(ctx, models.WordKey(word))
	if err != nil {
		s.failed("get", err, "word", word)
		return models.VocabularyEntry{}, false
	}
	if entry == nil {
		return models.VocabularyEntry{}, false
	}
	return *entry, true
}

// Count returns the number of saved words
func (s *Service) Count(ctx context.Context) int {
	n, err := s.words.Count(ctx)
	if err != nil {
		s.failed("count", err)
		return 0
	}
	return n
}

// ClearAll removes every word and all progress
func (s *Service) ClearAll(ctx context.Context) bool {
	if err := s.words.DeleteAll(ctx); err != nil {
		s.failed("clear all", err)
		return false
	}
	return true
}

// List returns every saved word, newest first
func (s *Service) List(ctx context.Context) []models.VocabularyEntry {
	entries, err := s.words.List(ctx)
	if err != nil {
		s.failed("list", err)
		return []models.VocabularyEntry{}
	}
	return entries
}

// Search returns words whose text or translation contains text
func (s *Service) Search(ctx context.Context, text string) []models.VocabularyEntry {
	entries, err := s.words.Search(ctx, text, s.opts.SearchCaseSensitive)
	if err != nil {
		s.failed("search", err, "text", text)
		return []models.VocabularyEntry{}
	}
	return entries
}

// ReviewQueue returns up to limit words ordered by when they should be reviewed.
// limit is clamped to [1, 200]; zero or less means 20.
func (s *Service) ReviewQueue(ctx context.Context, limit int, onlyDue bool) []models.ReviewItem {
	items, err := s.queue.Queue(ctx, limit, onlyDue, s.now())
	if err != nil {
		s.failed("review queue", err)
		return []models.ReviewItem{}
	}
	return items
}

// ListWithProgress returns every word joined with its progress, newest first.
// Unlike ReviewQueue it is not limited.
func (s *Service) ListWithProgress(ctx context.Context) []models.ReviewItem {
	items, err := s.queue.All(ctx)
	if err != nil {
		s.failed("list with progress", err)
		return []models.ReviewItem{}
	}
	return items
}

// GetProgress returns the review progress of word, false when it was never reviewed
func (s *Service) GetProgress(ctx context.Context, word string) (models.ReviewProgress, bool) {
	p, err := s.progress.GetByKey(ctx, models.WordKey(word))
	if err != nil {
		s.failed("get progress", err, "word", word)
		return models.ReviewProgress{}, false
	}
	if p == nil {
		return models.ReviewProgress{}, false
	}
	return *p, true
}

// ApplyReviewResult moves word along the review ladder and stores the result.
// It returns false for unknown words, unknown outcomes and failed writes.
func (s *Service) ApplyReviewResult(ctx context.Context, word string, outcome models.Outcome) (models.ReviewProgress, bool) {
	if !outcome.Valid() {
		s.logger.Warn("rejected review result", "word", word, "outcome", outcome)
		return models.ReviewProgress{}, false
	}

	now := s.now()
	p, err := s.progress.Apply(ctx, models.WordKey(word), func(cur models.ReviewProgress) (models.ReviewProgress, error) {
		return s.ladder.Next(cur, outcome, now)
	})
	if err != nil {
		s.failed("apply review result", err, "word", word, "outcome", outcome)
		return models.ReviewProgress{}, false
	}
	if p == nil {
		s.logger.Debug("review result for unknown word", "word", word)
		return models.ReviewProgress{}, false
	}

	s.logger.Debug("review recorded",
		"word", word,
		"outcome", outcome,
		"proficiency", p.Proficiency)
	return *p, true
}

// ClearProgress deletes the progress of the given words, or of every word when none are given
func (s *Service) ClearProgress(ctx context.Context, words ...string) bool {
	var err error
	if len(words) == 0 {
		err = s.progress.DeleteAll(ctx)
	} else {
		keys := make([]string, 0, len(words))
		for _, w := range words {
			keys = append(keys, models.WordKey(w))
		}
		err = s.progress.Delete(ctx, keys...)
	}
	if err != nil {
		s.failed("clear progress", err)
		return false
	}
	return true
}

// Statistics returns total, due and mastered counts.
// Under concurrent writes the counts may be off by one relative to each other.
func (s *Service) Statistics(ctx context.Context) models.Statistics {
	stats, err := s.stats.Get(ctx, s.now())
	if err != nil {
		s.failed("statistics", err)
		return models.Statistics{}
	}
	return stats
}

// StorePath returns where the vocabulary is stored
func (s *Service) StorePath() string {
	return s.store.Path()
}

// Health initializes the store if needed and reports its state
func (s *Service) Health(ctx context.Context) database.State {
	return s.store.EnsureInitialized(ctx)
}

// Intervals returns the review ladder
func (s *Service) Intervals() []time.Duration {
	return s.ladder.Intervals()
}

// ErrInvalidEntry is returned by Validate for entries Add and Upsert would reject
var ErrInvalidEntry = errors.New("invalid vocabulary entry")

// Validate checks an entry without touching the store
func (s *Service) Validate(entry models.VocabularyEntry) error {
	if models.WordKey(entry.Word) == "" {
		return fmt.Errorf("%w: word is empty", ErrInvalidEntry)
	}
	if err := s.validate.Struct(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

func (s *Service) valid(entry models.VocabularyEntry) bool {
	if err := s.Validate(entry); err != nil {
		s.logger.Warn("rejected entry", "word", entry.Word, "error", err)
		return false
	}
	return true
}

// failed logs a storage error; a degraded store was already reported at init
func (s *Service) failed(op string, err error, args ...any) {
	args = append(args, "op", op, "error", err)
	if errors.Is(err, database.ErrNotReady) {
		s.logger.Debug("vocabulary store unavailable", args...)
		return
	}
	s.logger.Error("vocabulary operation failed", args...)
}
