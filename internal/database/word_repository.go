package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/example/wordbook/pkg/models"
)

const entryColumns = `
	v.word_key,
	v.word,
	COALESCE(v.translation, '') AS translation,
	COALESCE(v.phonetic, '') AS phonetic,
	COALESCE(v.from_language, '') AS from_language,
	COALESCE(v.to_language, '') AS to_language,
	COALESCE(v.note, '') AS note,
	v.created_at,
	v.updated_at`

// VocabularyRepository handles database operations for vocabulary entries.
// Every method takes the folded word key, see models.WordKey.
type VocabularyRepository struct {
	store *Store
}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository(store *Store) *VocabularyRepository {
	return &VocabularyRepository{store: store}
}

// Create inserts a new entry with created_at = updated_at = now.
// It returns false without touching the row when the key already exists.
func (r *VocabularyRepository) Create(ctx context.Context, entry models.VocabularyEntry, now time.Time) (bool, error) {
	ts := now.UnixMilli()
	affected, err := r.store.Exec(ctx, `
		INSERT INTO vocabulary (word_key, word, translation, translation_key, phonetic, from_language, to_language, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_key) DO NOTHING
	`,
		models.WordKey(entry.Word),
		strings.TrimSpace(entry.Word),
		nullString(entry.Translation),
		nullString(fold(entry.Translation)),
		nullString(entry.Phonetic),
		nullString(entry.FromLanguage),
		nullString(entry.ToLanguage),
		nullString(entry.Note),
		ts,
		ts,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create word %q: %w", entry.Word, err)
	}
	return affected > 0, nil
}

// Upsert inserts the entry or replaces the stored fields of an existing one.
// created_at is reset to now only when resetCreatedAt is set. Progress is kept.
func (r *VocabularyRepository) Upsert(ctx context.Context, entry models.VocabularyEntry, now time.Time, resetCreatedAt bool) error {
	createdAt := ""
	if resetCreatedAt {
		createdAt = "created_at = excluded.created_at,"
	}

	ts := now.UnixMilli()
	_, err := r.store.Exec(ctx, `
		INSERT INTO vocabulary (word_key, word, translation, translation_key, phonetic, from_language, to_language, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_key) DO UPDATE SET
			word = excluded.word,
			translation = excluded.translation,
			translation_key = excluded.translation_key,
			phonetic = excluded.phonetic,
			from_language = excluded.from_language,
			to_language = excluded.to_language,
			note = excluded.note,
			`+createdAt+`
			updated_at = excluded.updated_at
	`,
		models.WordKey(entry.Word),
		strings.TrimSpace(entry.Word),
		nullString(entry.Translation),
		nullString(fold(entry.Translation)),
		nullString(entry.Phonetic),
		nullString(entry.FromLanguage),
		nullString(entry.ToLanguage),
		nullString(entry.Note),
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert word %q: %w", entry.Word, err)
	}
	return nil
}

// GetByKey returns the entry for key, or nil when there is none
func (r *VocabularyRepository) GetByKey(ctx context.Context, key string) (*models.VocabularyEntry, error) {
	var entry models.VocabularyEntry
	err := r.store.Get(ctx, &entry, `SELECT `+entryColumns+` FROM vocabulary v WHERE v.word_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word %q: %w", key, err)
	}
	return &entry, nil
}

// Exists reports whether key is stored
func (r *VocabularyRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM vocabulary WHERE word_key = ?`, key); err != nil {
		return false, fmt.Errorf("failed to check word %q: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes the entry and, through the cascade, its progress.
// Deleting a missing key is not an error.
func (r *VocabularyRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.store.Exec(ctx, `DELETE FROM vocabulary WHERE word_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete word %q: %w", key, err)
	}
	return nil
}

// DeleteAll removes every entry and all progress
func (r *VocabularyRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.store.Exec(ctx, `DELETE FROM vocabulary`); err != nil {
		return fmt.Errorf("failed to delete all words: %w", err)
	}
	return nil
}

// Count returns the number of stored entries
func (r *VocabularyRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM vocabulary`); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}

// List returns every entry, newest first
func (r *VocabularyRepository) List(ctx context.Context) ([]models.VocabularyEntry, error) {
	entries := []models.VocabularyEntry{}
	err := r.store.Select(ctx, &entries, `
		SELECT `+entryColumns+`
		FROM vocabulary v
		ORDER BY v.created_at DESC, v.word_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	return entries, nil
}

// Search returns entries whose word or translation contains text, newest first.
// The case-insensitive mode matches the folded text against the stored folded
// columns, so both sides go through the same Unicode case folding.
func (r *VocabularyRepository) Search(ctx context.Context, text string, caseSensitive bool) ([]models.VocabularyEntry, error) {
	if text == "" {
		return r.List(ctx)
	}

	var where string
	var args []interface{}
	if caseSensitive {
		where = r.store.dialect.contains("v.word") + ` OR ` + r.store.dialect.contains("COALESCE(v.translation, '')")
		args = []interface{}{text, text}
	} else {
		pattern := "%" + escapeLike(fold(text)) + "%"
		where = `v.word_key LIKE ? ESCAPE '\' OR COALESCE(v.translation_key, '') LIKE ? ESCAPE '\'`
		args = []interface{}{pattern, pattern}
	}

	entries := []models.VocabularyEntry{}
	err := r.store.Select(ctx, &entries, `
		SELECT `+entryColumns+`
		FROM vocabulary v
		WHERE `+where+`
		ORDER BY v.created_at DESC, v.word_key ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search words: %w", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// fold is the case folding shared by word_key and translation_key
func fold(s string) string {
	return cases.Fold().String(s)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
