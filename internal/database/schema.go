package database

import "fmt"

// dialect holds the per-engine SQL that cannot be shared
type dialect struct {
	name   string
	schema []string
	// contains renders a case-sensitive substring test of column against one bound argument
	contains func(column string) string
}

func dialectFor(driver string) *dialect {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return sqliteDialect
	case DriverPostgres:
		return postgresDialect
	}
	return nil
}

var sqliteDialect = &dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS vocabulary (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_key TEXT NOT NULL,
			word TEXT NOT NULL,
			translation TEXT,
			translation_key TEXT,
			phonetic TEXT,
			from_language TEXT,
			to_language TEXT,
			note TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_vocabulary_word ON vocabulary(word_key)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_created_at ON vocabulary(created_at)`,
		`CREATE TABLE IF NOT EXISTS vocabulary_progress (
			word_key TEXT NOT NULL PRIMARY KEY,
			proficiency INTEGER NOT NULL DEFAULT 0 CHECK (proficiency BETWEEN 0 AND 5),
			review_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			fail_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at INTEGER,
			next_review_at INTEGER,
			CHECK (success_count + fail_count = review_count)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_progress_next_review_at ON vocabulary_progress(next_review_at)`,
		// foreign_keys may be off on a connection, so the cascade is a trigger
		`CREATE TRIGGER IF NOT EXISTS trg_vocabulary_delete_progress
			AFTER DELETE ON vocabulary
			FOR EACH ROW
		BEGIN
			DELETE FROM vocabulary_progress WHERE word_key = OLD.word_key;
		END`,
	},
	contains: func(column string) string {
		return fmt.Sprintf("instr(%s, ?) > 0", column)
	},
}

var postgresDialect = &dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS vocabulary (
			id BIGSERIAL PRIMARY KEY,
			word_key TEXT NOT NULL,
			word TEXT NOT NULL,
			translation TEXT,
			translation_key TEXT,
			phonetic TEXT,
			from_language TEXT,
			to_language TEXT,
			note TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_vocabulary_word ON vocabulary(word_key)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_created_at ON vocabulary(created_at)`,
		`CREATE TABLE IF NOT EXISTS vocabulary_progress (
			word_key TEXT NOT NULL PRIMARY KEY REFERENCES vocabulary(word_key) ON DELETE CASCADE,
			proficiency INTEGER NOT NULL DEFAULT 0 CHECK (proficiency BETWEEN 0 AND 5),
			review_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			fail_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at BIGINT,
			next_review_at BIGINT,
			CHECK (success_count + fail_count = review_count)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_progress_next_review_at ON vocabulary_progress(next_review_at)`,
	},
	contains: func(column string) string {
		return fmt.Sprintf("strpos(%s, ?) > 0", column)
	},
}
