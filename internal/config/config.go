// Package config loads the application configuration from defaults, an
// optional YAML file, a .env file, WORDBOOK_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/example/wordbook/internal/scheduler"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "WORDBOOK_"

// Config is the full application configuration
type Config struct {
	Store      StoreConfig      `koanf:"store"`
	Vocabulary VocabularyConfig `koanf:"vocabulary"`
	Review     ReviewConfig     `koanf:"review"`
	Log        LogConfig        `koanf:"log"`
	Reminder   ReminderConfig   `koanf:"reminder"`
	Telegram   TelegramConfig   `koanf:"telegram"`
}

// StoreConfig selects the database
type StoreConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=sqlite3 sqlite postgres"`
	Path         string        `koanf:"path" validate:"required_unless=Driver postgres"`
	DSN          string        `koanf:"dsn" validate:"required_if=Driver postgres"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// VocabularyConfig holds the repository policies
type VocabularyConfig struct {
	UpsertResetsCreatedAt bool `koanf:"upsert_resets_created_at"`
	SearchCaseSensitive   bool `koanf:"search_case_sensitive"`
}

// ReviewConfig holds the scheduling policies
type ReviewConfig struct {
	HardAdvances bool `koanf:"hard_advances"`
	QueueLimit   int  `koanf:"queue_limit" validate:"min=1,max=200"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// ReminderConfig configures the due-review reminder job
type ReminderConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"gte=1m"`
	StartHour int           `koanf:"start_hour" validate:"min=0,max=23"`
	EndHour   int           `koanf:"end_hour" validate:"min=0,max=23,gtefield=StartHour"`
}

// TelegramConfig enables reminder delivery through a Telegram bot
type TelegramConfig struct {
	Token  string `koanf:"token"`
	ChatID int64  `koanf:"chat_id" validate:"required_with=Token"`
}

// Enabled reports whether reminders should go to Telegram
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// DefaultStorePath returns the vocabulary file under the per-user config directory
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "data"
	}
	return filepath.Join(dir, "wordbook", "vocabulary.db")
}

// defaults mirrors Config; keys use the koanf paths
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"store.driver":                        "sqlite3",
		"store.path":                          DefaultStorePath(),
		"store.dsn":                           "",
		"store.query_timeout":                 "5s",
		"vocabulary.upsert_resets_created_at": true,
		"vocabulary.search_case_sensitive":    false,
		"review.hard_advances":                true,
		"review.queue_limit":                  20,
		"log.level":                           "info",
		"log.format":                          "text",
		"reminder.interval":                   "1h",
		"reminder.start_hour":                 scheduler.DefaultNotificationStartHour,
		"reminder.end_hour":                   scheduler.DefaultNotificationEndHour,
		"telegram.token":                      "",
		"telegram.chat_id":                    0,
	}
}

// Flags returns the flag set understood by Load.
// Flag names match the koanf keys, so --store.path overrides store.path.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("env-file", ".env", "path to a .env file")
	fs.String("store.driver", "sqlite3", "database driver: sqlite3, sqlite or postgres")
	fs.String("store.path", DefaultStorePath(), "vocabulary database file")
	fs.String("store.dsn", "", "postgres connection string")
	fs.Duration("store.query_timeout", 5*time.Second, "timeout for a single statement")
	fs.Bool("vocabulary.search_case_sensitive", false, "match search text with exact case")
	fs.Int("review.queue_limit", 20, "default review queue size")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.format", "text", "log format: text or json")
	return fs
}

// Load parses args with fs and merges every configuration source.
// fs must come from Flags; args are the process arguments without the program name.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env-file")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// WORDBOOK_STORE__QUERY_TIMEOUT -> store.query_timeout
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// only flags set explicitly override the earlier sources
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
