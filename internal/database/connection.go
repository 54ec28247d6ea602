package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverSQLite3  = "sqlite3" // mattn/go-sqlite3, needs cgo
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverPostgres = "postgres"
)

// DefaultQueryTimeout bounds every statement when Options.QueryTimeout is zero
const DefaultQueryTimeout = 5 * time.Second

// ErrNotReady is returned by every query on a store that is not initialized
var ErrNotReady = errors.New("vocabulary store is not ready")

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options configures a Store
type Options struct {
	Driver       string
	Path         string // database file for the sqlite drivers
	DSN          string // connection string for postgres
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// Store owns the database handle and its schema.
// Initialization happens lazily on first use and at most once; a failed
// initialization leaves the store in the Failed state for its lifetime.
type Store struct {
	opts    Options
	logger  *slog.Logger
	dialect *dialect

	initMu sync.Mutex
	state  State
	db     *sqlx.DB

	// writeMu serializes every write; reads go straight to the pool
	writeMu sync.Mutex
}

// NewStore creates a store handle without touching the disk
func NewStore(opts Options) *Store {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite3
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		opts:    opts,
		logger:  logger.With("component", "store"),
		dialect: dialectFor(opts.Driver),
	}
}

// Driver returns the configured driver name
func (s *Store) Driver() string {
	return s.opts.Driver
}

// Path returns where the data lives: the file path for sqlite, a redacted DSN for postgres
func (s *Store) Path() string {
	if s.opts.Driver == DriverPostgres {
		return redactDSN(s.opts.DSN)
	}
	return s.opts.Path
}

// State returns the current lifecycle state without triggering initialization
func (s *Store) State() State {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.state
}

// EnsureInitialized opens the database and applies the schema on first call.
// Later calls return the stored outcome. Failures are logged, not returned.
func (s *Store) EnsureInitialized(ctx context.Context) State {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.state.Kind != Uninitialized {
		return s.state
	}

	db, err := s.connect(ctx)
	if err != nil {
		s.state = State{Kind: Failed, Reason: err}
		s.logger.Error("vocabulary store initialization failed",
			"driver", s.opts.Driver,
			"path", s.Path(),
			"error", err)
		return s.state
	}

	s.db = db
	s.state = State{Kind: Ready}
	s.logger.Debug("vocabulary store ready", "driver", s.opts.Driver, "path", s.Path())
	return s.state
}

// Close releases the database handle
func (s *Store) Close() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.state = State{Kind: Failed, Reason: errors.New("store closed")}
	return err
}

func (s *Store) connect(ctx context.Context) (*sqlx.DB, error) {
	if s.dialect == nil {
		return nil, fmt.Errorf("unsupported driver %q", s.opts.Driver)
	}

	dsn, err := s.dataSource()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(s.opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if s.opts.Driver != DriverPostgres {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := s.applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (s *Store) dataSource() (string, error) {
	switch s.opts.Driver {
	case DriverPostgres:
		if s.opts.DSN == "" {
			return "", errors.New("postgres driver needs a DSN")
		}
		return s.opts.DSN, nil
	case DriverSQLite3:
		if err := s.ensureDir(); err != nil {
			return "", err
		}
		return s.opts.Path + "?_busy_timeout=5000&_foreign_keys=on", nil
	default:
		if err := s.ensureDir(); err != nil {
			return "", err
		}
		return s.opts.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	}
}

func (s *Store) ensureDir() error {
	if s.opts.Path == "" {
		return errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.opts.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (s *Store) applySchema(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %s schema: %w", s.dialect.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}

func (s *Store) handle(ctx context.Context) (*sqlx.DB, error) {
	state := s.EnsureInitialized(ctx)
	if state.Kind != Ready {
		if state.Reason != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotReady, state.Reason)
		}
		return nil, ErrNotReady
	}

	s.initMu.Lock()
	db := s.db
	s.initMu.Unlock()
	if db == nil {
		return nil, ErrNotReady
	}
	return db, nil
}

// Get runs a single-row read and scans it into dest
func (s *Store) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return db.GetContext(ctx, dest, db.Rebind(query), args...)
}

// Select runs a multi-row read and scans it into dest
func (s *Store) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return db.SelectContext(ctx, dest, db.Rebind(query), args...)
}

// Exec runs a write statement and returns the number of affected rows
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WithTx runs fn inside one transaction while holding the write lock.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "postgres"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}
