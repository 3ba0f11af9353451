// Package sqlite stores proposals in a single SQLite file through
// database/sql and mattn/go-sqlite3.
package sqlite

import (
	"database/sql"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

var (
	ErrConnectionFailed = errors.New("sqlite: connection failed")
	ErrMigrationFailed  = errors.New("sqlite: migration failed")
)

// Config configures the database handle.
type Config struct {
	// DSN is a go-sqlite3 data source such as "file:proposals.db?mode=rwc".
	DSN string
	// MaxOpenConns caps the pool; zero leaves database/sql's default.
	MaxOpenConns int
	// JournalMode is passed as _journal_mode, e.g. "WAL".
	JournalMode string
	// BusyTimeout is how long a writer waits for the file lock.
	BusyTimeout time.Duration
	// AutoMigrate creates the tables on open.
	AutoMigrate bool
}

// DefaultConfig opens proposals.db in the working directory in WAL mode.
func DefaultConfig() Config {
	return Config{
		DSN:          "file:proposals.db?mode=rwc",
		MaxOpenConns: 10,
		JournalMode:  "WAL",
		BusyTimeout:  5 * time.Second,
		AutoMigrate:  true,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithDSN sets the data source name.
func WithDSN(dsn string) Option {
	return func(c *Config) { c.DSN = dsn }
}

// WithPath opens (or creates) the database file at path.
func WithPath(path string) Option {
	return func(c *Config) { c.DSN = "file:" + path + "?mode=rwc" }
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(c *Config) { c.MaxOpenConns = n }
}

// WithJournalMode sets the journal mode.
func WithJournalMode(mode string) Option {
	return func(c *Config) { c.JournalMode = mode }
}

// WithBusyTimeout sets the busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Config) { c.BusyTimeout = d }
}

// WithoutMigration skips table creation on open.
func WithoutMigration() Option {
	return func(c *Config) { c.AutoMigrate = false }
}

// connString appends the driver parameters to the DSN. Transactions start
// with BEGIN IMMEDIATE so concurrent saves wait on the busy timeout
// instead of failing when a read lock is upgraded.
func connString(cfg Config) string {
	q := url.Values{
		"_txlock":       {"immediate"},
		"_foreign_keys": {"1"},
	}
	if cfg.JournalMode != "" {
		q.Set("_journal_mode", cfg.JournalMode)
	}
	if cfg.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	}

	if strings.Contains(cfg.DSN, "?") {
		return cfg.DSN + "&" + q.Encode()
	}
	return cfg.DSN + "?" + q.Encode()
}

func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", connString(cfg))
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return db, nil
}
