// Package badger provides an embedded BadgerDB proposal store.
package badger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/felixgeelhaar/bolt/v3"
)

// ErrOpenFailed is returned when the database cannot be opened.
var ErrOpenFailed = errors.New("badger: open failed")

// Config configures the badger proposal store.
type Config struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory and skips value log GC.
	InMemory bool

	// SyncWrites fsyncs every committed transaction.
	SyncWrites bool

	// KeyPrefix namespaces every key written by the store.
	KeyPrefix string

	// GCInterval is the value log GC period. Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64

	// Logger receives badger's internal log lines. Nil silences them.
	Logger *bolt.Logger
}

// Option configures the store.
type Option func(*Config)

// WithDir sets the data directory.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.Dir = dir
		c.InMemory = false
	}
}

// WithInMemory keeps the database in memory.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithSyncWrites enables fsync on commit.
func WithSyncWrites() Option {
	return func(c *Config) {
		c.SyncWrites = true
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// WithGC sets the value log GC period and discard ratio.
func WithGC(interval time.Duration, discardRatio float64) Option {
	return func(c *Config) {
		c.GCInterval = interval
		c.GCDiscardRatio = discardRatio
	}
}

// WithLogger forwards badger's log output to logger.
func WithLogger(logger *bolt.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:      "workflow:",
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func openDB(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&logAdapter{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return db, nil
}

// logAdapter satisfies badger.Logger on top of bolt. Badger's info and
// debug chatter is demoted one level so it stays out of normal output.
type logAdapter struct {
	logger *bolt.Logger
}

var _ badger.Logger = (*logAdapter)(nil)

func (l *logAdapter) Errorf(format string, args ...any) {
	l.logger.Error().Str("component", "badger").Msg(line(format, args))
}

func (l *logAdapter) Warningf(format string, args ...any) {
	l.logger.Warn().Str("component", "badger").Msg(line(format, args))
}

func (l *logAdapter) Infof(format string, args ...any) {
	l.logger.Debug().Str("component", "badger").Msg(line(format, args))
}

func (l *logAdapter) Debugf(format string, args ...any) {
	l.logger.Trace().Str("component", "badger").Msg(line(format, args))
}

func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
