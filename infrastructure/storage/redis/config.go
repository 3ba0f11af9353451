// Package redis provides a Redis-backed proposal store.
package redis

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	// URL is a redis:// or rediss:// URL. When set it takes precedence
	// over Address, Password and DB.
	URL string

	Address  string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	// KeyPrefix namespaces every key the store writes.
	KeyPrefix string
}

// DefaultConfig returns a Config pointing at a local Redis.
func DefaultConfig() Config {
	return Config{
		Address:      "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		KeyPrefix:    "workflow:",
	}
}

// ConfigOption configures the Redis connection.
type ConfigOption func(*Config)

// WithURL sets a connection URL.
func WithURL(url string) ConfigOption {
	return func(c *Config) { c.URL = url }
}

// WithAddress sets the Redis server address.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) { c.Address = addr }
}

// WithPassword sets the authentication password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) { c.Password = password }
}

// WithDB sets the database index.
func WithDB(db int) ConfigOption {
	return func(c *Config) { c.DB = db }
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) { c.KeyPrefix = prefix }
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) { c.PoolSize = size }
}

// WithTimeouts sets the dial, read and write timeouts.
func WithTimeouts(dial, read, write time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

// Options converts cfg to go-redis options.
func (c Config) Options() (*redis.Options, error) {
	opts := &redis.Options{
		Addr:     c.Address,
		Password: c.Password,
		DB:       c.DB,
	}
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid url: %w", err)
		}
		opts = parsed
	}

	opts.DialTimeout = c.DialTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	return opts, nil
}

// NewClient builds a client from cfg without connecting.
func NewClient(cfg Config) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
