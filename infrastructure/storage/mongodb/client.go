// Package mongodb provides a MongoDB-backed proposal store.
package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config configures the MongoDB connection.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	MaxPoolSize    uint64
}

// DefaultConfig returns the local development configuration.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "workflow",
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
		MaxPoolSize:    20,
	}
}

// Option configures the client.
type Option func(*Config)

// WithURI sets the connection URI.
func WithURI(uri string) Option {
	return func(c *Config) {
		c.URI = uri
	}
}

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(c *Config) {
		c.Database = name
	}
}

// WithQueryTimeout bounds each store operation.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.QueryTimeout = d
	}
}

// ErrConnectionFailed indicates the server could not be reached.
var ErrConnectionFailed = errors.New("mongodb: connection failed")

// Client wraps a connected driver client and its configuration.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	config Config
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return &Client{client: client, db: client.Database(cfg.Database), config: cfg}, nil
}

// Collection returns a collection handle in the configured database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
