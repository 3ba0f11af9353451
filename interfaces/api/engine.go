package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/bolt/v3"

	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/archive"
	infraconfig "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/config"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/distributed/lock"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/logging"
	infranotif "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/observability"
	infraProposal "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/proposal"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/resilience"
	badgerstore "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/badger"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/dynamodb"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/memory"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/mongodb"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/postgres"
	redisstore "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/redis"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/sqlite"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/telemetry"
)

// Closer releases a resource acquired while building the engine.
type Closer func(ctx context.Context) error

// Engine is a fully wired workflow service with the resources it owns.
type Engine struct {
	Config    *AppConfig
	Service   *WorkflowService
	Store     proposal.Store
	Directory *memory.UserDirectory
	// Inbox is nil unless notification.inbox is enabled.
	Inbox    *memory.NotificationInbox
	Logger   *bolt.Logger
	Provider *observability.Provider

	closers []Closer
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logOutput io.Writer
	workflow  []WorkflowOption
}

// WithLogOutput sets where the engine logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) BuildOption {
	return func(o *buildOptions) {
		o.logOutput = w
	}
}

// WithWorkflowOptions passes extra options to the workflow service.
func WithWorkflowOptions(opts ...WorkflowOption) BuildOption {
	return func(o *buildOptions) {
		o.workflow = append(o.workflow, opts...)
	}
}

// Build wires every component selected by cfg. Resources acquired before a
// failure are released before returning.
func Build(ctx context.Context, cfg *AppConfig, opts ...BuildOption) (_ *Engine, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if errs := ValidateConfig(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrValidationFailed, errs)
	}

	o := &buildOptions{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		Config: cfg,
		Logger: logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, o.logOutput),
	}
	defer func() {
		if err != nil {
			_ = e.Close(context.Background())
		}
	}()

	e.Directory, err = BuildDirectory(cfg.Users)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := BuildStore(ctx, cfg.Storage, e.Logger)
	if err != nil {
		return nil, err
	}
	e.Store = store
	e.addCloser(closeStore)

	var inbox notification.Inbox
	if cfg.Notification.Inbox {
		e.Inbox = memory.NewNotificationInbox()
		inbox = e.Inbox
	}
	emitter, closeEmitter, err := BuildEmitter(cfg.Notification, inbox, e.Logger)
	if err != nil {
		return nil, err
	}
	e.addCloser(closeEmitter)

	provider, metrics, err := BuildTelemetry(cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	e.Provider = provider
	e.addCloser(provider.Shutdown)

	workflowOpts := []WorkflowOption{
		infraProposal.WithLogger(e.Logger),
		infraProposal.WithMetrics(metrics),
		infraProposal.WithTracer(provider.Tracer()),
	}

	locker, closeLocker, err := BuildLocker(cfg.Lock, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if locker != nil {
		workflowOpts = append(workflowOpts, infraProposal.WithLocker(locker, cfg.Lock.TTL.Duration()))
		e.addCloser(closeLocker)
	}

	archiver, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	if archiver != nil {
		workflowOpts = append(workflowOpts, infraProposal.WithArchiver(archiver))
	}

	workflowOpts = append(workflowOpts, o.workflow...)
	e.Service = infraProposal.NewWorkflowService(e.Store, e.Directory, emitter, workflowOpts...)
	return e, nil
}

func (e *Engine) addCloser(c Closer) {
	if c != nil {
		e.closers = append(e.closers, c)
	}
}

// Close releases resources in reverse acquisition order.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// WatchUsers reloads the user directory whenever the file at path changes.
// It blocks until ctx is cancelled.
func (e *Engine) WatchUsers(ctx context.Context, path string) error {
	w := infraconfig.NewWatcher(path, infraconfig.NewLoader(),
		func(cfg *domainconfig.AppConfig) {
			users, err := toUsers(cfg.Users)
			if err != nil {
				logging.NewEvent(e.Logger.Warn()).With(logging.ErrorField(err)).Msg("ignoring reloaded user list")
				return
			}
			e.Directory.Replace(users)
			logging.NewEvent(e.Logger.Info()).With(logging.Int("users", len(users))).Msg("user directory reloaded")
		},
		func(err error) {
			logging.NewEvent(e.Logger.Warn()).With(logging.ErrorField(err)).Msg("config reload failed")
		},
	)
	return w.Run(ctx)
}

// BuildDirectory creates the in-memory user directory.
func BuildDirectory(users []domainconfig.UserConfig) (*memory.UserDirectory, error) {
	converted, err := toUsers(users)
	if err != nil {
		return nil, err
	}
	return memory.NewUserDirectory(converted...), nil
}

func toUsers(users []domainconfig.UserConfig) ([]identity.User, error) {
	result := make([]identity.User, 0, len(users))
	for _, u := range users {
		role, err := identity.ParseRole(u.Role)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		result = append(result, identity.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: role})
	}
	return result, nil
}

// BuildStore opens the proposal store selected by cfg.Driver. Networked
// drivers are wrapped in a resilience.Store.
func BuildStore(ctx context.Context, cfg domainconfig.StorageConfig, logger *bolt.Logger) (proposal.Store, Closer, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Driver {
	case domainconfig.DriverPostgres, domainconfig.DriverRedis, domainconfig.DriverMongoDB, domainconfig.DriverDynamoDB:
		return resilience.New(store), closeStore, nil
	}
	return store, closeStore, nil
}

func openStore(ctx context.Context, cfg domainconfig.StorageConfig, logger *bolt.Logger) (proposal.Store, Closer, error) {
	switch cfg.Driver {
	case "", domainconfig.DriverMemory:
		return memory.NewProposalStore(), nil, nil

	case domainconfig.DriverSQLite:
		var opts []sqlite.Option
		if cfg.DSN != "" {
			opts = append(opts, sqlite.WithDSN(cfg.DSN))
		}
		s, err := sqlite.NewProposalStore(sqlite.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.DriverPostgres:
		pgCfg := postgres.DefaultConfig()
		pool, err := postgres.NewPool(ctx, cfg.DSN, pgCfg)
		if err != nil {
			return nil, nil, errors.Join(proposal.ErrStoreUnavailable, err)
		}
		schema := cfg.Schema
		if schema == "" {
			schema = pgCfg.Schema
		}
		s, err := postgres.NewProposalStore(pool, schema)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, func(context.Context) error { pool.Close(); return nil }, nil

	case domainconfig.DriverRedis:
		opts := []redisstore.ConfigOption{redisstore.WithAddress(cfg.Address), redisstore.WithPassword(cfg.Password)}
		if cfg.DSN != "" {
			opts = append(opts, redisstore.WithURL(cfg.DSN))
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redisstore.WithKeyPrefix(cfg.KeyPrefix))
		}
		s, err := redisstore.NewProposalStore(ctx, redisstore.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.DriverBadger:
		opts := []badgerstore.Option{badgerstore.WithInMemory()}
		if cfg.Dir != "" {
			opts = []badgerstore.Option{badgerstore.WithDir(cfg.Dir)}
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, badgerstore.WithKeyPrefix(cfg.KeyPrefix))
		}
		if logger != nil {
			opts = append(opts, badgerstore.WithLogger(logger))
		}
		s, err := badgerstore.NewProposalStore(badgerstore.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.DriverMongoDB:
		var opts []mongodb.Option
		if cfg.DSN != "" {
			opts = append(opts, mongodb.WithURI(cfg.DSN))
		}
		if cfg.Database != "" {
			opts = append(opts, mongodb.WithDatabase(cfg.Database))
		}
		client, err := mongodb.NewClient(ctx, mongodb.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, errors.Join(proposal.ErrStoreUnavailable, err)
		}
		s := mongodb.NewProposalStore(client, cfg.Table)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		return s, client.Close, nil

	case domainconfig.DriverDynamoDB:
		opts := []dynamodb.ConfigOption{dynamodb.WithRegion(cfg.Region)}
		if cfg.Endpoint != "" {
			opts = append(opts, dynamodb.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Table != "" {
			opts = append(opts, dynamodb.WithTableName(cfg.Table))
		}
		client, err := dynamodb.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, errors.Join(proposal.ErrStoreUnavailable, err)
		}
		if cfg.Endpoint != "" {
			// Local endpoints start empty.
			if err := client.EnsureTable(ctx); err != nil {
				return nil, nil, errors.Join(proposal.ErrStoreUnavailable, err)
			}
		}
		return dynamodb.NewProposalStore(client), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: storage driver %q", domainconfig.ErrUnknownDriver, cfg.Driver)
	}
}

// BuildLocker returns the per-proposal lock, or nil when locking is off.
// The redis lock falls back to the storage address.
func BuildLocker(cfg domainconfig.LockConfig, storage domainconfig.StorageConfig) (lock.Locker, Closer, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return lock.NewMemoryLock(), nil, nil
	case "redis":
		addr := cfg.Address
		if addr == "" {
			addr = storage.Address
		}
		l, err := lock.NewRedisLock(lock.RedisConfig{Address: addr, Password: storage.Password})
		if err != nil {
			return nil, nil, err
		}
		return l, func(context.Context) error { return l.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: lock driver %q", domainconfig.ErrUnknownDriver, cfg.Driver)
	}
}

// BuildEmitter fans notifications out to every configured emitter. An
// empty configuration yields an emitter that drops everything.
func BuildEmitter(cfg domainconfig.NotificationConfig, inbox notification.Inbox, logger *bolt.Logger) (notification.Emitter, Closer, error) {
	var (
		emitters []notification.Emitter
		closers  []Closer
	)

	if inbox != nil {
		emitters = append(emitters, infranotif.NewInboxEmitter(inbox))
	}
	if cfg.Log {
		emitters = append(emitters, infranotif.NewLogEmitter(logger))
	}

	if endpoints := buildEndpoints(cfg.Webhooks); len(endpoints) > 0 {
		webhook := infranotif.NewWebhookEmitter(infranotif.WebhookEmitterConfig{
			Endpoints: endpoints,
			SenderConfig: infranotif.SenderConfig{
				Attempts:   cfg.Retry.MaxAttempts,
				Backoff:    cfg.Retry.InitialDelay.Duration(),
				Multiplier: cfg.Retry.Multiplier,
			},
			Logger: logger,
		})
		emitters = append(emitters, webhook)
		closers = append(closers, func(context.Context) error { return webhook.Close() })
	}

	if cfg.NATS.URL != "" {
		emitter, conn, err := infranotif.ConnectNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			for _, c := range closers {
				_ = c(context.Background())
			}
			return nil, nil, err
		}
		emitters = append(emitters, emitter)
		closers = append(closers, func(context.Context) error { return conn.Drain() })
	}

	closeAll := func(ctx context.Context) error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c(ctx))
		}
		return errors.Join(errs...)
	}
	return infranotif.NewMultiEmitter(emitters...), closeAll, nil
}

func buildEndpoints(cfgs []domainconfig.EndpointConfig) []*notification.Endpoint {
	var endpoints []*notification.Endpoint
	for _, c := range cfgs {
		if !c.Enabled {
			continue
		}
		ep := &notification.Endpoint{
			URL:     c.URL,
			Secret:  c.Secret,
			Headers: c.Headers,
			Enabled: true,
			Name:    c.Name,
		}
		if len(c.Types) > 0 {
			types := make([]notification.Type, len(c.Types))
			for i, t := range c.Types {
				types[i] = notification.Type(t)
			}
			ep.Filter = notification.FilterByType(types...)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

// BuildTelemetry creates the tracer provider and the workflow metrics.
func BuildTelemetry(cfg domainconfig.TelemetryConfig) (*observability.Provider, telemetry.Metrics, error) {
	provider, err := observability.New(observability.FromTelemetry(cfg)...)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Metrics {
		return provider, &telemetry.NoopMetricsProvider{}, nil
	}
	mp := telemetry.NewMetricsProvider(telemetry.MetricsConfig{Provider: provider.MeterProvider()})
	if err := mp.Error(); err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, err
	}
	return provider, mp, nil
}
