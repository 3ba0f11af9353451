// Package config provides domain models for workflow engine configuration.
package config

import "time"

// AppConfig represents the complete engine configuration.
type AppConfig struct {
	// Name is a human-readable name for this deployment.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`

	// Storage selects and configures the proposal store.
	Storage StorageConfig `json:"storage" yaml:"storage"`
	// Lock configures the optional per-proposal lock.
	Lock LockConfig `json:"lock,omitempty" yaml:"lock,omitempty"`
	// Notification configures notification emitters.
	Notification NotificationConfig `json:"notification,omitempty" yaml:"notification,omitempty"`
	// Archive configures archival of completed proposals.
	Archive ArchiveConfig `json:"archive,omitempty" yaml:"archive,omitempty"`
	// Users is the static user directory.
	Users []UserConfig `json:"users,omitempty" yaml:"users,omitempty"`
	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry configures tracing and metrics.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverBadger   = "badger"
	DriverMongoDB  = "mongodb"
	DriverDynamoDB = "dynamodb"
)

// StorageConfig configures the proposal store.
type StorageConfig struct {
	// Driver is the store implementation.
	Driver string `json:"driver" yaml:"driver"`
	// DSN is the connection string for sqlite, postgres, and mongodb.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Schema is the postgres schema.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Address is the redis address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Password is the redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// Dir is the badger data directory. Empty means in-memory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Database is the mongodb database name.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	// Table is the dynamodb table name.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	// Region is the AWS region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// Endpoint overrides the AWS endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// KeyPrefix namespaces keys in key-value stores.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// LockConfig configures the per-proposal lock.
type LockConfig struct {
	// Driver is none, memory, or redis.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// Address is the redis address for the redis driver.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// TTL is the lock lease.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// NotificationConfig contains notification settings.
type NotificationConfig struct {
	// Inbox stores notifications in the in-process inbox.
	Inbox bool `json:"inbox,omitempty" yaml:"inbox,omitempty"`
	// Log writes notifications to the logger.
	Log bool `json:"log,omitempty" yaml:"log,omitempty"`
	// Webhooks is the list of webhook endpoints.
	Webhooks []EndpointConfig `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
	// NATS publishes notifications to a NATS subject.
	NATS NATSConfig `json:"nats,omitempty" yaml:"nats,omitempty"`
	// Retry configures webhook retries.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
}

// EndpointConfig configures a webhook endpoint.
type EndpointConfig struct {
	// Name is a human-readable name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// URL is the webhook URL.
	URL string `json:"url" yaml:"url"`
	// Enabled enables the endpoint.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Secret is the HMAC signing secret.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// Headers are additional HTTP headers.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Types limits the endpoint to these notification types.
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// NATSConfig configures the NATS emitter.
type NATSConfig struct {
	// URL is the NATS server URL. Empty disables the emitter.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Subject is the subject prefix; the recipient ID is appended.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// Archive drivers.
const (
	ArchiveNone       = "none"
	ArchiveFilesystem = "filesystem"
	ArchiveS3         = "s3"
	ArchiveGCS        = "gcs"
	ArchiveAzure      = "azure"
)

// ArchiveConfig configures audit archival.
type ArchiveConfig struct {
	// Driver is the archive backend.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// Path is the filesystem directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Bucket is the bucket or container name.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	// Prefix is prepended to object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// Region is the S3 region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// Endpoint overrides the S3 endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// CredentialsFile is the GCS service account file.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	// AccountName is the Azure storage account.
	AccountName string `json:"account_name,omitempty" yaml:"account_name,omitempty"`
	// ConnectionString is the Azure connection string.
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`
}

// UserConfig defines a directory user.
type UserConfig struct {
	// ID is the user identifier.
	ID string `json:"id" yaml:"id"`
	// Name is the display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Email is the user's email.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	// Role is the role name.
	Role string `json:"role" yaml:"role"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn, or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	// Tracing configures the tracer provider.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Metrics enables workflow metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is otlp, stdout, or noop.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for OTLP.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the sampling ratio between 0 and 1.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Default returns a configuration that runs entirely in memory.
func Default() *AppConfig {
	return &AppConfig{
		Name:    "proposal-workflow",
		Version: "1",
		Storage: StorageConfig{Driver: DriverMemory},
		Notification: NotificationConfig{
			Inbox: true,
			Log:   true,
		},
		Archive: ArchiveConfig{Driver: ArchiveNone},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
