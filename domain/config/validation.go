package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates engine configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *AppConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateStorage(config)
	v.validateLock(config)
	v.validateNotification(config)
	v.validateArchive(config)
	v.validateUsers(config)
	v.validateLogging(config)
	v.validateTelemetry(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *AppConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateStorage(config *AppConfig) {
	s := config.Storage
	switch s.Driver {
	case DriverMemory:
	case DriverBadger:
	case DriverSQLite, DriverPostgres:
		if s.DSN == "" {
			v.addError("storage.dsn", fmt.Sprintf("dsn is required for %s", s.Driver))
		}
	case DriverMongoDB:
		if s.DSN == "" {
			v.addError("storage.dsn", "dsn is required for mongodb")
		}
		if s.Database == "" {
			v.addError("storage.database", "database is required for mongodb")
		}
	case DriverRedis:
		if s.Address == "" {
			v.addError("storage.address", "address is required for redis")
		}
	case DriverDynamoDB:
		if s.Region == "" {
			v.addError("storage.region", "region is required for dynamodb")
		}
	case "":
		v.addError("storage.driver", "driver is required")
	default:
		v.addError("storage.driver", fmt.Sprintf("unknown driver: %s", s.Driver))
	}
}

func (v *Validator) validateLock(config *AppConfig) {
	switch config.Lock.Driver {
	case "", "none", "memory":
	case "redis":
		if config.Lock.Address == "" && config.Storage.Address == "" {
			v.addError("lock.address", "address is required for redis lock")
		}
	default:
		v.addError("lock.driver", fmt.Sprintf("unknown driver: %s", config.Lock.Driver))
	}
	if config.Lock.TTL < 0 {
		v.addError("lock.ttl", "ttl must be non-negative")
	}
}

func (v *Validator) validateNotification(config *AppConfig) {
	for i, ep := range config.Notification.Webhooks {
		path := fmt.Sprintf("notification.webhooks[%d]", i)
		if ep.URL == "" {
			v.addError(path+".url", "URL is required")
			continue
		}
		u, err := url.Parse(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.addError(path+".url", fmt.Sprintf("invalid URL: %s", ep.URL))
		}
	}
	if config.Notification.NATS.URL != "" && config.Notification.NATS.Subject == "" {
		v.addError("notification.nats.subject", "subject is required when nats url is set")
	}
	r := config.Notification.Retry
	if r.MaxAttempts < 0 {
		v.addError("notification.retry.max_attempts", "max_attempts must be non-negative")
	}
	if r.Multiplier != 0 && r.Multiplier < 1 {
		v.addError("notification.retry.multiplier", "multiplier must be at least 1")
	}
}

func (v *Validator) validateArchive(config *AppConfig) {
	a := config.Archive
	switch a.Driver {
	case "", ArchiveNone:
	case ArchiveFilesystem:
		if a.Path == "" {
			v.addError("archive.path", "path is required for filesystem archive")
		}
	case ArchiveS3, ArchiveGCS:
		if a.Bucket == "" {
			v.addError("archive.bucket", fmt.Sprintf("bucket is required for %s archive", a.Driver))
		}
	case ArchiveAzure:
		if a.Bucket == "" {
			v.addError("archive.bucket", "container is required for azure archive")
		}
		if a.AccountName == "" && a.ConnectionString == "" {
			v.addError("archive.account_name", "account_name or connection_string is required for azure archive")
		}
	default:
		v.addError("archive.driver", fmt.Sprintf("unknown driver: %s", a.Driver))
	}
}

func (v *Validator) validateUsers(config *AppConfig) {
	seen := make(map[string]bool, len(config.Users))
	for i, u := range config.Users {
		path := fmt.Sprintf("users[%d]", i)
		if u.ID == "" {
			v.addError(path+".id", "id is required")
		} else if seen[u.ID] {
			v.addError(path+".id", fmt.Sprintf("duplicate user id: %s", u.ID))
		}
		seen[u.ID] = true
		if _, err := identity.ParseRole(u.Role); err != nil {
			v.addError(path+".role", fmt.Sprintf("invalid role: %s", u.Role))
		}
	}
}

func (v *Validator) validateLogging(config *AppConfig) {
	if config.Logging.Level != "" {
		switch strings.ToLower(config.Logging.Level) {
		case "trace", "debug", "info", "warn", "warning", "error":
		default:
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" && config.Logging.Format != "json" && config.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateTelemetry(config *AppConfig) {
	t := config.Telemetry.Tracing
	if !t.Enabled {
		return
	}
	switch t.Exporter {
	case "", "otlp", "stdout", "noop":
	default:
		v.addError("telemetry.tracing.exporter", fmt.Sprintf("invalid exporter: %s", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("telemetry.tracing.sample_rate", "sample_rate must be between 0 and 1")
	}
}
