package api

import (
	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
	infraconfig "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/config"
)

// Re-export configuration types.
type (
	// AppConfig is the complete engine configuration.
	AppConfig = domainconfig.AppConfig
	// ValidationErrors is a collection of validation errors.
	ValidationErrors = domainconfig.ValidationErrors
	// ConfigLoader loads configuration files.
	ConfigLoader = infraconfig.Loader
	// ConfigLoaderOption configures the loader.
	ConfigLoaderOption = infraconfig.LoaderOption
	// ConfigWatcher reloads a configuration file on change.
	ConfigWatcher = infraconfig.Watcher
)

// Configuration errors.
var (
	ErrConfigNotFound    = domainconfig.ErrConfigNotFound
	ErrInvalidFormat     = domainconfig.ErrInvalidFormat
	ErrValidationFailed  = domainconfig.ErrValidationFailed
	ErrMissingEnvVar     = domainconfig.ErrMissingEnvVar
	ErrUnknownDriver     = domainconfig.ErrUnknownDriver
	ErrUnsupportedFormat = domainconfig.ErrUnsupportedFormat
)

// DefaultConfig returns a configuration that runs entirely in memory.
func DefaultConfig() *AppConfig {
	return domainconfig.Default()
}

// NewConfigLoader creates a loader with env expansion and validation on.
func NewConfigLoader(opts ...ConfigLoaderOption) *ConfigLoader {
	return infraconfig.NewLoaderWithOptions(opts...)
}

// ConfigWithStrictEnv fails loading when a referenced env var is unset.
func ConfigWithStrictEnv(enabled bool) ConfigLoaderOption {
	return infraconfig.WithStrictEnv(enabled)
}

// ConfigWithValidation toggles validation after loading.
func ConfigWithValidation(enabled bool) ConfigLoaderOption {
	return infraconfig.WithValidation(enabled)
}

// ConfigWithKnownFields rejects keys that match no configuration field.
func ConfigWithKnownFields(enabled bool) ConfigLoaderOption {
	return infraconfig.WithKnownFields(enabled)
}

// LoadConfig loads and validates a configuration file.
func LoadConfig(path string) (*AppConfig, error) {
	return infraconfig.NewLoader().LoadFile(path)
}

// ValidateConfig returns every validation error in cfg.
func ValidateConfig(cfg *AppConfig) ValidationErrors {
	return domainconfig.NewValidator().Validate(cfg)
}

// ConfigSchemaJSON returns the configuration JSON Schema.
func ConfigSchemaJSON() (string, error) {
	return infraconfig.SchemaJSON()
}
