package config

import "errors"

// Configuration errors. Loaders wrap these with the offending path or key.
var (
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrInvalidFormat     = errors.New("invalid configuration format")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	ErrValidationFailed  = errors.New("configuration validation failed")
	ErrMissingEnvVar     = errors.New("required environment variable not set")

	// ErrUnknownDriver is returned for a storage, lock, or archive driver
	// the engine cannot build.
	ErrUnknownDriver = errors.New("unknown driver")
)
