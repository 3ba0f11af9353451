// Package config loads, expands, and watches workflow engine configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// Loader turns configuration documents into a validated AppConfig.
// Sections missing from a document keep the values of config.Default.
type Loader struct {
	// ExpandEnv enables environment variable expansion.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
	// Validate enables configuration validation.
	Validate bool
	// KnownFields rejects keys that do not map to a configuration field.
	KnownFields bool
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) { l.ExpandEnv = enabled }
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) { l.StrictEnv = enabled }
}

// WithValidation enables or disables configuration validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) { l.Validate = enabled }
}

// WithKnownFields rejects unknown keys, catching typos such as "drvier".
func WithKnownFields(enabled bool) LoaderOption {
	return func(l *Loader) { l.KnownFields = enabled }
}

// NewLoader creates a loader with env expansion and validation enabled.
func NewLoader() *Loader {
	return NewLoaderWithOptions()
}

// NewLoaderWithOptions creates a loader with the specified options applied
// on top of NewLoader's defaults.
func NewLoaderWithOptions(opts ...LoaderOption) *Loader {
	l := &Loader{ExpandEnv: true, Validate: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FormatForPath returns the format implied by a file extension.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, ext)
	}
}

// LoadFile loads configuration from a file path.
func (l *Loader) LoadFile(path string) (*config.AppConfig, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	case err != nil:
		// Reading a directory fails here as well.
		return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidFormat, path, err)
	}

	return l.LoadBytes(data, format)
}

// Load loads configuration from a reader.
func (l *Loader) Load(r io.Reader, format Format) (*config.AppConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return l.LoadBytes(data, format)
}

// LoadString loads configuration from a string.
func (l *Loader) LoadString(content string, format Format) (*config.AppConfig, error) {
	return l.LoadBytes([]byte(content), format)
}

// LoadBytes loads configuration from bytes.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.AppConfig, error) {
	if l.ExpandEnv {
		expanded, err := expandEnv(string(data), l.StrictEnv)
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	cfg := config.Default()
	if err := l.decode(data, format, cfg); err != nil {
		return nil, err
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
		}
	}
	return cfg, nil
}

func (l *Loader) decode(data []byte, format Format, cfg *config.AppConfig) error {
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(l.KnownFields)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			// An empty document keeps the defaults.
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if l.KnownFields {
			dec.DisallowUnknownFields()
		}
		err = dec.Decode(cfg)
	default:
		return fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
	}
	return nil
}
