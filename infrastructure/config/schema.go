package config

import (
	"encoding/json"

	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	Format               string                 `json:"format,omitempty"`
}

// GenerateSchema generates a JSON Schema for AppConfig.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/YagmurCemGul/boltinsight-production-sub002/workflow-config.schema.json",
		Title:       "Proposal Workflow Configuration",
		Description: "Configuration schema for the proposal approval workflow engine",
		Type:        "object",
		Required:    []string{"name", "version"},
		Properties: map[string]*JSONSchema{
			"name":         str("A human-readable name for this deployment"),
			"version":      {Type: "string", Description: "The configuration schema version", Default: "1"},
			"storage":      generateStorageSchema(),
			"lock":         generateLockSchema(),
			"notification": generateNotificationSchema(),
			"archive":      generateArchiveSchema(),
			"users":        generateUsersSchema(),
			"logging":      generateLoggingSchema(),
			"telemetry":    generateTelemetrySchema(),
		},
	}
}

func str(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

func enum(description string, def string, values ...string) *JSONSchema {
	s := &JSONSchema{Type: "string", Description: description, Enum: values}
	if def != "" {
		s.Default = def
	}
	return s
}

func generateStorageSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Proposal store",
		Required:    []string{"driver"},
		Properties: map[string]*JSONSchema{
			"driver": enum("Store implementation", domainconfig.DriverMemory,
				domainconfig.DriverMemory, domainconfig.DriverSQLite, domainconfig.DriverPostgres,
				domainconfig.DriverRedis, domainconfig.DriverBadger, domainconfig.DriverMongoDB,
				domainconfig.DriverDynamoDB),
			"dsn":        str("Connection string for sqlite, postgres, and mongodb"),
			"schema":     {Type: "string", Description: "Postgres schema", Default: "public"},
			"address":    str("Redis address"),
			"password":   str("Redis password"),
			"dir":        str("Badger directory; empty runs in memory"),
			"database":   str("MongoDB database"),
			"table":      {Type: "string", Description: "DynamoDB table", Default: "proposals"},
			"region":     str("AWS region"),
			"endpoint":   {Type: "string", Description: "AWS endpoint override", Format: "uri"},
			"key_prefix": str("Key namespace for key-value stores"),
		},
	}
}

func generateLockSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Per-proposal lock held while a transition is saved",
		Properties: map[string]*JSONSchema{
			"driver":  enum("Lock implementation", "none", "none", "memory", "redis"),
			"address": str("Redis address; defaults to storage.address"),
			"ttl":     {Type: "string", Format: "duration", Default: "10s"},
		},
	}
}

func generateNotificationSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Notification emitters",
		Properties: map[string]*JSONSchema{
			"inbox": {Type: "boolean", Description: "Store notifications in the in-process inbox", Default: true},
			"log":   {Type: "boolean", Description: "Log notifications", Default: true},
			"webhooks": {
				Type:        "array",
				Description: "Webhook endpoints",
				Items: &JSONSchema{
					Type:     "object",
					Required: []string{"url"},
					Properties: map[string]*JSONSchema{
						"name":    str("Human-readable name"),
						"url":     {Type: "string", Description: "Webhook URL", Format: "uri"},
						"enabled": {Type: "boolean", Default: true},
						"secret":  str("HMAC signing secret"),
						"headers": {
							Type:                 "object",
							Description:          "Additional HTTP headers",
							AdditionalProperties: &JSONSchema{Type: "string"},
						},
						"types": {
							Type:        "array",
							Description: "Notification types to send",
							Items:       &JSONSchema{Type: "string"},
						},
					},
				},
			},
			"nats": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"url":     str("NATS server URL"),
					"subject": {Type: "string", Description: "Subject prefix", Default: "proposals.notifications"},
				},
			},
			"retry": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"max_attempts":  {Type: "integer", Minimum: floatPtr(1), Default: 3},
					"initial_delay": {Type: "string", Format: "duration", Default: "100ms"},
					"multiplier":    {Type: "number", Minimum: floatPtr(1), Default: 2.0},
				},
			},
		},
	}
}

func generateArchiveSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Archival of completed proposals",
		Properties: map[string]*JSONSchema{
			"driver": enum("Archive backend", domainconfig.ArchiveNone,
				domainconfig.ArchiveNone, domainconfig.ArchiveFilesystem, domainconfig.ArchiveS3,
				domainconfig.ArchiveGCS, domainconfig.ArchiveAzure),
			"path":              str("Filesystem directory"),
			"bucket":            str("Bucket or container"),
			"prefix":            str("Object key prefix"),
			"region":            str("S3 region"),
			"endpoint":          str("S3 endpoint override"),
			"credentials_file":  str("GCS service account file"),
			"account_name":      str("Azure storage account"),
			"connection_string": str("Azure connection string"),
		},
	}
}

func generateUsersSchema() *JSONSchema {
	roles := make([]string, 0, len(identity.AllRoles()))
	for _, r := range identity.AllRoles() {
		roles = append(roles, r.String())
	}
	return &JSONSchema{
		Type:        "array",
		Description: "Static user directory",
		Items: &JSONSchema{
			Type:     "object",
			Required: []string{"id", "role"},
			Properties: map[string]*JSONSchema{
				"id":    str("User identifier"),
				"name":  str("Display name"),
				"email": {Type: "string", Format: "email"},
				"role":  enum("User role", "", roles...),
			},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"level":  enum("Minimum log level", "info", "trace", "debug", "info", "warn", "error"),
			"format": enum("Output format", "console", "json", "console"),
		},
	}
}

func generateTelemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"metrics": {Type: "boolean", Description: "Record workflow metrics", Default: false},
			"tracing": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"enabled":     {Type: "boolean", Default: false},
					"exporter":    enum("Span exporter", "otlp", "otlp", "stdout", "noop"),
					"endpoint":    {Type: "string", Default: "localhost:4317"},
					"insecure":    {Type: "boolean", Default: false},
					"sample_rate": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1), Default: 1.0},
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
