package config

import (
	"encoding/json"
	"testing"
)

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()

	if schema.Schema != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("Schema = %s, want draft/2020-12", schema.Schema)
	}
	if schema.Type != "object" {
		t.Errorf("Type = %s, want object", schema.Type)
	}

	for _, prop := range []string{"name", "version", "storage", "lock", "notification", "archive", "users", "logging", "telemetry"} {
		if _, ok := schema.Properties[prop]; !ok {
			t.Errorf("missing property: %s", prop)
		}
	}
}

func TestGenerateSchema_Enums(t *testing.T) {
	schema := GenerateSchema()

	drivers := schema.Properties["storage"].Properties["driver"].Enum
	if len(drivers) != 7 {
		t.Errorf("storage.driver has %d values, want 7", len(drivers))
	}

	roles := schema.Properties["users"].Items.Properties["role"].Enum
	if len(roles) != 5 {
		t.Errorf("users.role has %d values, want 5", len(roles))
	}
}

func TestSchemaJSON(t *testing.T) {
	out, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("SchemaJSON() produced invalid JSON: %v", err)
	}
	if decoded["title"] != "Proposal Workflow Configuration" {
		t.Errorf("title = %v", decoded["title"])
	}
}
