package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	api "github.com/YagmurCemGul/boltinsight-production-sub002/interfaces/api"
)

// newSchemaCmd creates the schema command.
func (a *App) newSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export the configuration JSON schema",
		Long: `Export the JSON Schema for workflow configuration files.

Examples:
  # Export schema to stdout
  workflow schema

  # Export schema to a file
  workflow schema -o schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return a.printSchema()
			}
			return a.exportSchema(outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

// exportSchema writes the configuration JSON schema to path.
func (a *App) exportSchema(path string) error {
	schemaJSON, err := api.ConfigSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	// Write to file with restrictive permissions (G306)
	if err := os.WriteFile(path, []byte(schemaJSON), 0600); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Schema exported to %s\n", path)
	return nil
}
