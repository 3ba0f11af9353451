package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	api "github.com/YagmurCemGul/boltinsight-production-sub002/interfaces/api"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	strict     bool
	showSchema bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a workflow configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version)
  - Storage, lock and archive drivers
  - User roles and unique user IDs
  - Environment variable references and unknown keys (in strict mode)

Examples:
  # Validate a configuration file
  workflow validate -c config.yaml

  # Strict validation (fail on missing env vars or unknown keys)
  workflow validate -c config.yaml --strict

  # Show the JSON schema for configuration
  workflow validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.printSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing env vars and unknown keys")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if a.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loaderOpts := []api.ConfigLoaderOption{}
	if opts.strict {
		loaderOpts = append(loaderOpts, api.ConfigWithStrictEnv(true), api.ConfigWithKnownFields(true))
	}

	cfg, err := api.NewConfigLoader(loaderOpts...).LoadFile(a.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)

	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Storage: %s\n", cfg.Storage.Driver)
	if cfg.Lock.Driver != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Lock: %s\n", cfg.Lock.Driver)
	}
	if cfg.Archive.Driver != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Archive: %s\n", cfg.Archive.Driver)
	}

	if len(cfg.Users) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Users: %d\n", len(cfg.Users))
		for _, u := range cfg.Users {
			_, _ = fmt.Fprintf(a.stdout, "    - %s (%s)\n", u.ID, u.Role)
		}
	}

	n := cfg.Notification
	_, _ = fmt.Fprintf(a.stdout, "  Notifications: inbox=%t log=%t webhooks=%d nats=%t\n",
		n.Inbox, n.Log, len(n.Webhooks), n.NATS.URL != "")

	return nil
}

// printSchema writes the configuration JSON schema to stdout.
func (a *App) printSchema() error {
	schemaJSON, err := api.ConfigSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, _ = fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
