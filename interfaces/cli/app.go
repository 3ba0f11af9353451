// Package cli provides a command-line interface for the proposal workflow engine.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	workflow "github.com/YagmurCemGul/boltinsight-production-sub002"
	api "github.com/YagmurCemGul/boltinsight-production-sub002/interfaces/api"
)

// Version information set at build time.
var (
	Version   = workflow.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root       *cobra.Command
	stdout     io.Writer
	stderr     io.Writer
	configPath string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "workflow",
		Short: "Proposal approval workflow engine",
		Long: `workflow drives proposals through a two-stage approval process: an
internal manager review followed by a client decision.

Every transition is checked against the role permission table, recorded in
an append-only approval history, and announced to the affected users.

Without --config the engine runs in memory and forgets everything on exit.
Point --config at a file with a persistent storage driver to keep state
between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to configuration file")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newSchemaCmd(),
		app.newActionsCmd(),
		app.newCreateCmd(),
		app.newShowCmd(),
		app.newListCmd(),
		app.newActCmd(),
		app.newHistoryCmd(),
		app.newVerifyCmd(),
		app.newInboxCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// loadConfig reads --config, or falls back to the in-memory defaults.
func (a *App) loadConfig() (*api.AppConfig, error) {
	if a.configPath == "" {
		return api.DefaultConfig(), nil
	}
	cfg, err := api.LoadConfig(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// withEngine builds the engine for one command and closes it afterwards.
func (a *App) withEngine(ctx context.Context, fn func(*api.Engine) error) (err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	engine, err := api.Build(ctx, cfg, api.WithLogOutput(a.stderr))
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer func() {
		if cerr := engine.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = fmt.Errorf("failed to shut down engine: %w", cerr)
		}
	}()

	return fn(engine)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "workflow version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
