package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/servermap/servermap/pkg/logging"
)

// Execute runs the servermap CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "servermap",
		Short:   "MCP Server Knowledge Graph CLI",
		Version: a.version,
		Long: `Servermap crawls public MCP server registries, deduplicates the
records into a canonical catalog with stable global identities, and loads the
result into a Neo4j knowledge graph that can be searched in natural language.

Crawling GitHub requires GITHUB_TOKEN; natural-language search requires
GEMINI_API_KEY (keyword search works without it).`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "pipeline",
		Title: "Pipeline Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "query",
		Title: "Query Commands:",
	})

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.servermap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVar(&a.config.DataDir, "data-dir", a.config.DataDir, "directory for snapshots and master data")

	rootCmd.SetVersionTemplate("servermap {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Pipeline commands
	rootCmd.AddCommand(a.NewCrawlCommand())
	rootCmd.AddCommand(a.NewDedupeCommand())
	rootCmd.AddCommand(a.NewLoadCommand())

	// Query commands
	rootCmd.AddCommand(a.NewSearchCommand())
	rootCmd.AddCommand(a.NewStatsCommand())

	// Utility commands
	rootCmd.AddCommand(a.NewCleanupCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// loggerContext returns a context carrying the app logger for the packages
// that log through logging.FromContext.
func (a *App) loggerContext(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.logger)
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
