package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/internal/iocache"
	"github.com/huangsam/perfhist/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads the history backend settings and validates them.
// An empty backend is treated as NoneBackend.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.NoneBackend
	if backendStr := viper.GetString("history-backend"); backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup() error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// No parse caching for history commands
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetupWrapper is like historySetup but does not open the store or
// create tables, so migrations can run on a fresh database.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on load history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage load history tracking and exports",
	Long: `Manage the record of every data directory load.

When a history backend is configured, each load stores:
- Load metadata (timestamp, data directory, configuration, duration, counters)
- Per-crate and per-phase timings of every run that was loaded

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show load history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  PERFHIST_HISTORY_BACKEND=sqlite perfhist history status
  perfhist history export --history-backend sqlite --output-file perfhist`,
}

// historyClearCmd clears the load history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all load history data",
	Long: `Delete all stored loads and run timings.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  perfhist history export --history-backend sqlite --output-file backup
  perfhist history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqliteFilePath(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, path, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history data", err)
		}
		fmt.Println("History data cleared successfully.")
	},
}

// historyStatusCmd shows load history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display load history statistics and connection details",
	Long: `Show the backend, connection state, number of loads, load time range and table sizes.

Examples:
  perfhist history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", fmt.Errorf("history store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports load history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export load history to Parquet for BI tools and analytics",
	Long: `Export all stored loads and run timings to Parquet.

Writes two files next to --output-file:
  <output-file>.loads.parquet        one row per load
  <output-file>.run_timings.parquet  one row per run, crate and phase

Examples:
  perfhist history export --history-backend sqlite --output-file perfhist
  duckdb -c "SELECT crate, avg(time_secs) FROM read_parquet('perfhist.run_timings.parquet') GROUP BY crate"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history data", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the load history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  perfhist history migrate --history-backend sqlite

  # Rollback to initial state
  perfhist history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to migrate history store", err)
		}
	},
}
