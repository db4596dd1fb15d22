package cmd

import (
	"fmt"
	"os"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/iocache"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeConfig reads and validates the score store settings without opening it.
func storeConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")
	if _, ok := schema.ValidStoreBackends[backend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, rqlite, file", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetup loads the store settings and opens the score store only.
func storeSetup() error {
	if err := storeConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores("", "", cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize score store: %w", err)
	}
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeConfigWrapper is used by commands that must not open the store,
// so migrations can run on a fresh database and clear can remove files.
func storeConfigWrapper(_ *cobra.Command, _ []string) error {
	return storeConfig()
}

// storeLocation is where the SQLite file or the file store directory lives.
func storeLocation() string {
	switch cfg.StoreBackend {
	case schema.SQLiteBackend:
		return orDefault(cfg.StoreDBConnect, iocache.GetStoreDBFilePath())
	case schema.FileBackend:
		return orDefault(cfg.StoreDBConnect, iocache.GetStoreDir())
	default:
		return ""
	}
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// storeCmd focused on score store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local score store",
	Long: `Manage the store of synced and completed scores.

Supported backends: SQLite (default), MySQL, PostgreSQL, rqlite, or file (one JSON file per player)

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove every stored score
  export  - Write stored scores to a Parquet file
  migrate - Run SQL schema migrations`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, number of players and scores, completed share, last update
and size of the score store.

Examples:
  osuawa store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetScoreStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd removes every stored score.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored score",
	Long: `Delete every stored score from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the scores table
For rqlite: Deletes all rows
For file: Removes the score directory

Examples:
  osuawa store clear`,
	PreRunE: storeConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearScores(cfg.StoreBackend, storeLocation(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeExportCmd writes stored scores to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored scores to Parquet for analytics tools",
	Long: `Export stored score records, raw and completed, to a Parquet file.

Requires: --output-file parameter

Examples:
  # Export every player
  osuawa store export --output-file scores.parquet

  # Export two players and query with DuckDB
  osuawa store export --user 2,3 --output-file scores.parquet
  duckdb -c "SELECT beatmap_id, pp FROM read_parquet('scores.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		userIDs, _ := cmd.Flags().GetIntSlice("user")
		n, err := iocache.ExportScores(rootCtx, iocache.Manager.GetScoreStore(), userIDs, cfg.OutputFile)
		if err != nil {
			contract.LogFatal("Failed to export scores", err)
		}
		fmt.Printf("Exported %d scores to %s\n", n, cfg.OutputFile)
	},
}

// storeMigrateCmd runs database migrations for the score store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the SQL score stores.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  osuawa store migrate

  # Rollback to initial state
  osuawa store migrate --target-version 0`,
	PreRunE: storeConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		before, after, err := iocache.MigrateScores(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("Score store migrated from version %d to %d.\n", before, after)
	},
}
