// Package cmd defines the command-line interface for osuawa.
package cmd

import (
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(beatmapCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add cache subcommands
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add store subcommands
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind root flags to Viper
	rootCmd.PersistentFlags().String("client-id", "", "osu! OAuth client id")
	rootCmd.PersistentFlags().String("client-secret", "", "osu! OAuth client secret (prefer OSUAWA_CLIENT_SECRET)")
	rootCmd.PersistentFlags().String("access-token", "", "User access token, needed for --friends (prefer OSUAWA_ACCESS_TOKEN)")
	rootCmd.PersistentFlags().String("api-url", contract.DefaultAPIURL, "Base URL of the osu! API v2")
	rootCmd.PersistentFlags().String("token-url", contract.DefaultTokenURL, "OAuth token endpoint")
	rootCmd.PersistentFlags().String("download-url", contract.DefaultDownloadURL, "Base URL for chart file downloads")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Timeout of a single API or download request")
	rootCmd.PersistentFlags().String("beatmap-dir", "", "Directory of downloaded chart files (default ~/.osuawa/beatmaps)")
	rootCmd.PersistentFlags().String("oracle-command", "", "Difficulty and performance calculator command")
	rootCmd.PersistentFlags().String("oracle-timeout", contract.DefaultOracleTimeout.String(), "Timeout of a single oracle run")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("timezone", contract.DefaultTimezone, "IANA timezone for the time-of-day column")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Score store backend: sqlite or mysql or postgresql or rqlite or file")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Score store connection string, rqlite address or file directory")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Beatmap cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of syncCmd to Viper
	syncCmd.Flags().Bool("include-fails", false, "Also fetch failed plays")
	if err := viper.BindPFlags(syncCmd.Flags()); err != nil {
		contract.LogFatal("Error binding sync flags", err)
	}

	// Local flags that are read directly
	beatmapCmd.Flags().StringSlice("user", nil, "Numeric ids or @usernames (comma-separated)")
	userCmd.Flags().Bool("friends", false, "List the friends of the access token owner")
	storeExportCmd.Flags().IntSlice("user", nil, "Only export these user ids")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
