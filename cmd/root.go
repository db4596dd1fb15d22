package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobbycyl/osuawa/core"
	"github.com/bobbycyl/osuawa/internal/beatmapfile"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/iocache"
	"github.com/bobbycyl/osuawa/internal/oracle"
	"github.com/bobbycyl/osuawa/internal/osuapi"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// deps holds the API client, chart files and oracle built by sharedSetup.
var deps core.Deps

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "osuawa",
	Short:              "Track osu! scores and complete them with difficulty and pp attributes.",
	Long:               `osuawa keeps a local store of your recent osu! scores, completes each one with difficulty and reference pp, and shows how every play measures up.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("OSUAWA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("timezone", contract.DefaultTimezone)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("color", "yes")
}

// setConfigFile points viper at --config or at .osuawa.yaml in . or $HOME.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".osuawa") // Name of config file (without extension)
	viper.SetConfigType("yaml")    // We'll use YAML format
	viper.AddConfigPath(".")       // Look in the current directory
	viper.AddConfigPath("$HOME")   // Look in the home directory
}

// sharedSetup unmarshals config, runs validation and builds the collaborators.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	// 5. Wire the API client, chart files and oracle
	built, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	built.Stores = cacheManager
	deps = built
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// completionSetupWrapper is sharedSetupWrapper for commands that run the oracle.
func completionSetupWrapper(cmd *cobra.Command, args []string) error {
	if err := sharedSetup(rootCtx, cmd, args); err != nil {
		return err
	}
	if deps.Oracle == nil {
		return errors.New("oracle-command is required to complete scores")
	}
	return nil
}

// buildDeps creates the API client, the chart file cache and, when a command
// is configured, the oracle.
func buildDeps(ctx context.Context, c *contract.Config) (core.Deps, error) {
	var api *osuapi.Client
	switch {
	case c.AccessToken != "":
		api = osuapi.NewTokenClient(ctx, c.AccessToken, c.APIURL, c.Timeout)
	case c.ClientID != "" && c.ClientSecret != "":
		api = osuapi.NewCredentialsClient(ctx, c.ClientID, c.ClientSecret, c.TokenURL, c.APIURL, c.Timeout)
	default:
		return core.Deps{}, errors.New("client-id and client-secret (or access-token) are required")
	}

	gate := beatmapfile.NewGate(beatmapfile.DefaultDelayBefore, beatmapfile.DefaultDelayAfter)
	files, err := beatmapfile.NewCache(c.BeatmapDir, c.DownloadURL, nil, gate, c.Timeout)
	if err != nil {
		return core.Deps{}, err
	}

	d := core.Deps{API: api, Files: files}
	if len(c.OracleCommand) > 0 {
		o, err := oracle.NewExecOracle(c.OracleCommand, c.OracleTimeout)
		if err != nil {
			return core.Deps{}, err
		}
		d.Oracle = o
	}
	return d, nil
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigFile()

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}
