package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/schema"
)

// Default values for configuration.
const (
	DefaultAPIURL        = "https://osu.ppy.sh/api/v2"
	DefaultTokenURL      = "https://osu.ppy.sh/oauth/token"
	DefaultDownloadURL   = "https://osu.ppy.sh/osu"
	DefaultTimeout       = 15 * time.Second
	DefaultOracleTimeout = 60 * time.Second
	DefaultTimezone      = "Asia/Shanghai"
	DefaultResultLimit   = 50
	MaxResultLimit       = 1000
	DefaultPrecision     = 2
	RecentPageSize       = 50
	BeatmapBatchSize     = 50
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	ClientID     string
	ClientSecret string // Please use env var as this is plaintext
	AccessToken  string // Optional user token, needed for friends
	APIURL       string
	TokenURL     string
	DownloadURL  string
	Timeout      time.Duration

	BeatmapDir    string
	OracleCommand []string
	OracleTimeout time.Duration
	Workers       int
	IncludeFails  bool

	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	Location    *time.Location

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	ClientID       string `mapstructure:"client-id"`
	ClientSecret   string `mapstructure:"client-secret"`
	AccessToken    string `mapstructure:"access-token"`
	APIURL         string `mapstructure:"api-url"`
	TokenURL       string `mapstructure:"token-url"`
	DownloadURL    string `mapstructure:"download-url"`
	Timeout        string `mapstructure:"timeout"`
	BeatmapDir     string `mapstructure:"beatmap-dir"`
	OracleCommand  string `mapstructure:"oracle-command"`
	OracleTimeout  string `mapstructure:"oracle-timeout"`
	Workers        int    `mapstructure:"workers"`
	Limit          int    `mapstructure:"limit"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Timezone       string `mapstructure:"timezone"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`

	// --- Fields from syncCmd.Flags() ---
	IncludeFails bool `mapstructure:"include-fails"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.OracleCommand != nil {
		clone.OracleCommand = make([]string, len(c.OracleCommand))
		copy(clone.OracleCommand, c.OracleCommand)
	}
	return &clone
}

// ProcessAndValidate parses the raw input and populates cfg.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for the given backend.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, schema.FileBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RqliteBackend:
		if !strings.HasPrefix(connStr, "http://") && !strings.HasPrefix(connStr, "https://") {
			return fmt.Errorf("rqlite connection string must be an http(s) URL such as http://localhost:4001")
		}
	}
	return nil
}

// validateBackendConfigs validates the seed cache and score store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Store Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, rqlite, file", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// Both SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		if cachePath == storePath {
			return fmt.Errorf("cache and score store must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-duration fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.ClientID = input.ClientID
	cfg.ClientSecret = input.ClientSecret
	cfg.AccessToken = input.AccessToken
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.IncludeFails = input.IncludeFails
	cfg.APIURL = strings.TrimRight(firstNonEmpty(input.APIURL, DefaultAPIURL), "/")
	cfg.TokenURL = firstNonEmpty(input.TokenURL, DefaultTokenURL)
	cfg.DownloadURL = strings.TrimRight(firstNonEmpty(input.DownloadURL, DefaultDownloadURL), "/")
	cfg.BeatmapDir = firstNonEmpty(input.BeatmapDir, GetBeatmapDir())
	cfg.OracleCommand = strings.Fields(input.OracleCommand)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 0 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Timezone ---
	loc, err := time.LoadLocation(firstNonEmpty(input.Timezone, DefaultTimezone))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", input.Timezone, err)
	}
	cfg.Location = loc

	return nil
}

// processDurations parses the timeout settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.Timeout, err = parseDuration(input.Timeout, DefaultTimeout); err != nil {
		return fmt.Errorf("invalid --timeout value: %w", err)
	}
	if cfg.OracleTimeout, err = parseDuration(input.OracleTimeout, DefaultOracleTimeout); err != nil {
		return fmt.Errorf("invalid --oracle-timeout value: %w", err)
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive (received %s)", s)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
