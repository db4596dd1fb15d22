package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for a store.
	DatabaseBackend string

	// RecordKind tags a persisted score as raw or completed.
	RecordKind string

	// HitResultPriority tells the oracle how to distribute judgements for a target accuracy.
	HitResultPriority string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RqliteBackend     DatabaseBackend = "rqlite"
	FileBackend       DatabaseBackend = "file"
	NoneBackend       DatabaseBackend = "none"
)

// Record kinds.
const (
	RawKind       RecordKind = "raw"
	CompletedKind RecordKind = "completed"
)

// Judgement distributions for reference scenarios.
const (
	BestCase  HitResultPriority = "best_case"
	WorstCase HitResultPriority = "worst_case"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists the backends the beatmap seed cache can use.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidStoreBackends lists the backends the score store can use.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RqliteBackend:     {},
	FileBackend:       {},
}

// CommonModAcronyms are the ordinary modifiers a score can use and still count as "common".
var CommonModAcronyms = map[string]struct{}{
	"EZ": {}, "NF": {}, "HT": {}, "DC": {},
	"HR": {}, "SD": {}, "PF": {}, "DT": {},
	"NC": {}, "HD": {}, "CL": {}, "SO": {},
}
