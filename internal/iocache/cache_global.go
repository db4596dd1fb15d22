package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
)

// beatmapTable is the name of the table for beatmap seed caching.
const beatmapTable = "osuawa_beatmap_cache"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for the seed cache.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the score store.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// GetStoreDir returns the directory of the file score store.
func GetStoreDir() string {
	return contract.GetStoreDir()
}

// NewScoreStore opens the score store for the backend.
func NewScoreStore(backend schema.DatabaseBackend, connStr string) (contract.ScoreStore, error) {
	switch backend {
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
		return NewSQLScoreStore(backend, connStr)
	case schema.RqliteBackend:
		return NewRqliteScoreStore(connStr)
	case schema.FileBackend:
		return NewFileScoreStore(connStr)
	default:
		return nil, fmt.Errorf("unsupported score store backend: %s. Must be sqlite, mysql, postgresql, rqlite, or file", backend)
	}
}

// InitStores initializes the global manager.
// An empty cacheBackend or storeBackend leaves that store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, storeBackend schema.DatabaseBackend, storeConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var beatmaps contract.CacheStore
		if cacheBackend != "" {
			store, err := NewCacheStore(beatmapTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize beatmap cache: %w", err)
				return
			}
			beatmaps = store
		}

		var scores contract.ScoreStore
		if storeBackend != "" {
			store, err := NewScoreStore(storeBackend, storeConnStr)
			if err != nil {
				if beatmaps != nil {
					_ = beatmaps.Close()
				}
				initErr = fmt.Errorf("failed to initialize score store: %w", err)
				return
			}
			scores = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.beatmaps = beatmaps
		Manager.scores = scores
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.beatmaps != nil {
			_ = Manager.beatmaps.Close()
		}
		if Manager.scores != nil {
			_ = Manager.scores.Close()
		}
	})
}

// ClearCache clears the beatmap seed cache.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeFile(dbFilePath)
	case schema.MySQLBackend:
		return clearSQLTable("mysql", connStr, beatmapTable)
	case schema.PostgreSQLBackend:
		return clearSQLTable("pgx", connStr, beatmapTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearScores deletes every persisted score record of the backend.
func ClearScores(backend schema.DatabaseBackend, location, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeFile(location)
	case schema.MySQLBackend:
		return clearSQLTable("mysql", connStr, scoresTable)
	case schema.PostgreSQLBackend:
		return clearSQLTable("pgx", connStr, scoresTable)
	case schema.RqliteBackend:
		store, err := NewRqliteScoreStore(connStr)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.clear()
	case schema.FileBackend:
		if location == "" {
			return fmt.Errorf("location cannot be empty for file backend")
		}
		if err := os.RemoveAll(location); err != nil {
			return fmt.Errorf("failed to remove score directory %s: %w", location, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

func removeFile(path string) error {
	if path == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	// Remove the file; ignore if it doesn't exist
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
	}
	return nil
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
