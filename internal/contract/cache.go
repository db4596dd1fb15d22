package contract

import (
	"context"

	"github.com/bobbycyl/osuawa/schema"
)

// CacheManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetBeatmapStore() CacheStore
	GetScoreStore() ScoreStore
}

// CacheStore defines the interface for the beatmap seed cache.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, int, int64, error)
	Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// ScoreStore persists score records per user, keyed by score id.
// Replace and Upsert expect the caller to hold the user's lock.
type ScoreStore interface {
	// Lock takes the exclusive per-user lock. The returned func releases it.
	Lock(ctx context.Context, userID int) (func(), error)

	// Load returns every record of a user. A user with no records yields an empty map.
	Load(ctx context.Context, userID int) (map[string]schema.ScoreRecord, error)

	// Replace atomically swaps the user's records for the given set.
	Replace(ctx context.Context, userID int, records map[string]schema.ScoreRecord) error

	// Upsert writes one record. A completed record is never replaced by a raw one.
	Upsert(ctx context.Context, record schema.ScoreRecord) error

	// Users lists the user ids that have at least one record, ascending.
	Users(ctx context.Context) ([]int, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
