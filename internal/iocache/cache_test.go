package iocache

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets a test call InitStores again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManager{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &StoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite cache and file store", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.FileBackend, filepath.Join(dir, "scores"))
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetBeatmapStore())
		assert.IsType(t, &FileScoreStore{}, Manager.GetScoreStore())

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		for range 3 {
			err := InitStores(schema.NoneBackend, "", schema.SQLiteBackend, filepath.Join(dir, "scores.db"))
			assert.NoError(t, err)
		}
		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
	})

	t.Run("empty backends leave stores unset", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetBeatmapStore())
		assert.Nil(t, Manager.GetScoreStore())
	})

	t.Run("bad store backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.NoneBackend, "", schema.NoneBackend, "")
		assert.Error(t, err)
	})

	t.Run("unreachable mysql", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", "", "")
		assert.Error(t, err)
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		tableName string
		wantErr   bool
	}{
		{"osuawa_beatmap_cache", false},
		{"_scores", false},
		{"Scores_2", false},
		{"", true},
		{"2scores", true},
		{"scores-table", true},
		{"scores table", true},
		{"scores.table", true},
		{"scores'; DROP TABLE users; --", true},
	}
	for _, tt := range tests {
		t.Run(tt.tableName, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteAndRebind(t *testing.T) {
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))

	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, q, rebind(q, schema.MySQLBackend))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(q, schema.PostgreSQLBackend))
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set, get and overwrite", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, filepath.Join(t.TempDir(), "c.db"))
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Set(ctx, "beatmap:75", []byte(`{"id":75}`), 1, 1000))
		require.NoError(t, store.Set(ctx, "beatmap:75", []byte(`{"id":75,"bpm":120}`), 2, 2000))

		value, version, ts, err := store.Get(ctx, "beatmap:75")
		require.NoError(t, err)
		assert.Equal(t, `{"id":75,"bpm":120}`, string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), ts)

		_, _, _, err = store.Get(ctx, "beatmap:76")
		assert.Equal(t, sql.ErrNoRows, err)
	})

	t.Run("status", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, filepath.Join(t.TempDir(), "c.db"))
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Zero(t, status.TotalEntries)

		require.NoError(t, store.Set(ctx, "a", []byte("1"), 1, 100))
		require.NoError(t, store.Set(ctx, "b", []byte("2"), 1, 300))
		status, err = store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(300, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(100, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)

		var buf bytes.Buffer
		PrintCacheStatus(&buf, status)
		assert.Contains(t, buf.String(), "Total Entries: 2")
	})

	t.Run("none backend", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.NoneBackend, "")
		require.NoError(t, err)
		assert.NoError(t, store.Set(ctx, "k", []byte("v"), 1, 1))
		_, _, _, err = store.Get(ctx, "k")
		assert.Equal(t, sql.ErrNoRows, err)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.False(t, status.Connected)
		assert.NoError(t, store.Close())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
		assert.Error(t, err)
		_, err = NewCacheStore("test_table", schema.RqliteBackend, "")
		assert.Error(t, err)
	})
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")
	store, err := NewCacheStore(beatmapTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""), "missing file is fine")
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.FileBackend, "", ""))
}

func TestStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, filepath.Join(t.TempDir(), "c.db"), "", ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			store := Manager.GetBeatmapStore()
			if !assert.NotNil(t, store) {
				return
			}
			assert.NoError(t, store.Set(context.Background(), "concurrent_key", []byte("value"), 1, int64(1000+id)))
		}(i)
	}
	wg.Wait()
}
