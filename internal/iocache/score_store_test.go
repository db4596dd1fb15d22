package iocache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawScore(id string, user int, ended time.Time) schema.ScoreRecord {
	return schema.RawRecord(schema.SimpleScoreInfo{
		ScoreID:   id,
		BeatmapID: 75,
		UserID:    user,
		Accuracy:  0.95,
		MaxCombo:  300,
		Passed:    true,
		Mods:      []schema.Modifier{{Acronym: "HD"}},
		EndedAt:   ended,
	})
}

func completedScore(id string, user int, ended time.Time) schema.ScoreRecord {
	pp := 123.4
	s := rawScore(id, user, ended).Simple()
	s.PP = &pp
	return schema.CompletedRecord(schema.CompletedScoreInfo{
		SimpleScoreInfo: s,
		Info:            "Artist - Title (Mapper) [Insane]",
		Performance:     schema.PerformanceAttributes{Total: pp},
	})
}

// storeFactories builds every backend that runs without external services.
func storeFactories() map[string]func(t *testing.T) contract.ScoreStore {
	return map[string]func(t *testing.T) contract.ScoreStore{
		"sqlite": func(t *testing.T) contract.ScoreStore {
			s, err := NewSQLScoreStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "scores.db"))
			require.NoError(t, err)
			return s
		},
		"file": func(t *testing.T) contract.ScoreStore {
			s, err := NewFileScoreStore(filepath.Join(t.TempDir(), "scores"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestScoreStores(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			RunScoreStoreContract(t, factory)
		})
	}
}

// RunScoreStoreContract checks the behavior every ScoreStore must share.
func RunScoreStoreContract(t *testing.T, factory func(t *testing.T) contract.ScoreStore) {
	ctx := context.Background()
	ended := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty load", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()
		records, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("replace then load", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()

		want := map[string]schema.ScoreRecord{
			"100": rawScore("100", 7, ended),
			"101": completedScore("101", 7, ended.Add(time.Hour)),
		}
		require.NoError(t, store.Replace(ctx, 7, want))

		got, err := store.Load(ctx, 7)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.False(t, got["100"].IsCompleted())
		assert.True(t, got["101"].IsCompleted())
		assert.True(t, got["101"].Simple().EndedAt.Equal(ended.Add(time.Hour)))
		assert.InDelta(t, 123.4, *got["101"].Completed.PP, 1e-9)
		assert.Equal(t, "Artist - Title (Mapper) [Insane]", got["101"].Completed.Info)

		// Replace drops keys that are no longer present.
		require.NoError(t, store.Replace(ctx, 7, map[string]schema.ScoreRecord{"101": want["101"]}))
		got, err = store.Load(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Contains(t, got, "101")
	})

	t.Run("replace rejects mismatched key", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()
		err := store.Replace(ctx, 7, map[string]schema.ScoreRecord{"999": rawScore("100", 7, ended)})
		assert.Error(t, err)
	})

	t.Run("upsert never downgrades completed", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Upsert(ctx, rawScore("200", 8, ended)))
		require.NoError(t, store.Upsert(ctx, completedScore("200", 8, ended)))
		require.NoError(t, store.Upsert(ctx, rawScore("200", 8, ended)))

		got, err := store.Load(ctx, 8)
		require.NoError(t, err)
		require.Contains(t, got, "200")
		assert.True(t, got["200"].IsCompleted())
	})

	t.Run("users and status", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Upsert(ctx, rawScore("1", 30, ended)))
		require.NoError(t, store.Upsert(ctx, completedScore("2", 10, ended)))
		require.NoError(t, store.Upsert(ctx, rawScore("3", 10, ended)))

		users, err := store.Users(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 30}, users)

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 3, status.TotalScores)
		assert.Equal(t, 1, status.CompletedScores)
		assert.Equal(t, 2, status.Users)
		assert.False(t, status.LastUpdateTime.IsZero())

		var buf bytes.Buffer
		PrintStoreStatus(&buf, status)
		assert.Contains(t, buf.String(), "Scores: 3 (1 completed)")
	})

	t.Run("lock is exclusive per user", func(t *testing.T) {
		store := factory(t)
		defer func() { _ = store.Close() }()

		release, err := store.Lock(ctx, 5)
		require.NoError(t, err)

		// Another user is not blocked.
		other, err := store.Lock(ctx, 6)
		require.NoError(t, err)
		other()

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = store.Lock(waitCtx, 5)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		release()
		release() // second release is a no-op
		again, err := store.Lock(ctx, 5)
		require.NoError(t, err)
		again()
	})
}

func TestLockAcrossHandles(t *testing.T) {
	tests := []struct {
		name string
		open func(location string) (contract.ScoreStore, error)
		path string
	}{
		{"sqlite", func(loc string) (contract.ScoreStore, error) {
			return NewSQLScoreStore(schema.SQLiteBackend, loc)
		}, "scores.db"},
		{"file", func(loc string) (contract.ScoreStore, error) {
			return NewFileScoreStore(loc)
		}, "scores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			location := filepath.Join(t.TempDir(), tt.path)
			first, err := tt.open(location)
			require.NoError(t, err)
			defer func() { _ = first.Close() }()
			second, err := tt.open(location)
			require.NoError(t, err)
			defer func() { _ = second.Close() }()

			release, err := first.Lock(ctx, 7)
			require.NoError(t, err)

			waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
			defer cancel()
			_, err = second.Lock(waitCtx, 7)
			assert.ErrorIs(t, err, context.DeadlineExceeded)

			other, err := second.Lock(ctx, 8)
			require.NoError(t, err)
			other()

			release()
			again, err := second.Lock(ctx, 7)
			require.NoError(t, err)
			again()
		})
	}
}

func TestSQLiteLockBase(t *testing.T) {
	assert.Equal(t, "/data/scores.db", sqliteLockBase("/data/scores.db"))
	assert.Equal(t, GetStoreDBFilePath(), sqliteLockBase(""))
	assert.Empty(t, sqliteLockBase(":memory:"))
	assert.Empty(t, sqliteLockBase("file:scores?mode=memory"))
}

func TestNewScoreStore(t *testing.T) {
	store, err := NewScoreStore(schema.FileBackend, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileScoreStore{}, store)

	_, err = NewScoreStore(schema.NoneBackend, "")
	assert.Error(t, err)
	_, err = NewSQLScoreStore(schema.FileBackend, "")
	assert.Error(t, err)
}

func TestFileScoreStoreIgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileScoreStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json"), []byte("{}"), 0o644))
	require.NoError(t, store.Upsert(context.Background(), rawScore("1", 42, time.Now())))

	users, err := store.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{42}, users)
}

func TestGetUpsertScoreQuery(t *testing.T) {
	assert.Contains(t, getUpsertScoreQuery(schema.SQLiteBackend), "ON CONFLICT (score_id)")
	assert.Contains(t, getUpsertScoreQuery(schema.PostgreSQLBackend), "$7")
	assert.NotContains(t, getUpsertScoreQuery(schema.PostgreSQLBackend), "?")
	assert.Contains(t, getUpsertScoreQuery(schema.MySQLBackend), "ON DUPLICATE KEY UPDATE")
}

func TestClearScores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scores.db")
		store, err := NewSQLScoreStore(schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearScores(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "scores")
		store, err := NewFileScoreStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(context.Background(), rawScore("1", 1, time.Now())))

		require.NoError(t, ClearScores(schema.FileBackend, dir, ""))
		_, err = os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
		assert.Error(t, ClearScores(schema.FileBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearScores(schema.NoneBackend, "", ""))
	})
}

func TestMigrateScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")

	from, to, err := MigrateScores(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(0), from)
	assert.Equal(t, uint(2), to)

	// Already at the latest version.
	from, to, err = MigrateScores(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), from)
	assert.Equal(t, uint(2), to)

	from, to, err = MigrateScores(schema.SQLiteBackend, path, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), from)
	assert.Equal(t, uint(1), to)

	// The migrated table is usable by the store.
	store, err := NewSQLScoreStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Upsert(context.Background(), rawScore("9", 3, time.Now())))

	_, _, err = MigrateScores(schema.FileBackend, "", -1)
	assert.Error(t, err)
}

func TestExportScores(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileScoreStore(t.TempDir())
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, rawScore("1", 2, base)))
	require.NoError(t, store.Upsert(ctx, completedScore("2", 2, base.Add(time.Hour))))
	require.NoError(t, store.Upsert(ctx, rawScore("3", 1, base)))

	tests := []struct {
		name  string
		users []int
		want  int
	}{
		{"all users", nil, 3},
		{"one user", []int{2}, 2},
		{"unknown user", []int{99}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "scores.parquet")
			n, err := ExportScores(ctx, store, tt.users, out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			_, err = os.Stat(out)
			assert.NoError(t, err)
		})
	}

	_, err = ExportScores(ctx, nil, nil, "x.parquet")
	assert.Error(t, err)
	_, err = ExportScores(ctx, store, nil, "")
	assert.Error(t, err)
}
