package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobbycyl/osuawa/internal/beatmapfile"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/iocache"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newSyncAPI serves user 7 and the given pages of recent scores, then an empty page.
func newSyncAPI(includeFails bool, pages ...[]schema.SimpleScoreInfo) *recordingAPI {
	api := &recordingAPI{}
	api.On("GetUser", mock.Anything, "7").Return(schema.User{ID: 7, Username: "u1"}, nil)
	for i, page := range pages {
		api.On("GetUserScores", mock.Anything, 7, includeFails, contract.RecentPageSize, i*contract.RecentPageSize).Return(page, nil)
	}
	api.On("GetUserScores", mock.Anything, 7, includeFails, contract.RecentPageSize, len(pages)*contract.RecentPageSize).
		Return([]schema.SimpleScoreInfo{}, nil)
	return api
}

func newTestSyncer(api contract.ScoreAPI, files contract.BeatmapFileCache, oracle contract.Oracle, store contract.ScoreStore) *Syncer {
	return NewSyncer(api, NewBeatmapResolver(api, nil), NewCompleter(files, oracle), store, 4)
}

func threeScores() []schema.SimpleScoreInfo {
	return []schema.SimpleScoreInfo{
		testScore("1", 101, 7),
		testScore("2", 102, 7, schema.Modifier{Acronym: "HD"}),
		testScore("3", 103, 7, schema.Modifier{Acronym: "DT"}),
	}
}

func TestSyncTwice(t *testing.T) {
	ctx := context.Background()
	api := newSyncAPI(true, threeScores())
	store := newFileStore(t)
	s := newTestSyncer(api, newTestFiles(), newTestOracle(), store)

	first, err := s.Sync(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, schema.SyncReport{
		UserID:           7,
		Username:         "u1",
		FetchedCount:     3,
		LocalCountBefore: 0,
		NewCount:         3,
		CompletedCount:   3,
	}, first)

	second, err := s.Sync(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 0, second.CompletedCount)
	assert.Equal(t, 3, second.LocalCountBefore)
	assert.Equal(t, 3, second.FetchedCount)

	records, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for id, rec := range records {
		require.True(t, rec.IsCompleted(), id)
		require.NotNil(t, rec.Completed.PP)
		assert.Equal(t, testActual.Total, *rec.Completed.PP)
	}
	assert.Equal(t, 1.5, records["3"].Completed.Beatmap.Magnitude)
}

func TestSyncPagination(t *testing.T) {
	page1 := make([]schema.SimpleScoreInfo, 0, contract.RecentPageSize)
	for i := range contract.RecentPageSize {
		page1 = append(page1, testScore(fmt.Sprintf("p1-%02d", i), 200+i%3, 7))
	}
	page2 := []schema.SimpleScoreInfo{testScore("p2-00", 200, 7), testScore("p1-00", 200, 7)}
	api := newSyncAPI(false, page1, page2)

	s := newTestSyncer(api, newTestFiles(), newTestOracle(), newFileStore(t))
	report, err := s.Sync(context.Background(), 7, false)
	require.NoError(t, err)

	// A score repeated across pages counts once
	assert.Equal(t, 51, report.FetchedCount)
	assert.Equal(t, 51, report.CompletedCount)
	api.AssertNumberOfCalls(t, "GetUserScores", 3)
	assert.Equal(t, [][]int{{200, 201, 202}}, api.sortedBatches())
}

func TestSyncFailureIsolation(t *testing.T) {
	ctx := context.Background()
	scores := []schema.SimpleScoreInfo{
		testScore("1", 101, 7),
		testScore("2", 102, 7),
		testScore("3", 103, 7, schema.Modifier{Acronym: "XX"}),
		testScore("4", 104, 7),
		testScore("5", 105, 7),
	}
	api := newSyncAPI(true, scores)
	api.missing = map[int]bool{105: true}

	files := new(contract.MockBeatmapFileCache)
	files.On("Ensure", mock.Anything, 104).Return("/maps/104.osu", nil)
	finishFiles(files)

	oracle := new(contract.MockOracle)
	oracle.On("Difficulty", mock.Anything, mock.MatchedBy(func(r schema.DifficultyRequest) bool {
		return r.BeatmapPath == "/maps/104.osu"
	})).Return(schema.DifficultyAttributes{}, fmt.Errorf("%w: bad chart", contract.ErrOracle))
	finishOracle(oracle)

	store := newFileStore(t)
	report, err := newTestSyncer(api, files, oracle, store).Sync(ctx, 7, true)
	require.NoError(t, err)

	assert.Equal(t, 5, report.NewCount)
	assert.Equal(t, 2, report.CompletedCount)
	require.Len(t, report.Failed, 3)
	assert.Equal(t, []string{"3", "4", "5"}, []string{report.Failed[0].ScoreID, report.Failed[1].ScoreID, report.Failed[2].ScoreID})
	assert.Contains(t, report.Failed[0].Reason, "unknown acronym")
	assert.Contains(t, report.Failed[1].Reason, "bad chart")
	assert.Equal(t, 105, report.Failed[2].BeatmapID)
	assert.Contains(t, report.Failed[2].Reason, "not found")

	records, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.True(t, records["1"].IsCompleted())
	assert.True(t, records["2"].IsCompleted())
	assert.False(t, records["3"].IsCompleted())
	assert.False(t, records["4"].IsCompleted())
	assert.False(t, records["5"].IsCompleted())
}

const validChart = `osu file format v14

[General]
Mode: 0

[Metadata]
Title:Song

[Difficulty]
CircleSize:4
OverallDifficulty:8
ApproachRate:9

[HitObjects]
256,192,1000,1,0,0:0:0:0:
`

func TestSyncIsolatesBrokenChartFile(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/102") {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
			return
		}
		_, _ = w.Write([]byte(validChart))
	}))
	defer ts.Close()
	files, err := beatmapfile.NewCache(t.TempDir(), ts.URL+"/osu", ts.Client(), beatmapfile.NewGate(0, 0), time.Second)
	require.NoError(t, err)

	store := newFileStore(t)
	report, err := newTestSyncer(newSyncAPI(true, threeScores()), files, newTestOracle(), store).Sync(ctx, 7, true)
	require.NoError(t, err)

	assert.Equal(t, 3, report.NewCount)
	assert.Equal(t, 2, report.CompletedCount)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "2", report.Failed[0].ScoreID)
	assert.Contains(t, report.Failed[0].Reason, contract.ErrBadChart.Error())

	records, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records["1"].IsCompleted())
	assert.False(t, records["2"].IsCompleted())
	assert.True(t, records["3"].IsCompleted())
}

func TestSyncAborts(t *testing.T) {
	ctx := context.Background()

	t.Run("recent scores failure writes nothing", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetUser", mock.Anything, "7").Return(schema.User{ID: 7, Username: "u1"}, nil)
		api.On("GetUserScores", mock.Anything, 7, true, contract.RecentPageSize, 0).
			Return(nil, fmt.Errorf("%w: 502", contract.ErrTransient))

		store := new(iocache.MockScoreStore)
		_, err := newTestSyncer(api, newTestFiles(), newTestOracle(), store).Sync(ctx, 7, true)
		assert.ErrorIs(t, err, contract.ErrTransient)
		store.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetUser", mock.Anything, "7").Return(schema.User{}, fmt.Errorf("user 7: %w", contract.ErrNotFound))

		_, err := newTestSyncer(api, newTestFiles(), newTestOracle(), new(iocache.MockScoreStore)).Sync(ctx, 7, true)
		assert.ErrorIs(t, err, contract.ErrNotFound)
	})

	t.Run("transient chart download aborts before the write", func(t *testing.T) {
		api := newSyncAPI(true, threeScores())
		files := new(contract.MockBeatmapFileCache)
		files.On("Ensure", mock.Anything, 102).Return("", fmt.Errorf("%w: connection reset", contract.ErrTransient))
		finishFiles(files)

		store := newFileStore(t)
		_, err := newTestSyncer(api, files, newTestOracle(), store).Sync(ctx, 7, true)
		assert.ErrorIs(t, err, contract.ErrTransient)

		records, err := store.Load(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("lock timeout", func(t *testing.T) {
		api := newSyncAPI(true, threeScores())
		store := newFileStore(t)
		release, err := store.Lock(ctx, 7)
		require.NoError(t, err)
		defer release()

		tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = newTestSyncer(api, newTestFiles(), newTestOracle(), store).Sync(tctx, 7, true)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSyncSkipsWriteWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	scores := threeScores()
	persisted := make(map[string]schema.ScoreRecord, len(scores))
	for _, s := range scores {
		persisted[s.ScoreID] = completedOf(s)
	}

	api := newSyncAPI(true, scores)
	store := new(iocache.MockScoreStore)
	store.On("Lock", mock.Anything, 7).Return(func() {}, nil)
	store.On("Load", mock.Anything, 7).Return(persisted, nil)

	oracle := new(contract.MockOracle)
	report, err := newTestSyncer(api, new(contract.MockBeatmapFileCache), oracle, store).Sync(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, 0, report.NewCount)
	assert.Equal(t, 0, report.CompletedCount)
	store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
	oracle.AssertNotCalled(t, "Difficulty", mock.Anything, mock.Anything)
	assert.Empty(t, api.sortedBatches())
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()

	seedStore := func(t *testing.T) *iocache.FileScoreStore {
		store := newFileStore(t)
		records := map[string]schema.ScoreRecord{
			"1": completedOf(testScore("1", 101, 7)),
			"2": schema.RawRecord(testScore("2", 102, 7)),
		}
		require.NoError(t, store.Replace(ctx, 7, records))
		return store
	}

	t.Run("all records", func(t *testing.T) {
		store := seedStore(t)
		api := &recordingAPI{}
		report, err := newTestSyncer(api, newTestFiles(), newTestOracle(), store).Recompute(ctx, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, report.CompletedCount)
		assert.Equal(t, 2, report.LocalCountBefore)
		assert.Empty(t, report.Failed)

		records, err := store.Load(ctx, 7)
		require.NoError(t, err)
		for _, id := range []string{"1", "2"} {
			require.True(t, records[id].IsCompleted(), id)
			assert.Equal(t, testActual.Total, *records[id].Completed.PP)
		}
		assert.Equal(t, "Artist - Song 101 (Mapper) [Insane]", records["1"].Completed.Info)
	})

	t.Run("selected records", func(t *testing.T) {
		store := seedStore(t)
		api := &recordingAPI{}
		report, err := newTestSyncer(api, newTestFiles(), newTestOracle(), store).Recompute(ctx, 7, []string{"2"})
		require.NoError(t, err)
		assert.Equal(t, 1, report.CompletedCount)
		assert.Equal(t, [][]int{{102}}, api.sortedBatches())

		records, err := store.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "done", records["1"].Completed.Info)
		assert.True(t, records["2"].IsCompleted())
	})

	t.Run("unknown id", func(t *testing.T) {
		store := seedStore(t)
		_, err := newTestSyncer(&recordingAPI{}, newTestFiles(), newTestOracle(), store).Recompute(ctx, 7, []string{"404"})
		assert.ErrorIs(t, err, contract.ErrNotFound)
	})

	t.Run("failures keep the stored record", func(t *testing.T) {
		store := seedStore(t)
		oracle := new(contract.MockOracle)
		oracle.On("Difficulty", mock.Anything, mock.Anything).Return(schema.DifficultyAttributes{}, fmt.Errorf("%w: crashed", contract.ErrOracle))
		report, err := newTestSyncer(&recordingAPI{}, newTestFiles(), oracle, store).Recompute(ctx, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, report.CompletedCount)
		assert.Len(t, report.Failed, 2)

		records, err := store.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "done", records["1"].Completed.Info)
		assert.False(t, records["2"].IsCompleted())
	})
}

func TestUserIDLabelInContext(t *testing.T) {
	ctx := withUserID(context.Background(), 7)
	id, ok := getUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}
