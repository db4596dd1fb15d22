package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"golang.org/x/sync/errgroup"
)

// Syncer keeps a user's persisted scores in step with the API.
type Syncer struct {
	api       contract.ScoreAPI
	beatmaps  *BeatmapResolver
	completer *Completer
	store     contract.ScoreStore
	workers   int
}

// NewSyncer creates a Syncer. workers bounds concurrent completions.
func NewSyncer(api contract.ScoreAPI, beatmaps *BeatmapResolver, completer *Completer, store contract.ScoreStore, workers int) *Syncer {
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}
	return &Syncer{api: api, beatmaps: beatmaps, completer: completer, store: store, workers: workers}
}

// Sync fetches every recent score of userID, merges them into the persisted
// records, completes what is still raw and writes the result back.
//
// Scores that fail completion with a score-local error stay raw and are
// listed in the report. Any other error aborts the sync before the write.
func (s *Syncer) Sync(ctx context.Context, userID int, includeFails bool) (schema.SyncReport, error) {
	ctx = withUserID(ctx, userID)

	user, err := s.api.GetUser(ctx, strconv.Itoa(userID))
	if err != nil {
		return schema.SyncReport{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	fresh, err := s.fetchRecent(ctx, userID, includeFails)
	if err != nil {
		return schema.SyncReport{}, err
	}

	release, err := s.store.Lock(ctx, userID)
	if err != nil {
		return schema.SyncReport{}, err
	}
	defer release()

	persisted, err := s.store.Load(ctx, userID)
	if err != nil {
		return schema.SyncReport{}, err
	}

	merged := Merge(fresh, persisted)
	completed, failed, err := s.completeRaw(ctx, merged, pendingIDs(merged))
	if err != nil {
		return schema.SyncReport{}, err
	}
	for id, c := range completed {
		merged[id] = schema.CompletedRecord(c)
	}

	report := schema.SyncReport{
		UserID:           userID,
		Username:         user.Username,
		FetchedCount:     len(fresh),
		LocalCountBefore: len(persisted),
		NewCount:         countNew(fresh, persisted),
		CompletedCount:   len(completed),
		Failed:           failed,
	}
	// Nothing changed: leave the stored bytes alone
	if report.NewCount == 0 && report.CompletedCount == 0 {
		return report, nil
	}
	if err := s.store.Replace(ctx, userID, merged); err != nil {
		return schema.SyncReport{}, fmt.Errorf("write scores of %d: %w", userID, err)
	}
	return report, nil
}

// Recompute re-completes the given records of userID, or all of them when
// scoreIDs is empty, and upserts each result.
func (s *Syncer) Recompute(ctx context.Context, userID int, scoreIDs []string) (schema.SyncReport, error) {
	ctx = withUserID(ctx, userID)

	release, err := s.store.Lock(ctx, userID)
	if err != nil {
		return schema.SyncReport{}, err
	}
	defer release()

	records, err := s.store.Load(ctx, userID)
	if err != nil {
		return schema.SyncReport{}, err
	}
	if len(scoreIDs) == 0 {
		scoreIDs = sortedKeys(records)
	}
	for _, id := range scoreIDs {
		if _, ok := records[id]; !ok {
			return schema.SyncReport{}, fmt.Errorf("score %s of user %d: %w", id, userID, contract.ErrNotFound)
		}
	}

	completed, failed, err := s.completeRaw(ctx, records, scoreIDs)
	if err != nil {
		return schema.SyncReport{}, err
	}
	for _, id := range sortedKeys(completed) {
		if err := s.store.Upsert(ctx, schema.CompletedRecord(completed[id])); err != nil {
			return schema.SyncReport{}, fmt.Errorf("write score %s: %w", id, err)
		}
	}

	return schema.SyncReport{
		UserID:           userID,
		LocalCountBefore: len(records),
		CompletedCount:   len(completed),
		Failed:           failed,
	}, nil
}

// fetchRecent pages through the recent scores until an empty page.
func (s *Syncer) fetchRecent(ctx context.Context, userID int, includeFails bool) (map[string]schema.ScoreRecord, error) {
	out := make(map[string]schema.ScoreRecord)
	for offset := 0; ; offset += contract.RecentPageSize {
		page, err := s.api.GetUserScores(ctx, userID, includeFails, contract.RecentPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("recent scores of %d at offset %d: %w", userID, offset, err)
		}
		if len(page) == 0 {
			return out, nil
		}
		for _, score := range page {
			out[score.ScoreID] = schema.RawRecord(score)
		}
	}
}

// completeRaw completes records[ids] on the worker pool.
func (s *Syncer) completeRaw(ctx context.Context, records map[string]schema.ScoreRecord, ids []string) (map[string]schema.CompletedScoreInfo, []schema.ScoreFailure, error) {
	completed := make(map[string]schema.CompletedScoreInfo, len(ids))
	if len(ids) == 0 {
		return completed, nil, nil
	}

	beatmapIDs := make([]int, 0, len(ids))
	for _, id := range ids {
		beatmapIDs = append(beatmapIDs, records[id].Simple().BeatmapID)
	}
	seeds, err := s.beatmaps.Resolve(ctx, beatmapIDs)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu     sync.Mutex
		failed []schema.ScoreFailure
	)
	fail := func(score schema.SimpleScoreInfo, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, schema.ScoreFailure{ScoreID: score.ScoreID, BeatmapID: score.BeatmapID, Reason: err.Error()})
		label := "Cannot complete score " + score.ScoreID
		if userID, ok := getUserID(ctx); ok {
			label += " of user " + strconv.Itoa(userID)
		}
		contract.LogWarn(label, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		record := records[id]
		score := record.Simple()
		g.Go(func() error {
			seed, ok := seeds[score.BeatmapID]
			if !ok {
				fail(score, fmt.Errorf("beatmap %d: %w", score.BeatmapID, contract.ErrNotFound))
				return nil
			}
			c, err := s.completer.Complete(gctx, seed, record)
			if err != nil {
				if contract.IsScoreLocal(err) {
					fail(score, err)
					return nil
				}
				return err
			}
			mu.Lock()
			completed[id] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(failed, func(a, b schema.ScoreFailure) int {
		return cmp.Compare(a.ScoreID, b.ScoreID)
	})
	return completed, failed, nil
}

// pendingIDs lists the raw records, sorted.
func pendingIDs(records map[string]schema.ScoreRecord) []string {
	var ids []string
	for id, rec := range records {
		if !rec.IsCompleted() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
