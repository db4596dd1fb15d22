package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"golang.org/x/sync/errgroup"
)

// ScoreLookup fetches scores on demand and completes them without touching
// the persisted store.
type ScoreLookup struct {
	api       contract.ScoreAPI
	beatmaps  *BeatmapResolver
	completer *Completer
	workers   int
}

// NewScoreLookup creates a ScoreLookup. workers bounds the per-user fan-out
// and the completions.
func NewScoreLookup(api contract.ScoreAPI, beatmaps *BeatmapResolver, completer *Completer, workers int) *ScoreLookup {
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}
	return &ScoreLookup{api: api, beatmaps: beatmaps, completer: completer, workers: workers}
}

// GetScore fetches one score by id and completes it.
func (l *ScoreLookup) GetScore(ctx context.Context, scoreID string) (schema.CompletedScoreInfo, error) {
	score, err := l.api.GetScore(ctx, scoreID)
	if err != nil {
		return schema.CompletedScoreInfo{}, fmt.Errorf("get score %s: %w", scoreID, err)
	}
	seed, err := l.beatmaps.Get(ctx, score.BeatmapID)
	if err != nil {
		return schema.CompletedScoreInfo{}, err
	}
	return l.completer.Complete(ctx, seed, schema.RawRecord(score))
}

// GetBeatmapScores fetches the scores every user in userIDs set on beatmapID,
// concurrently, and completes them. The result is keyed by score id. A score
// that cannot be completed on its own (see contract.IsScoreLocal) is logged
// and left out; any other error aborts.
func (l *ScoreLookup) GetBeatmapScores(ctx context.Context, beatmapID int, userIDs []int) (map[string]schema.CompletedScoreInfo, error) {
	seed, err := l.beatmaps.Get(ctx, beatmapID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	raw := make(map[string]schema.SimpleScoreInfo)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, userID := range userIDs {
		g.Go(func() error {
			scores, err := l.api.GetBeatmapUserScores(gctx, beatmapID, userID)
			if err != nil {
				return fmt.Errorf("scores of user %d on beatmap %d: %w", userID, beatmapID, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range scores {
				raw[s.ScoreID] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]schema.CompletedScoreInfo, len(raw))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for id, score := range raw {
		g.Go(func() error {
			c, err := l.completer.Complete(gctx, seed, schema.RawRecord(score))
			if err != nil {
				if contract.IsScoreLocal(err) {
					contract.LogWarn(fmt.Sprintf("Skipping score %s on beatmap %d", id, beatmapID), err)
					return nil
				}
				return err
			}
			mu.Lock()
			out[id] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
