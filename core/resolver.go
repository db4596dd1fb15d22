package core

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"golang.org/x/sync/errgroup"
)

// seedCacheVersion defines the version of the cached seed schema.
// Seeds never go stale, so a matching version is the only validity check.
const seedCacheVersion = 1

// maxBatchFetches caps how many 50-id beatmap requests run at once.
const maxBatchFetches = 4

// BeatmapResolver looks up beatmap seeds, serving repeats from the seed cache.
type BeatmapResolver struct {
	api   contract.ScoreAPI
	cache contract.CacheStore // nil disables caching
}

// NewBeatmapResolver creates a resolver. cache may be nil.
func NewBeatmapResolver(api contract.ScoreAPI, cache contract.CacheStore) *BeatmapResolver {
	return &BeatmapResolver{api: api, cache: cache}
}

func seedCacheKey(id int) string {
	return "beatmap:" + strconv.Itoa(id)
}

// Resolve returns the seeds of ids keyed by beatmap id. Ids the API does not
// know are absent from the result. Uncached ids are fetched in batches of
// contract.BeatmapBatchSize, several batches at a time.
func (r *BeatmapResolver) Resolve(ctx context.Context, ids []int) (map[int]schema.BeatmapSeed, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	out := make(map[int]schema.BeatmapSeed, len(unique))
	var missing []int
	for _, id := range unique {
		if seed, ok := r.cached(ctx, id); ok {
			out[id] = seed
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchFetches)
	for chunk := range slices.Chunk(missing, contract.BeatmapBatchSize) {
		g.Go(func() error {
			seeds, err := r.api.GetBeatmaps(gctx, chunk)
			if err != nil {
				return fmt.Errorf("fetch beatmaps %d..%d: %w", chunk[0], chunk[len(chunk)-1], err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, seed := range seeds {
				out[seed.ID] = seed
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range missing {
		if seed, ok := out[id]; ok {
			r.store(ctx, seed)
		}
	}
	return out, nil
}

// Get returns a single seed or an error wrapping contract.ErrNotFound.
func (r *BeatmapResolver) Get(ctx context.Context, id int) (schema.BeatmapSeed, error) {
	seeds, err := r.Resolve(ctx, []int{id})
	if err != nil {
		return schema.BeatmapSeed{}, err
	}
	seed, ok := seeds[id]
	if !ok {
		return schema.BeatmapSeed{}, fmt.Errorf("beatmap %d: %w", id, contract.ErrNotFound)
	}
	return seed, nil
}

// cached attempts to retrieve and validate a cached seed
func (r *BeatmapResolver) cached(ctx context.Context, id int) (schema.BeatmapSeed, bool) {
	if r.cache == nil {
		return schema.BeatmapSeed{}, false
	}
	data, version, _, err := r.cache.Get(ctx, seedCacheKey(id))
	if err != nil || version != seedCacheVersion {
		return schema.BeatmapSeed{}, false // Cache miss
	}
	var seed schema.BeatmapSeed
	if err := json.Unmarshal(data, &seed); err != nil || seed.ID != id {
		return schema.BeatmapSeed{}, false
	}
	return seed, true
}

func (r *BeatmapResolver) store(ctx context.Context, seed schema.BeatmapSeed) {
	if r.cache == nil {
		return
	}
	if data, err := json.Marshal(seed); err == nil {
		_ = r.cache.Set(ctx, seedCacheKey(seed.ID), data, seedCacheVersion, time.Now().Unix())
	}
}
