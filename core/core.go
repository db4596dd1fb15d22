// Package core has core logic for completing, syncing and viewing scores.
package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/outwriter"
	"github.com/bobbycyl/osuawa/schema"
)

// Deps bundles the collaborators behind the entry points.
type Deps struct {
	API    contract.ScoreAPI
	Files  contract.BeatmapFileCache
	Oracle contract.Oracle
	Stores contract.CacheManager
}

func (d Deps) resolver() *BeatmapResolver {
	var cache contract.CacheStore
	if d.Stores != nil {
		cache = d.Stores.GetBeatmapStore()
	}
	return NewBeatmapResolver(d.API, cache)
}

func (d Deps) completer() *Completer {
	return NewCompleter(d.Files, d.Oracle)
}

func (d Deps) scoreStore() (contract.ScoreStore, error) {
	if d.Stores == nil || d.Stores.GetScoreStore() == nil {
		return nil, errors.New("score store is not initialized")
	}
	return d.Stores.GetScoreStore(), nil
}

func (d Deps) syncer(cfg *contract.Config) (*Syncer, error) {
	store, err := d.scoreStore()
	if err != nil {
		return nil, err
	}
	return NewSyncer(d.API, d.resolver(), d.completer(), store, cfg.Workers), nil
}

func (d Deps) lookup(cfg *contract.Config) *ScoreLookup {
	return NewScoreLookup(d.API, d.resolver(), d.completer(), cfg.Workers)
}

// ResolveUserID turns "123" or "@name" into a user id.
func ResolveUserID(ctx context.Context, api contract.ScoreAPI, key string) (int, error) {
	key = strings.TrimSpace(key)
	if id, err := strconv.Atoi(key); err == nil {
		return id, nil
	}
	if !strings.HasPrefix(key, "@") || len(key) == 1 {
		return 0, fmt.Errorf("user must be a numeric id or @username (received %q)", key)
	}
	user, err := api.GetUser(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("resolve user %s: %w", key, err)
	}
	return user.ID, nil
}

func resolveUserIDs(ctx context.Context, api contract.ScoreAPI, keys []string) ([]int, error) {
	ids := make([]int, 0, len(keys))
	for _, key := range keys {
		id, err := ResolveUserID(ctx, api, key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetSyncResults syncs each user in turn and returns one report per user.
func GetSyncResults(ctx context.Context, cfg *contract.Config, deps Deps, userKeys []string) ([]schema.SyncReport, error) {
	syncer, err := deps.syncer(cfg)
	if err != nil {
		return nil, err
	}
	ids, err := resolveUserIDs(ctx, deps.API, userKeys)
	if err != nil {
		return nil, err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogOracleHeader(cfg)
	}
	reports := make([]schema.SyncReport, 0, len(ids))
	for _, id := range ids {
		if !shouldSuppressHeader(ctx) {
			outwriter.LogSyncHeader(cfg, id)
		}
		report, err := syncer.Sync(ctx, id, cfg.IncludeFails)
		if err != nil {
			return reports, fmt.Errorf("sync user %d: %w", id, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ExecuteSync syncs the users and prints the reports.
func ExecuteSync(ctx context.Context, cfg *contract.Config, deps Deps, userKeys []string) error {
	start := time.Now()
	reports, err := GetSyncResults(ctx, cfg, deps, userKeys)
	if err != nil {
		return err
	}
	return outwriter.PrintSyncReports(reports, cfg, time.Since(start))
}

// GetRecomputeResults re-completes stored records of one user.
func GetRecomputeResults(ctx context.Context, cfg *contract.Config, deps Deps, userKey string, scoreIDs []string) (schema.SyncReport, error) {
	syncer, err := deps.syncer(cfg)
	if err != nil {
		return schema.SyncReport{}, err
	}
	id, err := ResolveUserID(ctx, deps.API, userKey)
	if err != nil {
		return schema.SyncReport{}, err
	}
	return syncer.Recompute(ctx, id, scoreIDs)
}

// ExecuteRecompute re-completes stored records and prints the report.
func ExecuteRecompute(ctx context.Context, cfg *contract.Config, deps Deps, userKey string, scoreIDs []string) error {
	start := time.Now()
	report, err := GetRecomputeResults(ctx, cfg, deps, userKey, scoreIDs)
	if err != nil {
		return err
	}
	return outwriter.PrintSyncReports([]schema.SyncReport{report}, cfg, time.Since(start))
}

// GetViewResults builds the view of a user's stored completed scores,
// newest first, limited to cfg.ResultLimit rows.
func GetViewResults(ctx context.Context, cfg *contract.Config, deps Deps, userKey string) ([]schema.ViewRow, error) {
	rows, err := storedView(ctx, cfg, deps, userKey)
	if err != nil {
		return nil, err
	}
	if cfg.ResultLimit > 0 && len(rows) > cfg.ResultLimit {
		rows = rows[:cfg.ResultLimit]
	}
	return rows, nil
}

// ExecuteView prints the view of a user's stored scores.
func ExecuteView(ctx context.Context, cfg *contract.Config, deps Deps, userKey string) error {
	start := time.Now()
	rows, err := GetViewResults(ctx, cfg, deps, userKey)
	if err != nil {
		return err
	}
	return outwriter.PrintView(rows, cfg, time.Since(start))
}

// GetSummaryResults summarizes every stored completed score of a user.
func GetSummaryResults(ctx context.Context, cfg *contract.Config, deps Deps, userKey string) (schema.Summary, error) {
	rows, err := storedView(ctx, cfg, deps, userKey)
	if err != nil {
		return schema.Summary{}, err
	}
	return Summarize(rows), nil
}

// ExecuteSummary prints the pp overview of a user.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, deps Deps, userKey string) error {
	start := time.Now()
	summary, err := GetSummaryResults(ctx, cfg, deps, userKey)
	if err != nil {
		return err
	}
	return outwriter.PrintSummary(summary, cfg, time.Since(start))
}

func storedView(ctx context.Context, cfg *contract.Config, deps Deps, userKey string) ([]schema.ViewRow, error) {
	store, err := deps.scoreStore()
	if err != nil {
		return nil, err
	}
	id, err := ResolveUserID(ctx, deps.API, userKey)
	if err != nil {
		return nil, err
	}
	records, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildView(CompletedOnly(records), cfg.Location), nil
}

// GetScoreResults fetches and completes one score.
func GetScoreResults(ctx context.Context, cfg *contract.Config, deps Deps, scoreID string) ([]schema.ViewRow, error) {
	c, err := deps.lookup(cfg).GetScore(ctx, scoreID)
	if err != nil {
		return nil, err
	}
	return BuildView(map[string]schema.CompletedScoreInfo{c.ScoreID: c}, cfg.Location), nil
}

// ExecuteScore prints one completed score.
func ExecuteScore(ctx context.Context, cfg *contract.Config, deps Deps, scoreID string) error {
	start := time.Now()
	rows, err := GetScoreResults(ctx, cfg, deps, scoreID)
	if err != nil {
		return err
	}
	return outwriter.PrintView(rows, cfg, time.Since(start))
}

// GetBeatmapResults fetches and completes the scores of users on a beatmap.
func GetBeatmapResults(ctx context.Context, cfg *contract.Config, deps Deps, beatmapID int, userKeys []string) ([]schema.ViewRow, error) {
	ids, err := resolveUserIDs(ctx, deps.API, userKeys)
	if err != nil {
		return nil, err
	}
	scores, err := deps.lookup(cfg).GetBeatmapScores(ctx, beatmapID, ids)
	if err != nil {
		return nil, err
	}
	return BuildView(scores, cfg.Location), nil
}

// ExecuteBeatmap prints the completed scores of users on a beatmap.
func ExecuteBeatmap(ctx context.Context, cfg *contract.Config, deps Deps, beatmapID int, userKeys []string) error {
	start := time.Now()
	rows, err := GetBeatmapResults(ctx, cfg, deps, beatmapID, userKeys)
	if err != nil {
		return err
	}
	return outwriter.PrintView(rows, cfg, time.Since(start))
}

// GetUserResults returns one user, or the friends list when friends is set.
func GetUserResults(ctx context.Context, deps Deps, userKey string, friends bool) ([]schema.User, error) {
	if friends {
		return deps.API.GetFriends(ctx)
	}
	if _, err := strconv.Atoi(strings.TrimSpace(userKey)); err != nil && !strings.HasPrefix(userKey, "@") {
		return nil, fmt.Errorf("user must be a numeric id or @username (received %q)", userKey)
	}
	user, err := deps.API.GetUser(ctx, strings.TrimSpace(userKey))
	if err != nil {
		return nil, err
	}
	return []schema.User{user}, nil
}

// ExecuteUser prints user info.
func ExecuteUser(ctx context.Context, cfg *contract.Config, deps Deps, userKey string, friends bool) error {
	start := time.Now()
	users, err := GetUserResults(ctx, deps, userKey, friends)
	if err != nil {
		return err
	}
	return outwriter.PrintUsers(users, cfg, time.Since(start))
}
