// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/bobbycyl/osuawa/schema"
)

// ScoreAPI defines the upstream score and beatmap API operations the core needs.
// This allows the sync and completion logic to be tested without network access.
type ScoreAPI interface {
	// GetUser resolves a user by numeric id or by "@username".
	GetUser(ctx context.Context, key string) (schema.User, error)

	// GetFriends returns the friends of the authenticated user.
	GetFriends(ctx context.Context) ([]schema.User, error)

	// GetBeatmaps returns the beatmaps for up to 50 ids. Unknown ids are omitted.
	GetBeatmaps(ctx context.Context, ids []int) ([]schema.BeatmapSeed, error)

	// GetUserScores returns one page of a user's recent scores.
	GetUserScores(ctx context.Context, userID int, includeFails bool, limit, offset int) ([]schema.SimpleScoreInfo, error)

	// GetScore returns a single score by id.
	GetScore(ctx context.Context, scoreID string) (schema.SimpleScoreInfo, error)

	// GetBeatmapUserScores returns every score a user set on a beatmap.
	GetBeatmapUserScores(ctx context.Context, beatmapID, userID int) ([]schema.SimpleScoreInfo, error)
}

// BeatmapFileCache keeps native chart files on local disk.
type BeatmapFileCache interface {
	// Ensure returns the local path of the chart file, downloading it if absent.
	Ensure(ctx context.Context, beatmapID int) (string, error)
}

// Oracle computes difficulty and performance for a chart file.
type Oracle interface {
	Difficulty(ctx context.Context, req schema.DifficultyRequest) (schema.DifficultyAttributes, error)
	Performance(ctx context.Context, req schema.PerformanceRequest) (schema.PerformanceAttributes, error)
}
