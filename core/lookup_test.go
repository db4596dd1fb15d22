package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLookup(api contract.ScoreAPI) *ScoreLookup {
	return NewScoreLookup(api, NewBeatmapResolver(api, nil), NewCompleter(newTestFiles(), newTestOracle()), 3)
}

func TestGetScore(t *testing.T) {
	ctx := context.Background()

	t.Run("completes the fetched score", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetScore", mock.Anything, "42").Return(testScore("42", 75, 7), nil)

		got, err := newTestLookup(api).GetScore(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "42", got.ScoreID)
		assert.Equal(t, testActual.Total, *got.PP)
		assert.Equal(t, [][]int{{75}}, api.sortedBatches())
	})

	t.Run("unknown score", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetScore", mock.Anything, "0").Return(schema.SimpleScoreInfo{}, fmt.Errorf("score 0: %w", contract.ErrNotFound))

		_, err := newTestLookup(api).GetScore(ctx, "0")
		assert.ErrorIs(t, err, contract.ErrNotFound)
	})

	t.Run("removed beatmap", func(t *testing.T) {
		api := &recordingAPI{missing: map[int]bool{75: true}}
		api.On("GetScore", mock.Anything, "42").Return(testScore("42", 75, 7), nil)

		_, err := newTestLookup(api).GetScore(ctx, "42")
		assert.ErrorIs(t, err, contract.ErrNotFound)
	})
}

func TestGetBeatmapScores(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out per user and merges by score id", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetBeatmapUserScores", mock.Anything, 75, 1).Return([]schema.SimpleScoreInfo{testScore("a", 75, 1), testScore("b", 75, 1)}, nil)
		api.On("GetBeatmapUserScores", mock.Anything, 75, 2).Return([]schema.SimpleScoreInfo{testScore("c", 75, 2)}, nil)
		api.On("GetBeatmapUserScores", mock.Anything, 75, 3).Return([]schema.SimpleScoreInfo{}, nil)

		got, err := newTestLookup(api).GetBeatmapScores(ctx, 75, []int{1, 2, 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		for id, c := range got {
			assert.Equal(t, id, c.ScoreID)
			assert.Equal(t, testActual.Total, *c.PP)
		}
		assert.Equal(t, 2, got["c"].UserID)
		api.AssertNumberOfCalls(t, "GetBeatmapUserScores", 3)
	})

	t.Run("one failing user aborts", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetBeatmapUserScores", mock.Anything, 75, 1).Return([]schema.SimpleScoreInfo{testScore("a", 75, 1)}, nil).Maybe()
		api.On("GetBeatmapUserScores", mock.Anything, 75, 2).Return(nil, fmt.Errorf("%w: 500", contract.ErrTransient))

		_, err := newTestLookup(api).GetBeatmapScores(ctx, 75, []int{1, 2})
		assert.ErrorIs(t, err, contract.ErrTransient)
		assert.ErrorContains(t, err, "user 2")
	})

	t.Run("a score that cannot be completed is left out", func(t *testing.T) {
		api := &recordingAPI{}
		api.On("GetBeatmapUserScores", mock.Anything, 75, 1).Return([]schema.SimpleScoreInfo{
			testScore("a", 75, 1),
			testScore("b", 75, 1, schema.Modifier{Acronym: "XX"}),
		}, nil)

		got, err := newTestLookup(api).GetBeatmapScores(ctx, 75, []int{1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Contains(t, got, "a")
	})

	t.Run("no users", func(t *testing.T) {
		got, err := newTestLookup(&recordingAPI{}).GetBeatmapScores(ctx, 75, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
