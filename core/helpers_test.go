package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/iocache"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testDifficulty = schema.DifficultyAttributes{StarRating: 5.8, MaxCombo: 600, Aim: 2.8, Speed: 2.4}
	testActual     = schema.PerformanceAttributes{Aim: 60, Speed: 50, Accuracy: 40, Total: 150}
	baseEnded      = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func testSeed(id int) schema.BeatmapSeed {
	return schema.BeatmapSeed{
		ID:               id,
		BeatmapsetID:     id * 10,
		Mode:             "osu",
		CS:               4,
		Accuracy:         8,
		AR:               9,
		BPM:              180,
		HitLength:        120,
		MaxCombo:         600,
		DifficultyRating: 5.5,
		Version:          "Insane",
		Artist:           "Artist",
		Title:            fmt.Sprintf("Song %d", id),
		Creator:          "Mapper",
	}
}

func testScore(id string, beatmapID, userID int, mods ...schema.Modifier) schema.SimpleScoreInfo {
	wrong := 999.0
	return schema.SimpleScoreInfo{
		ScoreID:    id,
		BeatmapID:  beatmapID,
		UserID:     userID,
		TotalScore: 400000,
		Accuracy:   0.97,
		MaxCombo:   550,
		Passed:     true,
		PP:         &wrong,
		Mods:       mods,
		EndedAt:    baseEnded,
		Statistics: schema.Statistics{Great: 480, Ok: 10, Meh: 2, Miss: 1},
	}
}

// refAttrs is what the test oracle returns for a reference accuracy.
func refAttrs(acc float64) schema.PerformanceAttributes {
	return schema.PerformanceAttributes{Aim: acc, Speed: acc / 2, Accuracy: acc / 4, Total: acc * 2}
}

func actualPlay() any {
	return mock.MatchedBy(func(r schema.PerformanceRequest) bool { return r.Accuracy == nil })
}

func accuracyIs(v float64) any {
	return mock.MatchedBy(func(r schema.PerformanceRequest) bool { return r.Accuracy != nil && *r.Accuracy == v })
}

// newTestOracle returns an oracle answering every request with fixed values.
func newTestOracle() *contract.MockOracle {
	o := new(contract.MockOracle)
	finishOracle(o)
	return o
}

// finishOracle adds the catch-all answers. Expectations registered
// earlier take precedence.
func finishOracle(o *contract.MockOracle) {
	o.On("Difficulty", mock.Anything, mock.Anything).Return(testDifficulty, nil)
	o.On("Performance", mock.Anything, actualPlay()).Return(testActual, nil)
	for _, acc := range []float64{100, 92, 81, 67} {
		o.On("Performance", mock.Anything, accuracyIs(acc)).Return(refAttrs(acc), nil)
	}
}

func newTestFiles() *contract.MockBeatmapFileCache {
	f := new(contract.MockBeatmapFileCache)
	finishFiles(f)
	return f
}

func finishFiles(f *contract.MockBeatmapFileCache) {
	f.On("Ensure", mock.Anything, mock.AnythingOfType("int")).Return("/maps/chart.osu", nil)
}

// seedsFor builds seeds for ids.
func seedsFor(ids ...int) []schema.BeatmapSeed {
	seeds := make([]schema.BeatmapSeed, 0, len(ids))
	for _, id := range ids {
		seeds = append(seeds, testSeed(id))
	}
	return seeds
}

func newFileStore(t *testing.T) *iocache.FileScoreStore {
	t.Helper()
	store, err := iocache.NewFileScoreStore(t.TempDir())
	require.NoError(t, err)
	return store
}
