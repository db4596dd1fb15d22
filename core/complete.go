package core

import (
	"context"
	"fmt"

	"github.com/bobbycyl/osuawa/core/mods"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
)

// Reference accuracies, in percent, for the what-if pp columns.
const (
	refAccuracy100 = 100.0
	refAccuracy92  = 92.0
	refAccuracy81  = 81.0
	refAccuracy67  = 67.0
)

// Completer turns raw scores into completed ones using the chart file cache
// and the performance oracle.
type Completer struct {
	files  contract.BeatmapFileCache
	oracle contract.Oracle
}

// NewCompleter creates a Completer.
func NewCompleter(files contract.BeatmapFileCache, oracle contract.Oracle) *Completer {
	return &Completer{files: files, oracle: oracle}
}

// Complete computes every derived attribute of record on seed. A completed
// record is truncated first, so completing twice gives the same result.
// The returned pp is always the oracle's value for the actual play.
// Nothing partial is returned: any failure fails the whole call.
func (c *Completer) Complete(ctx context.Context, seed schema.BeatmapSeed, record schema.ScoreRecord) (schema.CompletedScoreInfo, error) {
	score := record.Simple()
	if record.IsCompleted() {
		score = record.Completed.Truncate()
	}

	// Validation runs before any I/O
	transformed, err := mods.Transform(seed, score.Mods)
	if err != nil {
		return schema.CompletedScoreInfo{}, fmt.Errorf("score %s: %w", score.ScoreID, err)
	}

	path, err := c.files.Ensure(ctx, seed.ID)
	if err != nil {
		return schema.CompletedScoreInfo{}, fmt.Errorf("chart file for score %s: %w", score.ScoreID, err)
	}

	// Every oracle call gets the same modifier arguments the transform saw
	acronyms, options := mods.ToolArgs(score.Mods)
	base := schema.DifficultyRequest{
		BeatmapPath: path,
		Mods:        acronyms,
		ModOptions:  options,
		Modifiers:   score.Mods,
	}

	difficulty, err := c.oracle.Difficulty(ctx, base)
	if err != nil {
		return schema.CompletedScoreInfo{}, fmt.Errorf("difficulty of score %s: %w", score.ScoreID, err)
	}

	combo := score.MaxCombo
	actual, err := c.oracle.Performance(ctx, schema.PerformanceRequest{
		DifficultyRequest: base,
		Combo:             &combo,
		Misses:            score.Statistics.Miss,
		Mehs:              score.Statistics.Meh,
		Oks:               score.Statistics.Ok,
		LargeTickHits:     score.Statistics.LargeTickHit,
		SliderTailHits:    score.Statistics.SliderTailHit,
		Lazer:             score.IsLazer(),
	})
	if err != nil {
		return schema.CompletedScoreInfo{}, fmt.Errorf("performance of score %s: %w", score.ScoreID, err)
	}

	out := schema.CompletedScoreInfo{
		Beatmap:          transformed,
		Info:             seed.Info(),
		DifficultyRating: seed.DifficultyRating,
		Difficulty:       difficulty,
		Performance:      actual,
	}
	refs := []struct {
		accuracy float64
		priority schema.HitResultPriority
		dst      *schema.PerformanceAttributes
	}{
		{refAccuracy100, schema.BestCase, &out.Ref100},
		{refAccuracy92, schema.WorstCase, &out.Ref92},
		{refAccuracy81, schema.WorstCase, &out.Ref81},
		{refAccuracy67, schema.WorstCase, &out.Ref67},
	}
	for _, ref := range refs {
		acc := ref.accuracy
		attrs, err := c.oracle.Performance(ctx, schema.PerformanceRequest{
			DifficultyRequest: base,
			Accuracy:          &acc,
			Priority:          ref.priority,
			Lazer:             score.IsLazer(),
		})
		if err != nil {
			return schema.CompletedScoreInfo{}, fmt.Errorf("%v%% reference of score %s: %w", ref.accuracy, score.ScoreID, err)
		}
		*ref.dst = attrs
	}

	pp := actual.Total
	score.PP = &pp
	out.SimpleScoreInfo = score
	return out, nil
}
