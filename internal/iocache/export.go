package iocache

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/parquet"
	"github.com/bobbycyl/osuawa/schema"
)

// ExportScores writes the records of userIDs (every user when empty) to a
// Parquet file at outputPath and returns the number of rows written.
// Rows are ordered by user id, then newest first.
func ExportScores(ctx context.Context, store contract.ScoreStore, userIDs []int, outputPath string) (int, error) {
	if store == nil {
		return 0, fmt.Errorf("score store is not initialized")
	}
	if outputPath == "" {
		return 0, fmt.Errorf("output path cannot be empty")
	}

	if len(userIDs) == 0 {
		var err error
		if userIDs, err = store.Users(ctx); err != nil {
			return 0, err
		}
	}

	var records []schema.ScoreRecord
	for _, id := range userIDs {
		loaded, err := store.Load(ctx, id)
		if err != nil {
			return 0, err
		}
		batch := make([]schema.ScoreRecord, 0, len(loaded))
		for _, rec := range loaded {
			batch = append(batch, rec)
		}
		sort.Slice(batch, func(i, j int) bool {
			a, b := batch[i].Simple(), batch[j].Simple()
			if !a.EndedAt.Equal(b.EndedAt) {
				return a.EndedAt.After(b.EndedAt)
			}
			return a.ScoreID > b.ScoreID
		})
		records = append(records, batch...)
	}

	rows, err := parquet.ConvertScoreRecords(records)
	if err != nil {
		return 0, err
	}
	if err := parquet.WriteScoresParquet(rows, outputPath); err != nil {
		return 0, fmt.Errorf("failed to write scores: %w", err)
	}
	return len(rows), nil
}
