// Package parquet exports persisted scores and dashboard views to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/schema"
	"github.com/parquet-go/parquet-go"
)

// ScoreRecord is one persisted score. It maps to a row of the osuawa_scores table,
// with the commonly queried fields lifted out of the JSON document.
type ScoreRecord struct {
	ScoreID    string    `parquet:"score_id,snappy"`
	UserID     int64     `parquet:"user_id,snappy"`
	BeatmapID  int64     `parquet:"beatmap_id,snappy"`
	Kind       string    `parquet:"kind,snappy,dict"`
	EndedAt    time.Time `parquet:"ended_at,snappy"`
	Passed     bool      `parquet:"passed,snappy"`
	TotalScore int64     `parquet:"total_score,snappy"`
	Accuracy   float64   `parquet:"accuracy,snappy"`
	MaxCombo   int32     `parquet:"max_combo,snappy"`
	Mods       string    `parquet:"mods,snappy"`

	// PP is the locally computed value for completed scores and the upstream value otherwise (nullable)
	PP *float64 `parquet:"pp,optional,snappy"`

	// StarRating is only known for completed scores (nullable)
	StarRating *float64 `parquet:"star_rating,optional,snappy"`

	// Data is the full JSON record as stored
	Data string `parquet:"data,snappy"`
}

// ViewRow is one row of the derived dashboard view. Missing ratios are null.
type ViewRow struct {
	ScoreID           string    `parquet:"score_id,snappy"`
	UserID            int64     `parquet:"user_id,snappy"`
	BeatmapID         int64     `parquet:"beatmap_id,snappy"`
	Info              string    `parquet:"info,snappy"`
	EndedAt           time.Time `parquet:"ended_at,snappy"`
	TimeOfDay         int32     `parquet:"ts_seconds,snappy"`
	Mods              string    `parquet:"mods,snappy"`
	OnlyCommonMods    bool      `parquet:"only_common_mods,snappy"`
	Passed            bool      `parquet:"passed,snappy"`
	Accuracy          float64   `parquet:"accuracy,snappy"`
	MaxCombo          int32     `parquet:"max_combo,snappy"`
	ScoreNF           int64     `parquet:"score_nf,snappy"`
	StarRating        float64   `parquet:"star_rating,snappy"`
	CS                float64   `parquet:"cs,snappy"`
	AR                float64   `parquet:"ar,snappy"`
	OD                float64   `parquet:"od,snappy"`
	BPM               float64   `parquet:"bpm,snappy"`
	HitLength         int32     `parquet:"hit_length,snappy"`
	PP                float64   `parquet:"pp,snappy"`
	PPPct             *float64  `parquet:"pp_pct,optional,snappy"`
	PPAimPct          *float64  `parquet:"pp_aim_pct,optional,snappy"`
	PPSpeedPct        *float64  `parquet:"pp_speed_pct,optional,snappy"`
	PPAccuracyPct     *float64  `parquet:"pp_accuracy_pct,optional,snappy"`
	PP92Pct           *float64  `parquet:"pp_92pct,optional,snappy"`
	PP81Pct           *float64  `parquet:"pp_81pct,optional,snappy"`
	PP67Pct           *float64  `parquet:"pp_67pct,optional,snappy"`
	ComboPct          *float64  `parquet:"combo_pct,optional,snappy"`
	Density           *float64  `parquet:"density,optional,snappy"`
	AimDensityRatio   *float64  `parquet:"aim_density_ratio,optional,snappy"`
	SpeedDensityRatio *float64  `parquet:"speed_density_ratio,optional,snappy"`
	AimSpeedRatio     *float64  `parquet:"aim_speed_ratio,optional,snappy"`
	Flagged           string    `parquet:"flagged,snappy"`
}

// WriteScoresParquet writes persisted score records to a Parquet file.
func WriteScoresParquet(data []ScoreRecord, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteViewParquet writes view rows to a Parquet file.
func WriteViewParquet(data []ViewRow, outputPath string) error {
	return writeFile(data, outputPath)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertScoreRecords converts persisted records for Parquet export.
func ConvertScoreRecords(records []schema.ScoreRecord) ([]ScoreRecord, error) {
	result := make([]ScoreRecord, 0, len(records))
	for _, record := range records {
		b, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encode score %s: %w", record.ID(), err)
		}
		s := record.Simple()
		row := ScoreRecord{
			ScoreID:    s.ScoreID,
			UserID:     int64(s.UserID),
			BeatmapID:  int64(s.BeatmapID),
			Kind:       string(record.Kind),
			EndedAt:    s.EndedAt,
			Passed:     s.Passed,
			TotalScore: s.TotalScore,
			Accuracy:   s.Accuracy,
			MaxCombo:   int32(s.MaxCombo),
			Mods:       modsText(s.Mods),
			PP:         s.PP,
			Data:       string(b),
		}
		if record.IsCompleted() {
			star := record.Completed.Difficulty.StarRating
			row.StarRating = &star
		}
		result = append(result, row)
	}
	return result, nil
}

// ConvertViewRows converts view rows for Parquet export.
func ConvertViewRows(rows []schema.ViewRow) []ViewRow {
	result := make([]ViewRow, len(rows))
	for i, r := range rows {
		var pp float64
		if r.PP != nil {
			pp = *r.PP
		}
		result[i] = ViewRow{
			ScoreID:           r.ScoreID,
			UserID:            int64(r.UserID),
			BeatmapID:         int64(r.BeatmapID),
			Info:              r.Info,
			EndedAt:           r.EndedAt,
			TimeOfDay:         int32(r.TimeOfDay),
			Mods:              r.ModsText,
			OnlyCommonMods:    r.OnlyCommonMods,
			Passed:            r.Passed,
			Accuracy:          r.Accuracy,
			MaxCombo:          int32(r.MaxCombo),
			ScoreNF:           r.ScoreNF,
			StarRating:        r.Difficulty.StarRating,
			CS:                r.Beatmap.CS,
			AR:                r.Beatmap.AR,
			OD:                r.Beatmap.Accuracy,
			BPM:               r.Beatmap.BPM,
			HitLength:         int32(r.Beatmap.HitLength),
			PP:                pp,
			PPPct:             nullable(r.PPPct),
			PPAimPct:          nullable(r.PPAimPct),
			PPSpeedPct:        nullable(r.PPSpeedPct),
			PPAccuracyPct:     nullable(r.PPAccuracyPct),
			PP92Pct:           nullable(r.PP92Pct),
			PP81Pct:           nullable(r.PP81Pct),
			PP67Pct:           nullable(r.PP67Pct),
			ComboPct:          nullable(r.ComboPct),
			Density:           nullable(r.Density),
			AimDensityRatio:   nullable(r.AimDensityRatio),
			SpeedDensityRatio: nullable(r.SpeedDensityRatio),
			AimSpeedRatio:     nullable(r.AimSpeedRatio),
			Flagged:           strings.Join(r.Flagged, ","),
		}
	}
	return result
}

func nullable(m schema.Metric) *float64 {
	if m.IsMissing() {
		return nil
	}
	f := float64(m)
	return &f
}

func modsText(mods []schema.Modifier) string {
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}
