package core

import (
	"math"
	"sort"
	"time"

	"github.com/bobbycyl/osuawa/core/mods"
	"github.com/bobbycyl/osuawa/schema"
)

// BuildView derives the dashboard columns for every completed record.
// Rows are ordered newest first. A ratio whose inputs are missing or whose
// denominator is zero comes out as a missing metric and is named in Flagged.
func BuildView(records map[string]schema.CompletedScoreInfo, loc *time.Location) []schema.ViewRow {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]schema.ViewRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, buildRow(rec, loc))
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].EndedAt.Equal(rows[j].EndedAt) {
			return rows[i].EndedAt.After(rows[j].EndedAt)
		}
		return rows[i].ScoreID > rows[j].ScoreID
	})
	return rows
}

// CompletedOnly keeps the completed records of a persisted mapping.
func CompletedOnly(records map[string]schema.ScoreRecord) map[string]schema.CompletedScoreInfo {
	out := make(map[string]schema.CompletedScoreInfo, len(records))
	for id, rec := range records {
		if rec.IsCompleted() {
			out[id] = *rec.Completed
		}
	}
	return out
}

func buildRow(rec schema.CompletedScoreInfo, loc *time.Location) schema.ViewRow {
	pp := math.NaN()
	if rec.PP != nil {
		pp = *rec.PP
	}
	local := rec.EndedAt.In(loc)
	density := ratio(float64(rec.Difficulty.MaxCombo), float64(rec.Beatmap.HitLength))
	logDensity := math.Log1p(float64(density))

	row := schema.ViewRow{
		CompletedScoreInfo: rec,
		TimeOfDay:          local.Hour()*3600 + local.Minute()*60 + local.Second(),
		PPPct:              ratio(pp, rec.Ref100.Total),
		PPAimPct:           ratio(rec.Performance.Aim, rec.Ref100.Aim),
		PPSpeedPct:         ratio(rec.Performance.Speed, rec.Ref100.Speed),
		PPAccuracyPct:      ratio(rec.Performance.Accuracy, rec.Ref100.Accuracy),
		PP92Pct:            ratio(pp, rec.Ref92.Total),
		PP81Pct:            ratio(pp, rec.Ref81.Total),
		PP67Pct:            ratio(pp, rec.Ref67.Total),
		ComboPct:           ratio(float64(rec.MaxCombo), float64(rec.Difficulty.MaxCombo)),
		Density:            density,
		AimDensityRatio:    ratio(rec.Difficulty.Aim, logDensity),
		SpeedDensityRatio:  ratio(rec.Difficulty.Speed, logDensity),
		AimSpeedRatio:      ratio(rec.Difficulty.Aim, rec.Difficulty.Speed),
		ScoreNF:            rec.TotalScore,
		ModsText:           mods.JoinReadable(rec.Mods),
		OnlyCommonMods:     mods.OnlyCommon(rec.Mods),
	}
	if rec.Beatmap.IsNF {
		row.ScoreNF *= 2
	}

	for _, col := range []struct {
		name string
		m    schema.Metric
	}{
		{"pp_pct", row.PPPct},
		{"pp_aim_pct", row.PPAimPct},
		{"pp_speed_pct", row.PPSpeedPct},
		{"pp_accuracy_pct", row.PPAccuracyPct},
		{"pp_92pct", row.PP92Pct},
		{"pp_81pct", row.PP81Pct},
		{"pp_67pct", row.PP67Pct},
		{"combo_pct", row.ComboPct},
		{"density", row.Density},
		{"aim_density_ratio", row.AimDensityRatio},
		{"speed_density_ratio", row.SpeedDensityRatio},
		{"aim_speed_ratio", row.AimSpeedRatio},
	} {
		if col.m.IsMissing() {
			row.Flagged = append(row.Flagged, col.name)
		}
	}
	return row
}

// ratio divides, returning a missing metric instead of NaN or ±Inf.
func ratio(num, den float64) schema.Metric {
	if den == 0 || math.IsNaN(num) || math.IsNaN(den) {
		return schema.Missing()
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return schema.Missing()
	}
	return schema.Metric(r)
}

// Summary tags, in display order.
var summaryTags = []struct {
	name string
	has  func(schema.TransformedDifficulty) bool
}{
	{"HD", func(b schema.TransformedDifficulty) bool { return b.IsHD }},
	{"High_AR", func(b schema.TransformedDifficulty) bool { return b.IsHighAR }},
	{"Low_AR", func(b schema.TransformedDifficulty) bool { return b.IsLowAR }},
	{"Very_Low_AR", func(b schema.TransformedDifficulty) bool { return b.IsVeryLowAR }},
	{"Speed_Up", func(b schema.TransformedDifficulty) bool { return b.IsSpeedUp }},
	{"Speed_Down", func(b schema.TransformedDifficulty) bool { return b.IsSpeedDown }},
}

// Summarize aggregates view rows into the pp overview. Sums run over every
// row; the tag table gives each tag's share of pp and of the row count.
func Summarize(rows []schema.ViewRow) schema.Summary {
	sum := schema.Summary{Total: len(rows)}
	tagPP := make([]float64, len(summaryTags))
	tagCount := make([]int, len(summaryTags))

	for _, r := range rows {
		if r.Passed {
			sum.Passed++
		}
		var pp float64
		if r.PP != nil && !math.IsNaN(*r.PP) {
			pp = *r.PP
		}
		sum.PP += pp
		sum.PP100 += r.Ref100.Total
		sum.PP92 += r.Ref92.Total
		sum.PP81 += r.Ref81.Total
		sum.PP67 += r.Ref67.Total
		for i, tag := range summaryTags {
			if tag.has(r.Beatmap) {
				tagPP[i] += pp
				tagCount[i]++
			}
		}
	}

	for i, tag := range summaryTags {
		sum.Tags = append(sum.Tags, schema.TagSummary{
			Tag:      tag.name,
			Count:    tagCount[i],
			PP:       tagPP[i],
			PPPct:    ratio(tagPP[i], sum.PP),
			CountPct: ratio(float64(tagCount[i]), float64(sum.Total)),
		})
	}
	return sum
}
