package schema

import (
	"math"
	"strconv"
)

// Metric is a derived ratio. Missing values are NaN and encode as JSON null.
type Metric float64

// Missing is the NaN metric.
func Missing() Metric { return Metric(math.NaN()) }

// IsMissing reports whether the metric is NaN or infinite.
func (m Metric) IsMissing() bool {
	f := float64(m)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.IsMissing() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(m), 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Missing()
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// ViewRow is a completed score plus the derived dashboard columns.
type ViewRow struct {
	CompletedScoreInfo
	TimeOfDay         int      `json:"ts_seconds"`
	PPPct             Metric   `json:"pp_pct"`
	PPAimPct          Metric   `json:"pp_aim_pct"`
	PPSpeedPct        Metric   `json:"pp_speed_pct"`
	PPAccuracyPct     Metric   `json:"pp_accuracy_pct"`
	PP92Pct           Metric   `json:"pp_92pct"`
	PP81Pct           Metric   `json:"pp_81pct"`
	PP67Pct           Metric   `json:"pp_67pct"`
	ComboPct          Metric   `json:"combo_pct"`
	Density           Metric   `json:"density"`
	AimDensityRatio   Metric   `json:"aim_density_ratio"`
	SpeedDensityRatio Metric   `json:"speed_density_ratio"`
	AimSpeedRatio     Metric   `json:"aim_speed_ratio"`
	ScoreNF           int64    `json:"score_nf"`
	ModsText          string   `json:"mods_text"`
	OnlyCommonMods    bool     `json:"only_common_mods"`
	Flagged           []string `json:"flagged,omitempty"`
}

// TagSummary is one row of the per-tag pp overview.
type TagSummary struct {
	Tag      string  `json:"tag"`
	Count    int     `json:"count"`
	PP       float64 `json:"pp"`
	PPPct    Metric  `json:"pp_pct"`
	CountPct Metric  `json:"count_pct"`
}

// Summary aggregates a view into the pp overview.
type Summary struct {
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	PP     float64      `json:"pp"`
	PP100  float64      `json:"pp_100"`
	PP92   float64      `json:"pp_92"`
	PP81   float64      `json:"pp_81"`
	PP67   float64      `json:"pp_67"`
	Tags   []TagSummary `json:"tags"`
}

// ScoreFailure records a score that could not be completed during a sync.
type ScoreFailure struct {
	ScoreID   string `json:"score_id"`
	BeatmapID int    `json:"beatmap_id"`
	Reason    string `json:"reason"`
}

// SyncReport summarizes a sync or recompute run.
type SyncReport struct {
	UserID           int            `json:"user_id"`
	Username         string         `json:"username"`
	FetchedCount     int            `json:"fetched_count"`
	LocalCountBefore int            `json:"local_count_before"`
	NewCount         int            `json:"new_count"`
	CompletedCount   int            `json:"completed_count"`
	Failed           []ScoreFailure `json:"failed,omitempty"`
}

// PositivePercent maps v from [lo, hi] onto an integer percentage clamped to 0..100.
func PositivePercent(v, lo, hi float64) int {
	if math.IsNaN(v) {
		v = 0
	}
	if hi <= lo {
		return 0
	}
	p := int((v - lo) / (hi - lo) * 100)
	return max(0, min(100, p))
}
