package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Modifier is a game modifier with its optional settings.
type Modifier struct {
	Acronym  string         `json:"acronym"`
	Settings map[string]any `json:"settings,omitempty"`
}

// String renders the modifier as ACR or ACR(k=v,...) with settings sorted by name.
func (m Modifier) String() string {
	if len(m.Settings) == 0 {
		return m.Acronym
	}
	keys := make([]string, 0, len(m.Settings))
	for k := range m.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m.Settings[k]))
	}
	return fmt.Sprintf("%s(%s)", m.Acronym, strings.Join(parts, ","))
}

// Statistics holds hit judgement counts. Missing keys decode as zero.
type Statistics struct {
	LargeTickHit  int `json:"large_tick_hit"`
	SmallTickHit  int `json:"small_tick_hit"`
	SliderTailHit int `json:"slider_tail_hit"`
	Great         int `json:"great"`
	Ok            int `json:"ok"`
	Meh           int `json:"meh"`
	Miss          int `json:"miss"`
}

// SimpleScoreInfo is a score as fetched from the API.
type SimpleScoreInfo struct {
	ScoreID    string     `json:"score_id"`
	BeatmapID  int        `json:"beatmap_id"`
	UserID     int        `json:"user_id"`
	TotalScore int64      `json:"total_score"`
	Accuracy   float64    `json:"accuracy"`
	MaxCombo   int        `json:"max_combo"`
	Passed     bool       `json:"passed"`
	PP         *float64   `json:"pp"`
	Mods       []Modifier `json:"mods"`
	EndedAt    time.Time  `json:"ended_at"`
	Statistics Statistics `json:"statistics"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// IsLazer reports whether the score carries lazer-style statistics.
func (s SimpleScoreInfo) IsLazer() bool {
	return s.StartedAt != nil
}

// DifficultyAttributes is what the oracle reports for a beatmap and modifier set.
type DifficultyAttributes struct {
	StarRating                   float64 `json:"star_rating"`
	MaxCombo                     int     `json:"max_combo"`
	Aim                          float64 `json:"aim_difficulty"`
	AimDifficultSliderCount      float64 `json:"aim_difficult_slider_count"`
	Speed                        float64 `json:"speed_difficulty"`
	SpeedNoteCount               float64 `json:"speed_note_count"`
	SliderFactor                 float64 `json:"slider_factor"`
	AimTopWeightedSliderFactor   float64 `json:"aim_top_weighted_slider_factor"`
	SpeedTopWeightedSliderFactor float64 `json:"speed_top_weighted_slider_factor"`
	AimDifficultStrainCount      float64 `json:"aim_difficult_strain_count"`
	SpeedDifficultStrainCount    float64 `json:"speed_difficult_strain_count"`
}

// PerformanceAttributes is the pp split for one judgement distribution.
type PerformanceAttributes struct {
	Aim      float64 `json:"aim"`
	Speed    float64 `json:"speed"`
	Accuracy float64 `json:"accuracy"`
	Total    float64 `json:"pp"`
}

// CompletedScoreInfo is a SimpleScoreInfo with locally computed attributes.
// PP always holds the locally computed value for the actual play.
type CompletedScoreInfo struct {
	SimpleScoreInfo
	Beatmap          TransformedDifficulty `json:"beatmap"`
	Info             string                `json:"info"`
	DifficultyRating float64               `json:"difficulty_rating"`
	Difficulty       DifficultyAttributes  `json:"difficulty"`
	Performance      PerformanceAttributes `json:"performance"`
	Ref100           PerformanceAttributes `json:"ref_100"`
	Ref92            PerformanceAttributes `json:"ref_92"`
	Ref81            PerformanceAttributes `json:"ref_81"`
	Ref67            PerformanceAttributes `json:"ref_67"`
}

// Truncate drops every computed field and the pp value.
func (c CompletedScoreInfo) Truncate() SimpleScoreInfo {
	s := c.SimpleScoreInfo
	s.PP = nil
	if s.Mods != nil {
		s.Mods = append([]Modifier(nil), s.Mods...)
	}
	return s
}

// User is the subset of an API user the dashboard shows.
type User struct {
	ID          int     `json:"user_id"`
	Username    string  `json:"username"`
	CountryCode string  `json:"country"`
	IsOnline    bool    `json:"is_online"`
	IsSupporter bool    `json:"is_supporter"`
	Team        string  `json:"team,omitempty"`
	PP          float64 `json:"stat_pp"`
	GlobalRank  *int    `json:"stat_global_rank"`
	CountryRank *int    `json:"stat_country_rank"`
}
