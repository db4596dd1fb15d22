package schema

import (
	"fmt"
	"math"
)

// BeatmapSeed holds the published difficulty settings of a beatmap.
// It is cached as an immutable value once fetched.
type BeatmapSeed struct {
	ID               int     `json:"id"`
	BeatmapsetID     int     `json:"beatmapset_id"`
	Mode             string  `json:"mode"`
	CS               float64 `json:"cs"`
	Accuracy         float64 `json:"accuracy"`
	AR               float64 `json:"ar"`
	BPM              float64 `json:"bpm"`
	HitLength        int     `json:"hit_length"`
	MaxCombo         int     `json:"max_combo"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Version          string  `json:"version"`
	Artist           string  `json:"artist"`
	Title            string  `json:"title"`
	Creator          string  `json:"creator"`
	Checksum         string  `json:"checksum,omitempty"`
}

// Info returns the human-readable beatmap line, e.g. "Artist - Title (Mapper) [Insane]".
func (b BeatmapSeed) Info() string {
	return fmt.Sprintf("%s - %s (%s) [%s]", b.Artist, b.Title, b.Creator, b.Version)
}

// TransformedDifficulty is the result of applying modifiers to a BeatmapSeed.
type TransformedDifficulty struct {
	CS          float64 `json:"cs"`
	Accuracy    float64 `json:"accuracy"`
	AR          float64 `json:"ar"`
	HitWindow   float64 `json:"hit_window"`
	Preempt     float64 `json:"preempt"`
	BPM         float64 `json:"bpm"`
	HitLength   int     `json:"hit_length"`
	Magnitude   float64 `json:"magnitude"`
	IsNF        bool    `json:"is_nf"`
	IsHD        bool    `json:"is_hd"`
	IsHighAR    bool    `json:"is_high_ar"`
	IsLowAR     bool    `json:"is_low_ar"`
	IsVeryLowAR bool    `json:"is_very_low_ar"`
	IsSpeedUp   bool    `json:"is_speed_up"`
	IsSpeedDown bool    `json:"is_speed_down"`
}

// Star rating colour bar stops.
var (
	starStops = []float64{0.1, 1.25, 2.0, 2.5, 3.3, 4.2, 4.9, 5.8, 6.7, 7.7, 9.0}
	starRed   = []float64{66, 79, 79, 124, 246, 255, 255, 198, 101, 24, 0}
	starGreen = []float64{144, 192, 255, 255, 240, 128, 78, 69, 99, 21, 0}
	starBlue  = []float64{251, 255, 213, 79, 92, 104, 111, 184, 222, 142, 0}
)

// StarRatingColor returns the #rrggbb colour the game uses for a star rating.
func StarRatingColor(stars float64) string {
	switch {
	case math.IsNaN(stars) || stars < 0.1:
		return "#aaaaaa"
	case stars > 9.0:
		return "#000000"
	}
	r := interp(stars, starStops, starRed)
	g := interp(stars, starStops, starGreen)
	b := interp(stars, starStops, starBlue)
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}

// StarRatingRGB is StarRatingColor split into channels.
func StarRatingRGB(stars float64) (r, g, b int) {
	_, _ = fmt.Sscanf(StarRatingColor(stars), "#%02x%02x%02x", &r, &g, &b)
	return r, g, b
}

// interp is a piecewise-linear interpolation over ascending xp.
func interp(x float64, xp, fp []float64) float64 {
	if x <= xp[0] {
		return fp[0]
	}
	for i := 1; i < len(xp); i++ {
		if x <= xp[i] {
			t := (x - xp[i-1]) / (xp[i] - xp[i-1])
			return fp[i-1] + t*(fp[i]-fp[i-1])
		}
	}
	return fp[len(fp)-1]
}
