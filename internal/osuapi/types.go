package osuapi

import (
	"strconv"
	"time"

	"github.com/bobbycyl/osuawa/schema"
)

// Score is a score as returned by API v2 (lazer format).
type Score struct {
	ID         int64             `json:"id"`
	BeatmapID  int               `json:"beatmap_id"`
	UserID     int               `json:"user_id"`
	TotalScore int64             `json:"total_score"`
	Accuracy   float64           `json:"accuracy"`
	MaxCombo   int               `json:"max_combo"`
	Passed     bool              `json:"passed"`
	PP         *float64          `json:"pp"`
	Mods       []schema.Modifier `json:"mods"`
	EndedAt    time.Time         `json:"ended_at"`
	StartedAt  *time.Time        `json:"started_at"`
	Statistics schema.Statistics `json:"statistics"`
	Beatmap    *Beatmap          `json:"beatmap,omitempty"`
}

// ToSimple converts the wire score into the stored representation.
func (s Score) ToSimple() schema.SimpleScoreInfo {
	beatmapID := s.BeatmapID
	if beatmapID == 0 && s.Beatmap != nil {
		beatmapID = s.Beatmap.ID
	}
	return schema.SimpleScoreInfo{
		ScoreID:    strconv.FormatInt(s.ID, 10),
		BeatmapID:  beatmapID,
		UserID:     s.UserID,
		TotalScore: s.TotalScore,
		Accuracy:   s.Accuracy,
		MaxCombo:   s.MaxCombo,
		Passed:     s.Passed,
		PP:         s.PP,
		Mods:       s.Mods,
		EndedAt:    s.EndedAt,
		StartedAt:  s.StartedAt,
		Statistics: s.Statistics,
	}
}

// Beatmapset holds the metadata shared by the difficulties of a set.
type Beatmapset struct {
	ID      int    `json:"id"`
	Artist  string `json:"artist"`
	Title   string `json:"title"`
	Creator string `json:"creator"`
}

// Beatmap is a single difficulty as returned by API v2.
type Beatmap struct {
	ID               int         `json:"id"`
	BeatmapsetID     int         `json:"beatmapset_id"`
	Mode             string      `json:"mode"`
	CS               float64     `json:"cs"`
	Accuracy         float64     `json:"accuracy"`
	AR               float64     `json:"ar"`
	BPM              float64     `json:"bpm"`
	HitLength        int         `json:"hit_length"`
	MaxCombo         int         `json:"max_combo"`
	DifficultyRating float64     `json:"difficulty_rating"`
	Version          string      `json:"version"`
	Checksum         string      `json:"checksum"`
	Beatmapset       *Beatmapset `json:"beatmapset,omitempty"`
}

// ToSeed converts the wire beatmap into a BeatmapSeed.
func (b Beatmap) ToSeed() schema.BeatmapSeed {
	seed := schema.BeatmapSeed{
		ID:               b.ID,
		BeatmapsetID:     b.BeatmapsetID,
		Mode:             b.Mode,
		CS:               b.CS,
		Accuracy:         b.Accuracy,
		AR:               b.AR,
		BPM:              b.BPM,
		HitLength:        b.HitLength,
		MaxCombo:         b.MaxCombo,
		DifficultyRating: b.DifficultyRating,
		Version:          b.Version,
		Checksum:         b.Checksum,
	}
	if b.Beatmapset != nil {
		seed.Artist = b.Beatmapset.Artist
		seed.Title = b.Beatmapset.Title
		seed.Creator = b.Beatmapset.Creator
	}
	return seed
}

// User is a user as returned by API v2.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	CountryCode string `json:"country_code"`
	IsOnline    bool   `json:"is_online"`
	IsSupporter bool   `json:"is_supporter"`
	Team        *struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	} `json:"team"`
	Statistics *struct {
		PP          float64 `json:"pp"`
		GlobalRank  *int    `json:"global_rank"`
		CountryRank *int    `json:"country_rank"`
	} `json:"statistics"`
}

// ToUser converts the wire user into schema.User.
func (u User) ToUser() schema.User {
	out := schema.User{
		ID:          u.ID,
		Username:    u.Username,
		CountryCode: u.CountryCode,
		IsOnline:    u.IsOnline,
		IsSupporter: u.IsSupporter,
	}
	if u.Team != nil {
		out.Team = u.Team.Name
	}
	if u.Statistics != nil {
		out.PP = u.Statistics.PP
		out.GlobalRank = u.Statistics.GlobalRank
		out.CountryRank = u.Statistics.CountryRank
	}
	return out
}

type beatmapsResponse struct {
	Beatmaps []Beatmap `json:"beatmaps"`
}

type beatmapScoresResponse struct {
	Scores []Score `json:"scores"`
}
