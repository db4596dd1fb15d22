package schema

// DifficultyRequest asks the oracle for difficulty attributes of a chart file.
// Mods and ModOptions are the argument lists derived from the same modifiers
// the local transform used.
type DifficultyRequest struct {
	BeatmapPath string     `json:"beatmap_path"`
	Mods        []string   `json:"mods"`
	ModOptions  []string   `json:"mod_options"`
	Modifiers   []Modifier `json:"modifiers"`
}

// PerformanceRequest asks the oracle for pp at a judgement distribution.
// When Accuracy is set the oracle fills in judgements using Priority.
type PerformanceRequest struct {
	DifficultyRequest
	Accuracy       *float64          `json:"accuracy,omitempty"`
	Priority       HitResultPriority `json:"hit_result_priority,omitempty"`
	Combo          *int              `json:"combo,omitempty"`
	Misses         int               `json:"misses"`
	Mehs           int               `json:"mehs"`
	Oks            int               `json:"oks"`
	LargeTickHits  int               `json:"large_tick_hits"`
	SliderTailHits int               `json:"slider_tail_hits"`
	Lazer          bool              `json:"lazer"`
}
