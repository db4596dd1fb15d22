package mods

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bobbycyl/osuawa/schema"
)

// Preempt thresholds in milliseconds for approach-rate bands.
const (
	HighARPreempt    = 450.0 // at or below: high AR
	LowARPreempt     = 675.0 // from here below VeryLowARPreempt: low AR
	VeryLowARPreempt = 900.0 // at or above: very low AR
)

// Transform validates the modifiers and applies them to the seed.
func Transform(seed schema.BeatmapSeed, modifiers []schema.Modifier) (schema.TransformedDifficulty, error) {
	if err := Validate(modifiers); err != nil {
		return schema.TransformedDifficulty{}, err
	}
	return Apply(seed, modifiers), nil
}

// Apply transforms the seed without validating the modifiers.
// At most one CS/OD/AR class modifier (HR, then EZ, then DA) and one speed
// class modifier (DT, NC, HT, DC, WU, WD) take effect.
func Apply(seed schema.BeatmapSeed, modifiers []schema.Modifier) schema.TransformedDifficulty {
	lookup := make(map[string]map[string]any, len(modifiers))
	for _, m := range modifiers {
		if _, dup := lookup[m.Acronym]; !dup {
			lookup[m.Acronym] = m.Settings
		}
	}
	has := func(acr string) bool {
		_, ok := lookup[acr]
		return ok
	}

	cs, acc, ar := seed.CS, seed.Accuracy, seed.AR
	out := schema.TransformedDifficulty{
		IsNF: has("NF"),
		IsHD: has("HD"),
	}

	switch {
	case has("HR"):
		cs = min(cs*1.3, 10)
		acc = min(acc*1.4, 10)
		ar = min(ar*1.4, 10)
	case has("EZ"):
		cs *= 0.5
		acc *= 0.5
		ar *= 0.5
	case has("DA"):
		s := lookup["DA"]
		cs = setting(s, "circle_size", cs)
		acc = setting(s, "overall_difficulty", acc)
		ar = setting(s, "approach_rate", ar)
	}

	magnitude := 1.0
	switch {
	case has("DT"):
		magnitude = setting(lookup["DT"], "speed_change", 1.5)
	case has("NC"):
		magnitude = setting(lookup["NC"], "speed_change", 1.5)
	case has("HT"):
		magnitude = setting(lookup["HT"], "speed_change", 0.75)
	case has("DC"):
		magnitude = setting(lookup["DC"], "speed_change", 0.75)
	case has("WU"):
		s := lookup["WU"]
		magnitude = 2 / (setting(s, "initial_rate", 1.0) + setting(s, "final_rate", 1.5))
	case has("WD"):
		s := lookup["WD"]
		magnitude = 2 / (setting(s, "initial_rate", 1.0) + setting(s, "final_rate", 0.75))
	}
	out.IsSpeedUp = magnitude > 1
	out.IsSpeedDown = magnitude < 1

	out.HitWindow = HitWindow(acc) / magnitude
	out.Preempt = Preempt(ar) / magnitude
	out.Accuracy, out.AR = acc, ar
	if magnitude != 1 {
		out.Accuracy = AccuracyFromHitWindow(out.HitWindow)
		out.AR = ARFromPreempt(out.Preempt)
	}
	out.CS = cs

	switch p := out.Preempt; {
	case p <= HighARPreempt:
		out.IsHighAR = true
	case p >= VeryLowARPreempt:
		out.IsVeryLowAR = true
	case p >= LowARPreempt:
		out.IsLowAR = true
	}

	out.Magnitude = magnitude
	out.BPM = seed.BPM * magnitude
	out.HitLength = int(math.RoundToEven(float64(seed.HitLength) / magnitude))
	return out
}

// HitWindow converts an accuracy seed (OD) into the great hit window in ms.
func HitWindow(acc float64) float64 {
	return 80 - 6*acc
}

// AccuracyFromHitWindow is the inverse of HitWindow.
func AccuracyFromHitWindow(hw float64) float64 {
	return (80 - hw) / 6
}

// Preempt converts an approach rate into preempt time in ms.
func Preempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 600*(5-ar)/5
	}
	return 1200 - 750*(ar-5)/5
}

// ARFromPreempt is the inverse of Preempt.
func ARFromPreempt(p float64) float64 {
	if p > 1200 {
		return 5 - (p-1200)/600*5
	}
	return 5 + (1200-p)/750*5
}

func setting(settings map[string]any, name string, def float64) float64 {
	if v, ok := settings[name]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return def
}

// ToolArgs returns the oracle argument lists: acronyms in input order and
// options formatted ACR_setting=value.
func ToolArgs(modifiers []schema.Modifier) (acronyms []string, options []string) {
	acronyms = make([]string, 0, len(modifiers))
	options = make([]string, 0)
	for _, m := range modifiers {
		acronyms = append(acronyms, m.Acronym)
		names := make([]string, 0, len(m.Settings))
		for name := range m.Settings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			options = append(options, fmt.Sprintf("%s_%s=%v", m.Acronym, name, m.Settings[name]))
		}
	}
	return acronyms, options
}

// Readable renders each modifier as ACR or ACR(k=v,...).
func Readable(modifiers []schema.Modifier) []string {
	out := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		out = append(out, m.String())
	}
	return out
}

// JoinReadable joins Readable with "; ".
func JoinReadable(modifiers []schema.Modifier) string {
	return strings.Join(Readable(modifiers), "; ")
}

// OnlyCommon reports whether every acronym is in schema.CommonModAcronyms.
func OnlyCommon(modifiers []schema.Modifier) bool {
	for _, m := range modifiers {
		if _, ok := schema.CommonModAcronyms[m.Acronym]; !ok {
			return false
		}
	}
	return true
}
