// Package mods applies game modifiers to beatmap difficulty settings.
package mods

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
)

// settingKind is the value type a modifier setting accepts.
type settingKind int

const (
	numberSetting settingKind = iota
	rateSetting   // a finite number above zero
	boolSetting
	stringSetting
)

func (k settingKind) String() string {
	switch k {
	case numberSetting:
		return "number"
	case rateSetting:
		return "positive number"
	case boolSetting:
		return "bool"
	default:
		return "string"
	}
}

// known lists every modifier acronym of the standard ruleset with its settings.
// NM and FM are playlist markers and carry no gameplay effect.
var known = map[string]map[string]settingKind{
	"NM": {},
	"FM": {},

	// difficulty reduction
	"EZ": {"retries": numberSetting},
	"NF": {},
	"HT": {"speed_change": rateSetting, "adjust_pitch": boolSetting},
	"DC": {"speed_change": rateSetting},

	// difficulty increase
	"HR": {},
	"SD": {"restart": boolSetting, "fail_on_slider_tail": boolSetting},
	"PF": {"restart": boolSetting},
	"DT": {"speed_change": rateSetting, "adjust_pitch": boolSetting},
	"NC": {"speed_change": rateSetting},
	"HD": {"only_fade_approach_circles": boolSetting},
	"FL": {"follow_delay": numberSetting, "size_multiplier": numberSetting, "combo_based_size": boolSetting},
	"BL": {},
	"ST": {},
	"AC": {"minimum_accuracy": numberSetting, "accuracy_judge_mode": stringSetting, "restart": boolSetting},

	// conversion
	"TP": {"seed": numberSetting, "metronome": boolSetting},
	"DA": {
		"circle_size":        numberSetting,
		"approach_rate":      numberSetting,
		"drain_rate":         numberSetting,
		"overall_difficulty": numberSetting,
		"extended_limits":    boolSetting,
	},
	"CL": {
		"no_slider_head_accuracy": boolSetting,
		"classic_note_lock":       boolSetting,
		"always_play_tail_sample": boolSetting,
		"fade_hit_circle_early":   boolSetting,
		"classic_health":          boolSetting,
	},
	"RD": {"angle_sharpness": numberSetting, "seed": numberSetting},
	"MR": {"reflection": stringSetting},
	"AL": {},
	"SG": {},

	// automation
	"AT": {},
	"CN": {},
	"RX": {},
	"AP": {},
	"SO": {},

	// fun
	"TR": {},
	"WG": {"strength": numberSetting},
	"SI": {},
	"GR": {"start_scale": numberSetting},
	"DF": {"start_scale": numberSetting},
	"WU": {"initial_rate": rateSetting, "final_rate": rateSetting, "adjust_pitch": boolSetting},
	"WD": {"initial_rate": rateSetting, "final_rate": rateSetting, "adjust_pitch": boolSetting},
	"TC": {},
	"BR": {"spin_speed": numberSetting, "direction": stringSetting},
	"AD": {"scale": numberSetting, "style": stringSetting},
	"MU": {
		"inverse_muting":     boolSetting,
		"enable_metronome":   boolSetting,
		"mute_combo_count":   numberSetting,
		"affects_hit_sounds": boolSetting,
	},
	"NS": {"hidden_combo_count": numberSetting},
	"MG": {"attraction_strength": numberSetting},
	"RP": {"repulsion_strength": numberSetting},
	"AS": {"initial_rate": rateSetting, "final_rate": rateSetting, "adjust_pitch": boolSetting},
	"FR": {},
	"BU": {},
	"SY": {},
	"DP": {"max_depth": numberSetting, "show_approach_circles": boolSetting},
	"BM": {"max_size_combo_count": numberSetting, "max_circle_size": numberSetting},

	// system
	"TD":  {},
	"SV2": {},
}

// ValidationError describes a modifier the engine refuses to apply.
type ValidationError struct {
	Acronym string
	Setting string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("modifier %s: %s", e.Acronym, e.Reason)
	}
	return fmt.Sprintf("modifier %s setting %s: %s", e.Acronym, e.Setting, e.Reason)
}

// Unwrap lets callers match contract.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return contract.ErrValidation
}

// Validate checks every acronym, setting name and setting value type.
func Validate(modifiers []schema.Modifier) error {
	for _, m := range modifiers {
		settings, ok := known[m.Acronym]
		if !ok {
			return &ValidationError{Acronym: m.Acronym, Reason: "unknown acronym"}
		}
		names := make([]string, 0, len(m.Settings))
		for name := range m.Settings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			kind, ok := settings[name]
			if !ok {
				return &ValidationError{Acronym: m.Acronym, Setting: name, Reason: "unknown setting"}
			}
			if !matchesKind(m.Settings[name], kind) {
				return &ValidationError{
					Acronym: m.Acronym,
					Setting: name,
					Reason:  fmt.Sprintf("expected %s, got %T %v", kind, m.Settings[name], m.Settings[name]),
				}
			}
		}
	}
	return nil
}

func matchesKind(v any, kind settingKind) bool {
	switch kind {
	case numberSetting:
		_, ok := toFloat(v)
		return ok
	case rateSetting:
		f, ok := toFloat(v)
		return ok && f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
	case boolSetting:
		_, ok := v.(bool)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
