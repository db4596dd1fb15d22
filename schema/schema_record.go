package schema

import (
	"encoding/json"
	"fmt"
)

// ScoreRecord is either a raw or a completed score. Exactly one of Raw and
// Completed is set, matching Kind.
type ScoreRecord struct {
	Kind      RecordKind
	Raw       *SimpleScoreInfo
	Completed *CompletedScoreInfo
}

// RawRecord wraps a fetched score.
func RawRecord(s SimpleScoreInfo) ScoreRecord {
	return ScoreRecord{Kind: RawKind, Raw: &s}
}

// CompletedRecord wraps a completed score.
func CompletedRecord(c CompletedScoreInfo) ScoreRecord {
	return ScoreRecord{Kind: CompletedKind, Completed: &c}
}

// IsCompleted reports whether the record carries computed attributes.
func (r ScoreRecord) IsCompleted() bool {
	return r.Kind == CompletedKind && r.Completed != nil
}

// Simple returns the score fields shared by both kinds.
func (r ScoreRecord) Simple() SimpleScoreInfo {
	if r.IsCompleted() {
		return r.Completed.SimpleScoreInfo
	}
	if r.Raw != nil {
		return *r.Raw
	}
	return SimpleScoreInfo{}
}

// ID returns the score id the record is keyed by.
func (r ScoreRecord) ID() string {
	return r.Simple().ScoreID
}

type recordEnvelope struct {
	Kind  RecordKind      `json:"kind"`
	Score json.RawMessage `json:"score"`
}

// MarshalJSON encodes the record as {"kind": ..., "score": {...}}.
func (r ScoreRecord) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Kind {
	case RawKind:
		if r.Raw == nil {
			return nil, fmt.Errorf("raw record without score")
		}
		payload = r.Raw
	case CompletedKind:
		if r.Completed == nil {
			return nil, fmt.Errorf("completed record without score")
		}
		payload = r.Completed
	default:
		return nil, fmt.Errorf("unknown record kind %q", r.Kind)
	}
	score, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordEnvelope{Kind: r.Kind, Score: score})
}

// UnmarshalJSON decodes the envelope written by MarshalJSON.
func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case RawKind:
		var s SimpleScoreInfo
		if err := json.Unmarshal(env.Score, &s); err != nil {
			return fmt.Errorf("decode raw score: %w", err)
		}
		*r = RawRecord(s)
	case CompletedKind:
		var c CompletedScoreInfo
		if err := json.Unmarshal(env.Score, &c); err != nil {
			return fmt.Errorf("decode completed score: %w", err)
		}
		*r = CompletedRecord(c)
	default:
		return fmt.Errorf("unknown record kind %q", env.Kind)
	}
	return nil
}
