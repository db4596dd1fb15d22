package core

import "github.com/bobbycyl/osuawa/schema"

// Merge overlays persisted records on top of freshly fetched ones.
// On a key collision the persisted record wins, except that a completed
// record is never replaced by a raw one, whichever side it came from.
// Neither input is modified.
func Merge(fresh, persisted map[string]schema.ScoreRecord) map[string]schema.ScoreRecord {
	out := make(map[string]schema.ScoreRecord, len(fresh)+len(persisted))
	for id, rec := range fresh {
		out[id] = rec
	}
	for id, rec := range persisted {
		if cur, ok := out[id]; ok && cur.IsCompleted() && !rec.IsCompleted() {
			continue
		}
		out[id] = rec
	}
	return out
}

// countNew returns how many keys of fresh are absent from persisted.
func countNew(fresh, persisted map[string]schema.ScoreRecord) int {
	n := 0
	for id := range fresh {
		if _, ok := persisted[id]; !ok {
			n++
		}
	}
	return n
}
