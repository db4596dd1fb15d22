package schema

import "time"

// CacheStatus represents the status of the beatmap seed cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// StoreStatus represents the status of the persisted score store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	Location        string    `json:"location,omitempty"`
	TotalScores     int       `json:"total_scores"`
	CompletedScores int       `json:"completed_scores"`
	Users           int       `json:"users"`
	LastUpdateTime  time.Time `json:"last_update_time"`
	SizeBytes       int64     `json:"size_bytes"`
}
