package iocache

import (
	"sync"

	"github.com/bobbycyl/osuawa/internal/contract"
)

// StoreManager holds the beatmap seed cache and the score store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	beatmaps     contract.CacheStore
	scores       contract.ScoreStore
}

var _ contract.CacheManager = &StoreManager{} // Compile-time check

// GetBeatmapStore returns the beatmap seed cache.
func (mgr *StoreManager) GetBeatmapStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.beatmaps
}

// GetScoreStore returns the score store.
func (mgr *StoreManager) GetScoreStore() contract.ScoreStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.scores
}
