package iocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
)

// FileScoreStore keeps one JSON document per user in a directory:
// <dir>/<userID>.json, guarded by <dir>/<userID>.lock across processes.
type FileScoreStore struct {
	dir   string
	locks userLocks
}

var _ contract.ScoreStore = &FileScoreStore{} // Compile-time check

// NewFileScoreStore creates dir if needed.
func NewFileScoreStore(dir string) (*FileScoreStore, error) {
	if dir == "" {
		dir = GetStoreDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create score dir %q: %w", dir, err)
	}
	return &FileScoreStore{dir: dir}, nil
}

func (s *FileScoreStore) path(userID int) string {
	return filepath.Join(s.dir, strconv.Itoa(userID)+".json")
}

// Lock implements contract.ScoreStore. It takes the in-process lock first and
// then the file lock, so goroutines and processes are both excluded.
func (s *FileScoreStore) Lock(ctx context.Context, userID int) (func(), error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlock, err := lockFile(ctx, filepath.Join(s.dir, strconv.Itoa(userID)+".lock"))
	if err != nil {
		release()
		return nil, fmt.Errorf("lock scores of %d: %w", userID, err)
	}
	return func() {
		unlock()
		release()
	}, nil
}

// Load implements contract.ScoreStore.
func (s *FileScoreStore) Load(_ context.Context, userID int) (map[string]schema.ScoreRecord, error) {
	b, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]schema.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores of %d: %w", userID, err)
	}
	records := map[string]schema.ScoreRecord{}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode scores of %d: %w", userID, err)
	}
	return records, nil
}

// Replace implements contract.ScoreStore with a temp file and a rename.
// encoding/json sorts map keys, so equal maps produce equal files.
func (s *FileScoreStore) Replace(_ context.Context, userID int, records map[string]schema.ScoreRecord) error {
	for id, rec := range records {
		if rec.ID() != id {
			return fmt.Errorf("record %s stored under key %s", rec.ID(), id)
		}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores of %d: %w", userID, err)
	}
	return writeFileAtomic(s.path(userID), b)
}

// Upsert implements contract.ScoreStore. Callers hold the user's lock.
func (s *FileScoreStore) Upsert(ctx context.Context, record schema.ScoreRecord) error {
	userID := record.Simple().UserID
	records, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if old, ok := records[record.ID()]; ok && old.IsCompleted() && !record.IsCompleted() {
		return nil
	}
	records[record.ID()] = record
	return s.Replace(ctx, userID, records)
}

// Users implements contract.ScoreStore.
func (s *FileScoreStore) Users(_ context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list score dir: %w", err)
	}
	var users []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		if id, err := strconv.Atoi(name); err == nil {
			users = append(users, id)
		}
	}
	sort.Ints(users)
	return users, nil
}

// GetStatus implements contract.ScoreStore.
func (s *FileScoreStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(schema.FileBackend),
		Connected: true,
		Location:  s.dir,
	}
	users, err := s.Users(context.Background())
	if err != nil {
		return status, err
	}
	status.Users = len(users)
	for _, id := range users {
		info, err := os.Stat(s.path(id))
		if err != nil {
			return status, err
		}
		status.SizeBytes += info.Size()
		if info.ModTime().After(status.LastUpdateTime) {
			status.LastUpdateTime = info.ModTime()
		}
		records, err := s.Load(context.Background(), id)
		if err != nil {
			return status, err
		}
		status.TotalScores += len(records)
		for _, rec := range records {
			if rec.IsCompleted() {
				status.CompletedScores++
			}
		}
	}
	return status, nil
}

// Close implements contract.ScoreStore.
func (s *FileScoreStore) Close() error { return nil }

// writeFileAtomic writes to a temp file in the same directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }() // no-op after a successful rename
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
