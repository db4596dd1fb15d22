package iocache

import (
	"context"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetBeatmapStore implements the CacheManager interface.
func (m *MockCacheManager) GetBeatmapStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetScoreStore implements the CacheManager interface.
func (m *MockCacheManager) GetScoreStore() contract.ScoreStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ScoreStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, int, int64, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(ctx context.Context, key string, data []byte, version int, ts int64) error {
	args := m.Called(ctx, key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockScoreStore is a mock implementation of ScoreStore for testing.
type MockScoreStore struct {
	mock.Mock
}

var _ contract.ScoreStore = &MockScoreStore{} // Compile-time check

// Lock implements the ScoreStore interface.
func (m *MockScoreStore) Lock(ctx context.Context, userID int) (func(), error) {
	args := m.Called(ctx, userID)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}

// Load implements the ScoreStore interface.
func (m *MockScoreStore) Load(ctx context.Context, userID int) (map[string]schema.ScoreRecord, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).(map[string]schema.ScoreRecord)
	return records, args.Error(1)
}

// Replace implements the ScoreStore interface.
func (m *MockScoreStore) Replace(ctx context.Context, userID int, records map[string]schema.ScoreRecord) error {
	args := m.Called(ctx, userID, records)
	return args.Error(0)
}

// Upsert implements the ScoreStore interface.
func (m *MockScoreStore) Upsert(ctx context.Context, record schema.ScoreRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Users implements the ScoreStore interface.
func (m *MockScoreStore) Users(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]int)
	return users, args.Error(1)
}

// GetStatus implements the ScoreStore interface.
func (m *MockScoreStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ScoreStore interface.
func (m *MockScoreStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
