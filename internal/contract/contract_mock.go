package contract

import (
	"context"

	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/mock"
)

// MockScoreAPI is a mock implementation of ScoreAPI for testing.
type MockScoreAPI struct {
	mock.Mock
}

var _ ScoreAPI = &MockScoreAPI{} // Compile-time check

// GetUser mocks the GetUser method.
func (m *MockScoreAPI) GetUser(ctx context.Context, key string) (schema.User, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(schema.User), args.Error(1)
}

// GetFriends mocks the GetFriends method.
func (m *MockScoreAPI) GetFriends(ctx context.Context) ([]schema.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.User), args.Error(1)
}

// GetBeatmaps mocks the GetBeatmaps method.
func (m *MockScoreAPI) GetBeatmaps(ctx context.Context, ids []int) ([]schema.BeatmapSeed, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.BeatmapSeed), args.Error(1)
}

// GetUserScores mocks the GetUserScores method.
func (m *MockScoreAPI) GetUserScores(ctx context.Context, userID int, includeFails bool, limit, offset int) ([]schema.SimpleScoreInfo, error) {
	args := m.Called(ctx, userID, includeFails, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.SimpleScoreInfo), args.Error(1)
}

// GetScore mocks the GetScore method.
func (m *MockScoreAPI) GetScore(ctx context.Context, scoreID string) (schema.SimpleScoreInfo, error) {
	args := m.Called(ctx, scoreID)
	return args.Get(0).(schema.SimpleScoreInfo), args.Error(1)
}

// GetBeatmapUserScores mocks the GetBeatmapUserScores method.
func (m *MockScoreAPI) GetBeatmapUserScores(ctx context.Context, beatmapID, userID int) ([]schema.SimpleScoreInfo, error) {
	args := m.Called(ctx, beatmapID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.SimpleScoreInfo), args.Error(1)
}

// MockBeatmapFileCache is a mock implementation of BeatmapFileCache for testing.
type MockBeatmapFileCache struct {
	mock.Mock
}

var _ BeatmapFileCache = &MockBeatmapFileCache{} // Compile-time check

// Ensure mocks the Ensure method.
func (m *MockBeatmapFileCache) Ensure(ctx context.Context, beatmapID int) (string, error) {
	args := m.Called(ctx, beatmapID)
	return args.String(0), args.Error(1)
}

// MockOracle is a mock implementation of Oracle for testing.
type MockOracle struct {
	mock.Mock
}

var _ Oracle = &MockOracle{} // Compile-time check

// Difficulty mocks the Difficulty method.
func (m *MockOracle) Difficulty(ctx context.Context, req schema.DifficultyRequest) (schema.DifficultyAttributes, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(schema.DifficultyAttributes), args.Error(1)
}

// Performance mocks the Performance method.
func (m *MockOracle) Performance(ctx context.Context, req schema.PerformanceRequest) (schema.PerformanceAttributes, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(schema.PerformanceAttributes), args.Error(1)
}
