package iocache

import (
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetParseStore implements the CacheManager interface.
func (m *MockCacheManager) GetParseStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetHistoryStore implements the CacheManager interface.
func (m *MockCacheManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
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

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginLoad implements the HistoryStore interface.
func (m *MockHistoryStore) BeginLoad(startTime time.Time, dataDir string, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, dataDir, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndLoad implements the HistoryStore interface.
func (m *MockHistoryStore) EndLoad(loadID int64, endTime time.Time, stats schema.LoadStats) error {
	args := m.Called(loadID, endTime, stats)
	return args.Error(0)
}

// RecordRuns implements the HistoryStore interface.
func (m *MockHistoryStore) RecordRuns(loadID int64, runs []schema.Run) error {
	args := m.Called(loadID, runs)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllLoads implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllLoads() ([]schema.LoadRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.LoadRecord)
	return records, args.Error(1)
}

// GetAllRunTimings implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRunTimings() ([]schema.TimingRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.TimingRecord)
	return records, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
