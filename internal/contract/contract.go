// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/perfhist/schema"
)

// CacheManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetParseStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording load cycles and the raw runs they ingested.
type HistoryStore interface {
	// BeginLoad creates a new load record and returns its unique ID
	BeginLoad(startTime time.Time, dataDir string, configParams map[string]any) (int64, error)

	// EndLoad updates the load record with completion data
	EndLoad(loadID int64, endTime time.Time, stats schema.LoadStats) error

	// RecordRuns stores the flattened per-crate per-phase timings of runs
	RecordRuns(loadID int64, runs []schema.Run) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllLoads retrieves every load record
	GetAllLoads() ([]schema.LoadRecord, error)

	// GetAllRunTimings retrieves every recorded timing
	GetAllRunTimings() ([]schema.TimingRecord, error)

	// Close closes the underlying connection
	Close() error
}
