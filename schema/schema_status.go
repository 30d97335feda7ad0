package schema

import "time"

// CacheStatus represents the status of the parse cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the load history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalLoads     int              `json:"total_loads"`
	LastLoadID     int64            `json:"last_load_id"`
	LastLoadTime   time.Time        `json:"last_load_time"`
	OldestLoadTime time.Time        `json:"oldest_load_time"`
	TotalFilesRead int              `json:"total_files_read"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// LoadRecord represents a row from the perfhist_loads table.
type LoadRecord struct {
	LoadID           int64
	StartTime        time.Time
	EndTime          *time.Time
	DurationMs       *int64
	DataDir          string
	TotalFiles       int32
	Skipped          int32
	Merged           int32
	FullCompilerRuns int32
	BenchmarkRuns    int32
	ConfigParams     *string
}

// TimingRecord represents a row from the perfhist_run_timings table.
type TimingRecord struct {
	LoadID  int64
	Kind    string
	Commit  string
	RunDate time.Time
	Crate   string
	Phase   string
	Percent float64
	Time    float64
	Memory  *int64
}
