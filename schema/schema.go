// Package schema has models and constants for all parts of perfhist.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// PhaseTimings maps phase names to their timing.
type PhaseTimings map[string]Timing

// CrateTimings maps crate names to their per-phase timings.
type CrateTimings map[string]PhaseTimings

// PhaseValues maps phase names to a single figure (a median or a percent change).
type PhaseValues map[string]float64

// CrateValues maps crate names to their per-phase figures.
type CrateValues map[string]PhaseValues

// Timing is one phase's measured share of a run.
type Timing struct {
	Percent float64 `json:"percent"`
	Time    float64 `json:"time"`
	Memory  *uint64 `json:"rss"` // nil when the document carried no memory figure
}

// Run is one test execution at a point in time.
// Runs are ordered by Date and identified by Commit and Date together.
type Run struct {
	Date    time.Time    `json:"date"`
	Commit  string       `json:"commit"`
	Kind    Kind         `json:"kind"`
	ByCrate CrateTimings `json:"by_crate"`
}

// Equal reports whether two runs share a commit and a date.
func (r Run) Equal(other Run) bool {
	return r.Commit == other.Commit && r.Date.Equal(other.Date)
}

// Before reports whether r sorts before other.
func (r Run) Before(other Run) bool {
	return r.Date.Before(other.Date)
}

// MedianWindow is the per-crate per-phase median time over the runs ending at Date.
type MedianWindow struct {
	Date    time.Time   `json:"date"`
	ByCrate CrateValues `json:"by_crate"`
}

// PercentChange is the per-crate per-phase percent change between two median windows.
// Date is the date of the later window.
type PercentChange struct {
	Date    time.Time   `json:"date"`
	ByCrate CrateValues `json:"by_crate"`
}

// Summary holds the weekly trend and the long-horizon total for one kind.
type Summary struct {
	Total  PercentChange   `json:"total"`
	Weekly []PercentChange `json:"summary"`
}

// LoadStats counts what happened during one load cycle.
type LoadStats struct {
	TotalFiles       int `json:"total_files"`
	Skipped          int `json:"skipped"`
	Merged           int `json:"merged"`
	CacheHits        int `json:"cache_hits"`
	FullCompilerRuns int `json:"rustc_runs"`
	BenchmarkRuns    int `json:"benchmark_runs"`
}

// InfoResult describes the contents of a loaded store.
type InfoResult struct {
	Crates     []string  `json:"crates"`
	Phases     []string  `json:"phases"`
	Benchmarks []string  `json:"benchmarks"`
	LastDate   time.Time `json:"last_date"`
	Stats      LoadStats `json:"stats"`
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := ValidKinds[k]; !ok {
		return "", fmt.Errorf("invalid kind '%s'. must be rustc or benchmarks", s)
	}
	return k, nil
}

// UnmarshalJSON accepts only the known kind names.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
