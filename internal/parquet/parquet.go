// Package parquet exports load history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/parquet-go/parquet-go"
)

// Load represents one load cycle. It maps to the perfhist_loads table.
type Load struct {
	LoadID     int64      `parquet:"load_id,snappy"`
	StartTime  time.Time  `parquet:"start_time,snappy"`
	EndTime    *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs *int64     `parquet:"duration_ms,optional,snappy"`
	DataDir    string     `parquet:"data_dir,snappy,dict"`
	TotalFiles int32      `parquet:"total_files,snappy"`
	Skipped    int32      `parquet:"skipped,snappy"`
	Merged     int32      `parquet:"merged,snappy"`

	// Runs per kind after merging
	FullCompilerRuns int32 `parquet:"rustc_runs,snappy"`
	BenchmarkRuns    int32 `parquet:"benchmark_runs,snappy"`

	// ConfigParams contains the JSON-encoded load parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunTiming is one crate and phase of an ingested run. It maps to the perfhist_run_timings table.
type RunTiming struct {
	LoadID  int64     `parquet:"load_id,snappy"`
	Kind    string    `parquet:"kind,snappy,dict"`
	Commit  string    `parquet:"commit_hash,snappy,dict"`
	RunDate time.Time `parquet:"run_date,snappy"`
	Crate   string    `parquet:"crate,snappy,dict"`
	Phase   string    `parquet:"phase,snappy,dict"`
	Percent float64   `parquet:"percent,snappy"`
	Time    float64   `parquet:"time_secs,snappy"`

	// Memory is the peak resident set size in bytes (nullable)
	Memory *int64 `parquet:"rss,optional,snappy"`
}

// WriteLoadsParquet writes load records to a Parquet file.
func WriteLoadsParquet(data []Load, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunTimingsParquet writes timing records to a Parquet file.
func WriteRunTimingsParquet(data []RunTiming, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertLoadRecords converts history load records to Parquet rows.
func ConvertLoadRecords(records []schema.LoadRecord) []Load {
	out := make([]Load, len(records))
	for i, r := range records {
		out[i] = Load{
			LoadID:           r.LoadID,
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
			DurationMs:       r.DurationMs,
			DataDir:          r.DataDir,
			TotalFiles:       r.TotalFiles,
			Skipped:          r.Skipped,
			Merged:           r.Merged,
			FullCompilerRuns: r.FullCompilerRuns,
			BenchmarkRuns:    r.BenchmarkRuns,
			ConfigParams:     r.ConfigParams,
		}
	}
	return out
}

// ConvertTimingRecords converts history timing records to Parquet rows.
func ConvertTimingRecords(records []schema.TimingRecord) []RunTiming {
	out := make([]RunTiming, len(records))
	for i, r := range records {
		out[i] = RunTiming(r)
	}
	return out
}
