package parquet

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	return rows[:n]
}

func sampleLoads() []schema.LoadRecord {
	start := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int64(1500)
	params := `{"compiler_name":"rustc","workers":4}`
	return []schema.LoadRecord{
		{
			LoadID: 1, StartTime: start, EndTime: &end, DurationMs: &duration, DataDir: "/data",
			TotalFiles: 10, Skipped: 1, Merged: 2, FullCompilerRuns: 5, BenchmarkRuns: 2, ConfigParams: &params,
		},
		{LoadID: 2, StartTime: start.Add(time.Hour), DataDir: "/data"},
	}
}

func TestStructTags(t *testing.T) {
	loadSchema := parquet.SchemaOf(new(Load))
	for _, col := range []string{"load_id", "start_time", "end_time", "duration_ms", "data_dir", "total_files", "skipped", "merged", "rustc_runs", "benchmark_runs", "config_params"} {
		_, ok := loadSchema.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}

	timingSchema := parquet.SchemaOf(new(RunTiming))
	for _, col := range []string{"load_id", "kind", "commit_hash", "run_date", "crate", "phase", "percent", "time_secs", "rss"} {
		_, ok := timingSchema.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}
}

func TestWriteLoadsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loads.parquet")
	data := ConvertLoadRecords(sampleLoads())
	require.NoError(t, WriteLoadsParquet(data, path))

	got := readAll[Load](t, path)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].LoadID)
	assert.Equal(t, int32(5), got[0].FullCompilerRuns)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *got[0].EndTime, time.Millisecond)
	require.NotNil(t, got[0].DurationMs)
	assert.Equal(t, int64(1500), *got[0].DurationMs)
	require.NotNil(t, got[0].ConfigParams)
	assert.Contains(t, *got[0].ConfigParams, "rustc")

	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].DurationMs)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteRunTimingsParquet(t *testing.T) {
	rss := int64(1 << 20)
	records := []schema.TimingRecord{
		{LoadID: 1, Kind: "rustc", Commit: "abc", RunDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Crate: "syn", Phase: "total", Percent: 100, Time: 2.5, Memory: &rss},
		{LoadID: 1, Kind: "benchmarks", Commit: "abc", RunDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Crate: "total", Phase: "codegen", Percent: 40, Time: 1},
	}
	path := filepath.Join(t.TempDir(), "timings.parquet")
	require.NoError(t, WriteRunTimingsParquet(ConvertTimingRecords(records), path))

	got := readAll[RunTiming](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "syn", got[0].Crate)
	assert.InDelta(t, 2.5, got[0].Time, 1e-9)
	require.NotNil(t, got[0].Memory)
	assert.Equal(t, rss, *got[0].Memory)
	assert.Equal(t, "benchmarks", got[1].Kind)
	assert.Nil(t, got[1].Memory)
}

func TestWriteParquetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteLoadsParquet(nil, path))
	assert.Empty(t, readAll[Load](t, path))
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteLoadsParquet(nil, filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")
}
