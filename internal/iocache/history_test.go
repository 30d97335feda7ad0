package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []schema.Run {
	rss := uint64(2048)
	date := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	return []schema.Run{
		{
			Date:   date,
			Commit: "abc123",
			Kind:   schema.FullCompilerKind,
			ByCrate: schema.CrateTimings{
				"syn": {
					"total":   {Percent: 100, Time: 2, Memory: &rss},
					"codegen": {Percent: 50, Time: 1},
				},
			},
		},
		{
			Date:   date.AddDate(0, 0, 1),
			Commit: "def456",
			Kind:   schema.BenchmarkKind,
			ByCrate: schema.CrateTimings{
				"total": {"total": {Percent: 100, Time: 9}},
			},
		},
	}
}

func TestHistoryStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalLoads)

	start := time.Date(2021, 3, 2, 8, 0, 0, 0, time.UTC)
	loadID, err := store.BeginLoad(start, "/data", map[string]any{"workers": 2})
	require.NoError(t, err)
	assert.Positive(t, loadID)

	require.NoError(t, store.RecordRuns(loadID, sampleRuns()))
	stats := schema.LoadStats{TotalFiles: 3, Skipped: 1, FullCompilerRuns: 1, BenchmarkRuns: 1}
	require.NoError(t, store.EndLoad(loadID, start.Add(250*time.Millisecond), stats))

	loads, err := store.GetAllLoads()
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, loadID, loads[0].LoadID)
	assert.Equal(t, start, loads[0].StartTime)
	require.NotNil(t, loads[0].EndTime)
	require.NotNil(t, loads[0].DurationMs)
	assert.Equal(t, int64(250), *loads[0].DurationMs)
	assert.Equal(t, int32(3), loads[0].TotalFiles)
	assert.Equal(t, int32(1), loads[0].Skipped)
	require.NotNil(t, loads[0].ConfigParams)
	assert.JSONEq(t, `{"workers":2}`, *loads[0].ConfigParams)

	timings, err := store.GetAllRunTimings()
	require.NoError(t, err)
	require.Len(t, timings, 3)
	// Ordered by kind, date, crate, phase
	assert.Equal(t, "benchmarks", timings[0].Kind)
	assert.Equal(t, "rustc", timings[1].Kind)
	assert.Equal(t, "codegen", timings[1].Phase)
	assert.Nil(t, timings[1].Memory)
	assert.Equal(t, "total", timings[2].Phase)
	require.NotNil(t, timings[2].Memory)
	assert.Equal(t, int64(2048), *timings[2].Memory)
	assert.Equal(t, time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC), timings[2].RunDate)

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalLoads)
	assert.Equal(t, loadID, status.LastLoadID)
	assert.Equal(t, 3, status.TotalFilesRead)
	assert.Equal(t, int64(3), status.TableSizes[runTimingsTable])
	assert.Equal(t, start, status.LastLoadTime)
}

func TestHistoryStoreNone(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)
	id, err := store.BeginLoad(time.Now(), "/data", nil)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.RecordRuns(id, sampleRuns()))
	assert.NoError(t, store.EndLoad(id, time.Now(), schema.LoadStats{}))
	loads, err := store.GetAllLoads()
	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestMigrateHistorySQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	var out bytes.Buffer

	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, -1))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, -1))
	assert.Contains(t, out.String(), "No migration needed")

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, 1))
	assert.Contains(t, out.String(), "from version 2 to version 1")

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, 0))
	assert.Contains(t, out.String(), "to version 0")

	assert.Error(t, MigrateHistory(&out, schema.NoneBackend, "", -1))
}

func TestExecuteHistoryExport(t *testing.T) {
	t.Run("sqlite round trip", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		id, err := store.BeginLoad(time.Now(), dir, nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordRuns(id, sampleRuns()))
		require.NoError(t, store.EndLoad(id, time.Now(), schema.LoadStats{TotalFiles: 2}))

		var out bytes.Buffer
		prefix := filepath.Join(dir, "export")
		require.NoError(t, ExecuteHistoryExport(&out, store, prefix))
		assert.Contains(t, out.String(), "Exported 1 loads")
		assert.Contains(t, out.String(), "Exported 3 timing records")

		for _, suffix := range []string{".loads.parquet", ".run_timings.parquet"} {
			info, err := os.Stat(prefix + suffix)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	})

	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, &MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("no data", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExecuteHistoryExport(&bytes.Buffer{}, store, "out")
		assert.ErrorContains(t, err, "no load history")
		store.AssertExpectations(t)
	})

	t.Run("load retrieval fails", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{TotalLoads: 1}, nil)
		store.On("GetAllLoads").Return(nil, assert.AnError)
		err := ExecuteHistoryExport(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorIs(t, err, assert.AnError)
		store.AssertNotCalled(t, "GetAllRunTimings")
	})
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalLoads: 2, LastLoadID: 2, TotalFilesRead: 10,
		TableSizes: map[string]int64{runTimingsTable: 5, loadsTable: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Total Loads: 2")
	assert.Contains(t, out, "Total Files Read: 10")
	// Tables print in sorted order
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(loadsTable)), bytes.Index(buf.Bytes(), []byte(runTimingsTable)))
}

func TestSQLHelpers(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "$1, $2", placeholders(schema.PostgreSQLBackend, 2))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.NoError(t, validateTableName("perfhist_loads"))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("1abc"))
	_, err := driverName(schema.NoneBackend)
	assert.Error(t, err)
}
