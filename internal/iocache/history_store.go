package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
)

// Table names for load history.
const (
	loadsTable      = "perfhist_loads"
	runTimingsTable = "perfhist_run_timings"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{loadsTable, runTimingsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize load history: %w", err)
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the load history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	queries := map[string]string{
		loadsTable:      getCreateLoadsQuery(backend),
		runTimingsTable: getCreateRunTimingsQuery(backend),
	}
	for _, table := range historyTables {
		if _, err := db.Exec(queries[table]); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateLoadsQuery returns the CREATE TABLE query for perfhist_loads.
func getCreateLoadsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(loadsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				duration_ms BIGINT,
				data_dir VARCHAR(1024) NOT NULL,
				total_files INT,
				skipped INT,
				merged INT,
				rustc_runs INT,
				benchmark_runs INT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				duration_ms BIGINT,
				data_dir TEXT NOT NULL,
				total_files INT,
				skipped INT,
				merged INT,
				rustc_runs INT,
				benchmark_runs INT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				duration_ms INTEGER,
				data_dir TEXT NOT NULL,
				total_files INTEGER,
				skipped INTEGER,
				merged INTEGER,
				rustc_runs INTEGER,
				benchmark_runs INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunTimingsQuery returns the CREATE TABLE query for perfhist_run_timings.
func getCreateRunTimingsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runTimingsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id BIGINT NOT NULL,
				kind VARCHAR(32) NOT NULL,
				commit_hash VARCHAR(64) NOT NULL,
				run_date DATETIME(6) NOT NULL,
				crate VARCHAR(255) NOT NULL,
				phase VARCHAR(255) NOT NULL,
				percent DOUBLE NOT NULL,
				time_secs DOUBLE NOT NULL,
				rss BIGINT,
				PRIMARY KEY (load_id, kind, commit_hash, crate, phase)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id BIGINT NOT NULL,
				kind TEXT NOT NULL,
				commit_hash TEXT NOT NULL,
				run_date TIMESTAMPTZ NOT NULL,
				crate TEXT NOT NULL,
				phase TEXT NOT NULL,
				percent DOUBLE PRECISION NOT NULL,
				time_secs DOUBLE PRECISION NOT NULL,
				rss BIGINT,
				PRIMARY KEY (load_id, kind, commit_hash, crate, phase)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				load_id INTEGER NOT NULL,
				kind TEXT NOT NULL,
				commit_hash TEXT NOT NULL,
				run_date TEXT NOT NULL,
				crate TEXT NOT NULL,
				phase TEXT NOT NULL,
				percent REAL NOT NULL,
				time_secs REAL NOT NULL,
				rss INTEGER,
				PRIMARY KEY (load_id, kind, commit_hash, crate, phase)
			);
		`, quotedTableName)
	}
}

// BeginLoad creates a new load record and returns its unique ID.
func (hs *HistoryStoreImpl) BeginLoad(startTime time.Time, dataDir string, configParams map[string]any) (int64, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(loadsTable, hs.backend)
	args := []any{formatTime(startTime, hs.backend), dataDir, string(configJSON)}

	var loadID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, data_dir, config_params) VALUES ($1, $2, $3) RETURNING load_id`, quotedTableName)
		err = hs.db.QueryRow(query, args...).Scan(&loadID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, data_dir, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			loadID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert load record: %w", err)
	}
	return loadID, nil
}

// EndLoad updates the load record with completion data.
func (hs *HistoryStoreImpl) EndLoad(loadID int64, endTime time.Time, stats schema.LoadStats) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(loadsTable, hs.backend)

	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE load_id = %s`, quotedTableName, placeholders(hs.backend, 1))
	start := timeScanner{backend: hs.backend}
	if err := hs.db.QueryRow(query, loadID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for load %d: %w", loadID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return fmt.Errorf("failed to read start_time for load %d: %w", loadID, err)
	}
	if startTime == nil {
		return fmt.Errorf("load %d has no start_time", loadID)
	}

	durationMs := endTime.Sub(*startTime).Milliseconds()

	var update string
	if hs.backend == schema.PostgreSQLBackend {
		update = `UPDATE %s SET end_time = $1, duration_ms = $2, total_files = $3, skipped = $4, merged = $5,
			rustc_runs = $6, benchmark_runs = $7 WHERE load_id = $8`
	} else {
		update = `UPDATE %s SET end_time = ?, duration_ms = ?, total_files = ?, skipped = ?, merged = ?,
			rustc_runs = ?, benchmark_runs = ? WHERE load_id = ?`
	}
	_, err = hs.db.Exec(fmt.Sprintf(update, quotedTableName),
		formatTime(endTime, hs.backend), durationMs, stats.TotalFiles, stats.Skipped, stats.Merged,
		stats.FullCompilerRuns, stats.BenchmarkRuns, loadID)
	if err != nil {
		return fmt.Errorf("failed to update load record: %w", err)
	}
	return nil
}

// RecordRuns stores one row per crate and phase of every run, in a single transaction.
func (hs *HistoryStoreImpl) RecordRuns(loadID int64, runs []schema.Run) error {
	if hs.backend == schema.NoneBackend || hs.db == nil || len(runs) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (load_id, kind, commit_hash, run_date, crate, phase, percent, time_secs, rss) VALUES (%s)`,
		quoteTableName(runTimingsTable, hs.backend), placeholders(hs.backend, 9))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare timing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, run := range runs {
		runDate := formatTime(run.Date, hs.backend)
		for _, crate := range slices.Sorted(maps.Keys(run.ByCrate)) {
			phases := run.ByCrate[crate]
			for _, phase := range slices.Sorted(maps.Keys(phases)) {
				timing := phases[phase]
				var rss *int64
				if timing.Memory != nil {
					v := int64(*timing.Memory)
					rss = &v
				}
				if _, err := stmt.Exec(loadID, string(run.Kind), run.Commit, runDate, crate, phase, timing.Percent, timing.Time, rss); err != nil {
					return fmt.Errorf("failed to insert timing %s/%s of %s: %w", crate, phase, run.Commit, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit timings: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedLoads := quoteTableName(loadsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedLoads)).Scan(&status.TotalLoads); err != nil {
		return status, fmt.Errorf("failed to get total loads: %w", err)
	}

	if status.TotalLoads > 0 {
		last := timeScanner{backend: hs.backend}
		row := hs.db.QueryRow(fmt.Sprintf("SELECT load_id, start_time FROM %s ORDER BY load_id DESC LIMIT 1", quotedLoads))
		if err := row.Scan(&status.LastLoadID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last load info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastLoadTime = *t
		}

		oldest := timeScanner{backend: hs.backend}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY load_id ASC LIMIT 1", quotedLoads))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest load time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestLoadTime = *t
		}

		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", quotedLoads))
		if err := row.Scan(&status.TotalFilesRead); err != nil {
			return status, fmt.Errorf("failed to get total files read: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllLoads retrieves all load records ordered by ID.
func (hs *HistoryStoreImpl) GetAllLoads() ([]schema.LoadRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT load_id, start_time, end_time, duration_ms, data_dir,
		COALESCE(total_files, 0), COALESCE(skipped, 0), COALESCE(merged, 0),
		COALESCE(rustc_runs, 0), COALESCE(benchmark_runs, 0), config_params
		FROM %s ORDER BY load_id`, quoteTableName(loadsTable, hs.backend))

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LoadRecord
	for rows.Next() {
		var record schema.LoadRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.LoadID, start.dest(), end.dest(), &record.DurationMs, &record.DataDir,
			&record.TotalFiles, &record.Skipped, &record.Merged,
			&record.FullCompilerRuns, &record.BenchmarkRuns, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loads: %w", err)
	}
	return results, nil
}

// GetAllRunTimings retrieves all recorded timings.
func (hs *HistoryStoreImpl) GetAllRunTimings() ([]schema.TimingRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT load_id, kind, commit_hash, run_date, crate, phase, percent, time_secs, rss
		FROM %s ORDER BY load_id, kind, run_date, crate, phase`, quoteTableName(runTimingsTable, hs.backend))

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run timings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TimingRecord
	for rows.Next() {
		var record schema.TimingRecord
		runDate := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.LoadID, &record.Kind, &record.Commit, runDate.dest(),
			&record.Crate, &record.Phase, &record.Percent, &record.Time, &record.Memory); err != nil {
			return nil, fmt.Errorf("failed to scan run timing: %w", err)
		}
		t, err := runDate.value()
		if err != nil {
			return nil, err
		}
		if t != nil {
			record.RunDate = *t
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run timings: %w", err)
	}
	return results, nil
}
