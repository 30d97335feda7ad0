package iocache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite cache and history", func(t *testing.T) {
		resetGlobals()
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath))
		assert.NotNil(t, Manager.GetParseStore())
		assert.NotNil(t, Manager.GetHistoryStore())
		CloseCaching()

		assert.FileExists(t, cachePath)
		assert.FileExists(t, historyPath)
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals()
		path := filepath.Join(t.TempDir(), "cache.db")
		for range 3 {
			assert.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		}
		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals()
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		store := Manager.GetParseStore()
		require.NotNil(t, store)
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		CloseCaching()
	})

	t.Run("empty backends leave stores unset", func(t *testing.T) {
		resetGlobals()
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetParseStore())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("unsupported backend", func(t *testing.T) {
		resetGlobals()
		err := InitStores("redis", "", "", "")
		assert.ErrorContains(t, err, "failed to initialize parse caching")
	})
}

func TestCacheStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(parseTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte("hello"), 1, now))
	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, now, ts)

	// Upsert replaces the existing row
	require.NoError(t, store.Set("k1", []byte("world"), 2, now+10))
	value, version, ts, err = store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, now+10, ts)

	require.NoError(t, store.Set("k2", []byte("x"), 1, now-100))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, now+10, status.LastEntryTime.Unix())
	assert.Equal(t, now-100, status.OldestEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNone(t *testing.T) {
	store, err := NewCacheStore(parseTable, schema.NoneBackend, "")
	require.NoError(t, err)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreRejectsBadTableName(t *testing.T) {
	_, err := NewCacheStore("parse; DROP TABLE x", schema.SQLiteBackend, filepath.Join(t.TempDir(), "c.db"))
	assert.ErrorContains(t, err, "invalid table name")
}

func TestClearCacheSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(parseTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)

	// Missing file is fine
	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory("redis", "", ""))
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "sqlite", Connected: true, TotalEntries: 3, TableSizeBytes: 4096})
	assert.Contains(t, buf.String(), "Cache Backend: sqlite")
	assert.Contains(t, buf.String(), "Total Entries: 3")
	assert.Contains(t, buf.String(), "Table Size: 4096 bytes")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, buf.String(), "Total Entries")
}
