package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/sirupsen/logrus"
)

// processedDir is the subdirectory of the data directory holding documents.
const processedDir = "processed"

// parseResult is the outcome of reading and parsing one document.
type parseResult struct {
	filename string
	run      *schema.Run
	empty    bool
	hit      bool
	unread   bool // the file could not be read; err holds the cause
	err      error
}

// ResolveDocumentDir returns dataDir/processed when it exists, otherwise dataDir itself.
func ResolveDocumentDir(dataDir string) string {
	candidate := filepath.Join(dataDir, processedDir)
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return dataDir
}

// listDocuments returns the document file names of dir in lexical order.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), documentExtension) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// LoadStore reads every document under cfg.DataDir and builds a finalized store.
// Documents are parsed in parallel and merged in file-name order, so repeated loads
// of the same directory produce identical stores. Malformed documents are skipped
// and counted, as are documents that cannot be read. When a history store is
// configured the ingested runs are recorded.
func LoadStore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Store, error) {
	log := loggerFromContext(ctx).WithField("component", "loader")
	startTime := time.Now()

	dir := ResolveDocumentDir(cfg.DataDir)
	names, err := listDocuments(dir)
	if err != nil {
		return nil, err
	}

	var cache contract.CacheStore
	var history contract.HistoryStore
	if mgr != nil {
		cache = mgr.GetParseStore()
		history = mgr.GetHistoryStore()
	}

	results, err := parseAll(ctx, dir, names, cfg.Workers, cfg.CompilerName, cache)
	if err != nil {
		return nil, err
	}

	builder := NewStoreBuilder(log)
	for _, r := range results {
		builder.CountFile()
		switch {
		case r.empty:
			log.WithField("file", r.filename).Warn("Skipping empty file")
			builder.CountSkip()
			continue
		case r.unread:
			log.WithError(r.err).WithField("file", r.filename).Error("Skipping unreadable file")
			builder.CountSkip()
			continue
		case r.err != nil:
			if !errors.Is(r.err, ErrMalformedInput) && !errors.Is(r.err, ErrUnresolvableDate) {
				return nil, r.err
			}
			log.WithError(r.err).WithField("file", r.filename).Error("Skipping document")
			builder.CountSkip()
			continue
		}
		if r.hit {
			builder.CountCacheHit()
		}
		builder.Add(r.run, r.filename)
	}

	store, err := builder.Finalize()
	if err != nil {
		return nil, err
	}

	stats := store.Stats()
	log.WithFields(logrus.Fields{
		"dir":        dir,
		"total":      stats.TotalFiles,
		"skipped":    stats.Skipped,
		"merged":     stats.Merged,
		"cache_hits": stats.CacheHits,
		"rustc":      stats.FullCompilerRuns,
		"benchmarks": stats.BenchmarkRuns,
		"duration":   time.Since(startTime).String(),
	}).Info("Loaded performance history")

	if history != nil {
		recordLoad(cfg, history, store, startTime, log)
	}
	return store, nil
}

// parseAll reads and parses documents with a pool of workers. Each worker writes only
// to its own slot of the result slice.
func parseAll(ctx context.Context, dir string, names []string, workers int, compilerName string, cache contract.CacheStore) ([]parseResult, error) {
	results := make([]parseResult, len(names))
	idxCh := make(chan int, len(names))
	var wg sync.WaitGroup

	for range max(workers, 1) {
		wg.Go(func() {
			for i := range idxCh {
				if ctx.Err() != nil {
					continue
				}
				results[i] = parseOne(dir, names[i], compilerName, cache)
			}
		})
	}

	for i := range names {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseOne reads a single document and parses it, through the cache when one is given.
func parseOne(dir, name, compilerName string, cache contract.CacheStore) parseResult {
	res := parseResult{filename: name}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		res.unread = true
		res.err = fmt.Errorf("failed to read %s: %w", name, err)
		return res
	}
	if len(data) == 0 {
		res.empty = true
		return res
	}
	res.run, res.hit, res.err = cachedParseDocument(cache, name, data, compilerName)
	return res
}

// recordLoad stores the load cycle and the raw runs it ingested. Failures are logged, not returned.
func recordLoad(cfg *contract.Config, history contract.HistoryStore, store *Store, startTime time.Time, log logrus.FieldLogger) {
	params := map[string]any{
		"compiler_name": cfg.CompilerName,
		"workers":       cfg.Workers,
	}
	loadID, err := history.BeginLoad(startTime, cfg.DataDir, params)
	if err != nil {
		log.WithError(err).Warn("Load history initialization failed")
		return
	}
	if loadID <= 0 {
		return
	}

	for _, kind := range schema.AllKinds {
		if err := history.RecordRuns(loadID, store.Runs(kind)); err != nil {
			log.WithError(err).WithField("kind", kind).Warn("Failed to record runs")
		}
	}

	if err := history.EndLoad(loadID, time.Now(), store.Stats()); err != nil {
		log.WithError(err).Warn("Failed to finalize load history")
	}
}
