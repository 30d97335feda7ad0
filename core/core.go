// Package core loads compiler performance history and answers range, boundary and summary queries.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/internal/outwriter"
	"github.com/huangsam/perfhist/schema"
)

// ExecutorFunc defines the function signature for executing different query modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// QueryRuns returns the runs of cfg.Kind between cfg.Start and cfg.End.
func QueryRuns(store *Store, cfg *contract.Config) ([]schema.Run, error) {
	runs := store.Range(cfg.Kind, cfg.Start, cfg.End)
	if runs == nil {
		return nil, fmt.Errorf("%w: no %s runs", ErrNoData, cfg.Kind)
	}
	return runs, nil
}

// QueryBoundary returns the run of cfg.Kind nearest cfg.Date on the cfg.Edge side.
func QueryBoundary(store *Store, cfg *contract.Config) (schema.Run, error) {
	return store.Boundary(cfg.Kind, cfg.Date, cfg.Edge)
}

// QuerySummary returns the summary of cfg.Kind.
func QuerySummary(store *Store, cfg *contract.Config) schema.Summary {
	return store.Summary(cfg.Kind)
}

// loadForQuery prints the query header unless suppressed and loads the store.
func loadForQuery(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Store, error) {
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogQueryHeader(os.Stdout, cfg)
	}
	return LoadStore(ctx, cfg, mgr)
}

// ExecuteRuns loads the data directory and prints the runs in the requested range.
// It serves as the main entry point for the 'runs' mode.
func ExecuteRuns(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	store, err := loadForQuery(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	runs, err := QueryRuns(store, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRuns(runs, cfg, time.Since(start))
}

// ExecuteBoundary loads the data directory and prints the run at the requested edge.
// It serves as the main entry point for the 'boundary' mode.
func ExecuteBoundary(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	store, err := loadForQuery(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	run, err := QueryBoundary(store, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteBoundary(run, cfg)
}

// ExecuteSummary loads the data directory and prints the weekly trend summary.
// It serves as the main entry point for the 'summary' mode.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	store, err := loadForQuery(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSummary(QuerySummary(store, cfg), cfg, time.Since(start))
}

// ExecuteInfo loads the data directory and prints what it contains.
func ExecuteInfo(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	store, err := LoadStore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteInfo(store.Info(), cfg)
}
