package core

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/sirupsen/logrus"
)

// StoreBuilder collects parsed runs and merges runs that share a commit.
// It is not safe for concurrent use; the loader feeds it from a single goroutine.
type StoreBuilder struct {
	log      logrus.FieldLogger
	series   map[schema.Kind][]*schema.Run
	byCommit map[schema.Kind]map[string]*schema.Run
	stats    schema.LoadStats
}

// NewStoreBuilder creates an empty builder.
func NewStoreBuilder(log logrus.FieldLogger) *StoreBuilder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StoreBuilder{
		log:      log.WithField("component", "store"),
		series:   make(map[schema.Kind][]*schema.Run),
		byCommit: make(map[schema.Kind]map[string]*schema.Run),
	}
}

// Add appends a run, or merges its crates into an existing run of the same kind and commit.
// Colliding crates are overwritten by the new run. source names the document for logging.
func (b *StoreBuilder) Add(run *schema.Run, source string) (merged bool) {
	commits, ok := b.byCommit[run.Kind]
	if !ok {
		commits = make(map[string]*schema.Run)
		b.byCommit[run.Kind] = commits
	}

	existing, ok := commits[run.Commit]
	if !ok {
		commits[run.Commit] = run
		b.series[run.Kind] = append(b.series[run.Kind], run)
		return false
	}

	for crate, timings := range run.ByCrate {
		if _, collide := existing.ByCrate[crate]; collide {
			b.log.WithFields(logrus.Fields{
				"crate":  crate,
				"source": source,
				"date":   run.Date.Format(time.RFC3339),
				"commit": run.Commit,
			}).Warn("Overwriting crate timings")
		}
		existing.ByCrate[crate] = timings
	}
	b.stats.Merged++
	return true
}

// CountFile records that a document was seen.
func (b *StoreBuilder) CountFile() { b.stats.TotalFiles++ }

// CountSkip records that a document was skipped.
func (b *StoreBuilder) CountSkip() { b.stats.Skipped++ }

// CountCacheHit records that a document was served from the parse cache.
func (b *StoreBuilder) CountCacheHit() { b.stats.CacheHits++ }

// Finalize sorts both series, derives the name sets and the last date, and computes
// both summaries. A summary that cannot be computed fails the whole load.
// The builder must not be used afterwards.
func (b *StoreBuilder) Finalize() (*Store, error) {
	s, err := b.freeze()
	if err != nil {
		return nil, err
	}
	if err := s.summarize(b.log.WithField("component", "summary")); err != nil {
		return nil, err
	}
	return s, nil
}

// freeze sorts both series and derives the name sets, the last date and the run counts.
func (b *StoreBuilder) freeze() (*Store, error) {
	s := &Store{
		series:    make(map[schema.Kind][]schema.Run, len(schema.AllKinds)),
		summaries: make(map[schema.Kind]schema.Summary, len(schema.AllKinds)),
		stats:     b.stats,
	}

	crates := make(map[string]struct{})
	phases := make(map[string]struct{})
	benchmarks := make(map[string]struct{})
	found := false

	for _, kind := range schema.AllKinds {
		runs := make([]schema.Run, 0, len(b.series[kind]))
		for _, run := range b.series[kind] {
			runs = append(runs, *run)
			if !found || run.Date.After(s.lastDate) {
				s.lastDate = run.Date
				found = true
			}
			for crate, timings := range run.ByCrate {
				switch kind {
				case schema.FullCompilerKind:
					crates[crate] = struct{}{}
				case schema.BenchmarkKind:
					benchmarks[crate] = struct{}{}
				}
				for phase := range timings {
					phases[phase] = struct{}{}
				}
			}
		}
		sort.SliceStable(runs, func(i, j int) bool { return runs[i].Before(runs[j]) })
		s.series[kind] = runs
	}

	if !found {
		return nil, ErrNoData
	}

	s.crates = slices.Sorted(maps.Keys(crates))
	s.phases = slices.Sorted(maps.Keys(phases))
	s.benchmarks = slices.Sorted(maps.Keys(benchmarks))
	s.stats.FullCompilerRuns = len(s.series[schema.FullCompilerKind])
	s.stats.BenchmarkRuns = len(s.series[schema.BenchmarkKind])
	return s, nil
}

// summarize computes the summary of every kind.
func (s *Store) summarize(log logrus.FieldLogger) error {
	for _, kind := range schema.AllKinds {
		summary, err := BuildSummary(log.WithField("kind", kind), s.series[kind], s.lastDate, s.benchmarks)
		if err != nil {
			return fmt.Errorf("summary for %s: %w", kind, err)
		}
		s.summaries[kind] = summary
	}
	return nil
}

// Store is an immutable, date-indexed snapshot of both series and their summaries.
// Slices and maps returned by its methods are shared and must not be modified.
type Store struct {
	series     map[schema.Kind][]schema.Run
	summaries  map[schema.Kind]schema.Summary
	crates     []string
	phases     []string
	benchmarks []string
	lastDate   time.Time
	stats      schema.LoadStats
}

// IndexIn returns the index of the first run dated at or after date, clamped to the
// last index. It panics on an empty series.
func IndexIn(series []schema.Run, date time.Time) int {
	if len(series) == 0 {
		panic("core: IndexIn on empty series")
	}
	idx := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(date)
	})
	return min(idx, len(series)-1)
}

// Runs returns the whole series of a kind, ascending by date.
func (s *Store) Runs(kind schema.Kind) []schema.Run {
	return s.series[kind]
}

// Range returns the runs of a kind from the run at start through the run at end.
// A nil start means the earliest run; a nil end means the global last date.
func (s *Store) Range(kind schema.Kind, start, end *time.Time) []schema.Run {
	series := s.series[kind]
	if len(series) == 0 {
		return nil
	}

	from := series[0].Date
	if start != nil {
		from = *start
	}
	to := s.lastDate
	if end != nil {
		to = *end
	}

	i := IndexIn(series, from)
	j := IndexIn(series, to) + 1
	if i >= j {
		return []schema.Run{}
	}
	return series[i:j]
}

// Boundary returns the single run at the resolved index of date.
// A nil date defaults to the earliest run for StartEdge and to the global last date for EndEdge.
func (s *Store) Boundary(kind schema.Kind, date *time.Time, edge schema.Edge) (schema.Run, error) {
	series := s.series[kind]
	if len(series) == 0 {
		return schema.Run{}, fmt.Errorf("%w: no %s runs", ErrNoData, kind)
	}

	at := s.lastDate
	if edge == schema.StartEdge {
		at = series[0].Date
	}
	if date != nil {
		at = *date
	}
	return series[IndexIn(series, at)], nil
}

// Summary returns the precomputed summary for a kind.
func (s *Store) Summary(kind schema.Kind) schema.Summary {
	return s.summaries[kind]
}

// Crates returns the crate names seen in full-compiler runs.
func (s *Store) Crates() []string { return s.crates }

// Phases returns the phase names seen in runs of either kind.
func (s *Store) Phases() []string { return s.phases }

// Benchmarks returns the crate names seen in benchmark runs.
func (s *Store) Benchmarks() []string { return s.benchmarks }

// LastDate returns the latest run date across both kinds.
func (s *Store) LastDate() time.Time { return s.lastDate }

// Stats returns the counters of the load that built the store.
func (s *Store) Stats() schema.LoadStats { return s.stats }

// Info gathers the store's name sets, last date and load counters.
func (s *Store) Info() schema.InfoResult {
	return schema.InfoResult{
		Crates:     s.crates,
		Phases:     s.phases,
		Benchmarks: s.benchmarks,
		LastDate:   s.lastDate,
		Stats:      s.stats,
	}
}
