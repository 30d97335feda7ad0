package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// shortCommitLen is how many commit characters tables show.
const shortCommitLen = 10

// timingHeader is the CSV header for flattened timings.
var timingHeader = []string{"date", "commit", "kind", "crate", "phase", "percent", "time", "rss"}

// WriteRunResults outputs runs, dispatching based on the output format configured.
func WriteRunResults(runs []schema.Run, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimingsCSV(w, runs, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, runs, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// WriteBoundaryResult outputs one run in detail.
func WriteBoundaryResult(run schema.Run, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, run)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimingsCSV(w, []schema.Run{run}, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunDetailTable(w, run, cfg, fmtFloat)
		}, "Wrote table")
	}
}

// runTotals returns the total time of a run and its peak memory.
// A run with a total crate reports that crate, otherwise the per-crate totals are summed.
func runTotals(run schema.Run) (float64, *uint64) {
	if phases, ok := run.ByCrate[schema.TotalName]; ok {
		t := phases[schema.TotalName]
		return t.Time, t.Memory
	}
	var sum float64
	var peak *uint64
	for _, phases := range run.ByCrate {
		t, ok := phases[schema.TotalName]
		if !ok {
			continue
		}
		sum += t.Time
		if t.Memory != nil && (peak == nil || *t.Memory > *peak) {
			v := *t.Memory
			peak = &v
		}
	}
	return sum, peak
}

// shortCommit trims a commit hash for display.
func shortCommit(commit string) string {
	if len(commit) > shortCommitLen {
		return commit[:shortCommitLen]
	}
	return commit
}

// writeRunTable generates and writes the human-readable run table.
func writeRunTable(w io.Writer, runs []schema.Run, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Date", "Commit", "Crates", "Total (s)", "Peak RSS"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(runs))
	for i, run := range runs {
		total, rss := runTotals(run)
		data = append(data, []string{
			strconv.Itoa(i + 1),
			run.Date.Format(contract.DateTimeFormat),
			shortCommit(run.Commit),
			strconv.Itoa(len(run.ByCrate)),
			fmtFloat(total),
			formatBytes(fmtFloat, rss),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d %s runs\n", len(runs), cfg.Kind); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Query completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeRunDetailTable writes one row per crate and phase of a run.
func writeRunDetailTable(w io.Writer, run schema.Run, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "%s run %s at %s\n", run.Kind, run.Commit, run.Date.Format(contract.DateTimeFormat)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Crate", "Phase", "Time (s)", "Percent", "RSS"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg, 45)
	var data [][]string
	for _, crate := range slices.Sorted(maps.Keys(run.ByCrate)) {
		phases := run.ByCrate[crate]
		for _, phase := range slices.Sorted(maps.Keys(phases)) {
			t := phases[phase]
			data = append(data, []string{
				contract.TruncateName(crate, nameWidth),
				contract.TruncateName(phase, nameWidth),
				fmtFloat(t.Time),
				fmtFloat(t.Percent) + "%",
				formatBytes(fmtFloat, t.Memory),
			})
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeTimingsCSV writes one CSV row per run, crate and phase.
func writeTimingsCSV(w io.Writer, runs []schema.Run, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, timingHeader, func(cw *csv.Writer) error {
		for _, run := range runs {
			date := run.Date.Format(contract.DateTimeFormat)
			for _, crate := range slices.Sorted(maps.Keys(run.ByCrate)) {
				phases := run.ByCrate[crate]
				for _, phase := range slices.Sorted(maps.Keys(phases)) {
					t := phases[phase]
					rss := ""
					if t.Memory != nil {
						rss = strconv.FormatUint(*t.Memory, 10)
					}
					row := []string{date, run.Commit, string(run.Kind), crate, phase, fmtFloat(t.Percent), fmtFloat(t.Time), rss}
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write CSV row: %w", err)
					}
				}
			}
		}
		return nil
	})
}
