package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/olekukonko/tablewriter"
)

// infoListLimit caps how many names a text info table lists per row.
const infoListLimit = 8

// WriteInfoResults outputs store information, dispatching based on the output format configured.
func WriteInfoResults(info schema.InfoResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, info)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(infoRows(info, cfg, -1))
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Key", "Value"})
			if err := table.Bulk(infoRows(info, cfg, infoListLimit)); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// infoRows renders info as key/value pairs. A negative limit lists every name.
func infoRows(info schema.InfoResult, cfg *contract.Config, limit int) [][]string {
	lastDate := ""
	if !info.LastDate.IsZero() {
		lastDate = info.LastDate.Format(contract.DateTimeFormat)
	}
	return [][]string{
		{"data_dir", cfg.DataDir},
		{"last_date", lastDate},
		{"crates", joinNames(info.Crates, limit)},
		{"phases", joinNames(info.Phases, limit)},
		{"benchmarks", joinNames(info.Benchmarks, limit)},
		{"total_files", strconv.Itoa(info.Stats.TotalFiles)},
		{"skipped", strconv.Itoa(info.Stats.Skipped)},
		{"merged", strconv.Itoa(info.Stats.Merged)},
		{"cache_hits", strconv.Itoa(info.Stats.CacheHits)},
		{"rustc_runs", strconv.Itoa(info.Stats.FullCompilerRuns)},
		{"benchmark_runs", strconv.Itoa(info.Stats.BenchmarkRuns)},
	}
}

// joinNames joins names, eliding the rest after limit entries.
func joinNames(names []string, limit int) string {
	if limit < 0 || len(names) <= limit {
		return strings.Join(names, ",")
	}
	return fmt.Sprintf("%s ... (%d total)", strings.Join(names[:limit], ","), len(names))
}
