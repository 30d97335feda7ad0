package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// totalPeriod labels the long-horizon comparison in CSV output.
const totalPeriod = "total"

// WriteSummaryResults outputs a summary, dispatching based on the output format configured.
func WriteSummaryResults(summary schema.Summary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, summary, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTables(w, summary, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// totalChange returns the change of the total phase of a crate, if any.
func totalChange(change schema.PercentChange, crate string) (float64, bool) {
	phases, ok := change.ByCrate[crate]
	if !ok {
		return 0, false
	}
	v, ok := phases[schema.TotalName]
	return v, ok
}

// extremes returns the crates whose total phase regressed and improved the most in a week.
func extremes(change schema.PercentChange) (worst, best string, worstPct, bestPct float64) {
	worstPct, bestPct = math.Inf(-1), math.Inf(1)
	for _, crate := range slices.Sorted(maps.Keys(change.ByCrate)) {
		if crate == schema.TotalName {
			continue
		}
		v, ok := totalChange(change, crate)
		if !ok {
			continue
		}
		if v > worstPct {
			worst, worstPct = crate, v
		}
		if v < bestPct {
			best, bestPct = crate, v
		}
	}
	return worst, best, worstPct, bestPct
}

// writeSummaryTables writes the per-crate total table followed by the weekly table.
func writeSummaryTables(w io.Writer, summary schema.Summary, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	nameWidth := GetMaxTableNameWidth(cfg, 30)

	if _, err := fmt.Fprintf(w, "%s change up to %s\n", cfg.Kind, summary.Total.Date.Format(time.DateOnly)); err != nil {
		return err
	}
	total := tablewriter.NewWriter(w)
	total.Header([]string{"Crate", "Change", "Trend"})
	total.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var totalRows [][]string
	for _, crate := range slices.Sorted(maps.Keys(summary.Total.ByCrate)) {
		v, ok := totalChange(summary.Total, crate)
		if !ok {
			continue
		}
		totalRows = append(totalRows, []string{
			contract.TruncateName(crate, nameWidth),
			formatChange(fmtFloat, v),
			trendLabel(cfg, v),
		})
	}
	if err := total.Bulk(totalRows); err != nil {
		return err
	}
	if err := total.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "Weekly change"); err != nil {
		return err
	}
	weekly := tablewriter.NewWriter(w)
	weekly.Header([]string{"Week Ending", "Total", "Trend", "Worst", "Best"})
	weekly.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var weekRows [][]string
	for _, week := range summary.Weekly {
		totalCell, trendCell := noValue, noValue
		if v, ok := totalChange(week, schema.TotalName); ok {
			totalCell, trendCell = formatChange(fmtFloat, v), trendLabel(cfg, v)
		}
		worst, best, worstPct, bestPct := extremes(week)
		worstCell, bestCell := noValue, noValue
		if worst != "" {
			worstCell = fmt.Sprintf("%s %s", contract.TruncateName(worst, nameWidth/2), formatChange(fmtFloat, worstPct))
		}
		if best != "" {
			bestCell = fmt.Sprintf("%s %s", contract.TruncateName(best, nameWidth/2), formatChange(fmtFloat, bestPct))
		}
		weekRows = append(weekRows, []string{week.Date.Format(time.DateOnly), totalCell, trendCell, worstCell, bestCell})
	}
	if err := weekly.Bulk(weekRows); err != nil {
		return err
	}
	if err := weekly.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Summary computed in %v. Trend threshold: %s%%\n", duration, fmtFloat(cfg.Threshold))
	return err
}

// writeSummaryCSV writes one row per period, crate and phase.
func writeSummaryCSV(w io.Writer, summary schema.Summary, fmtFloat func(float64) string) error {
	header := []string{"period", "date", "crate", "phase", "percent_change"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		write := func(period string, change schema.PercentChange) error {
			date := change.Date.Format(time.DateOnly)
			for _, crate := range slices.Sorted(maps.Keys(change.ByCrate)) {
				phases := change.ByCrate[crate]
				for _, phase := range slices.Sorted(maps.Keys(phases)) {
					if err := cw.Write([]string{period, date, crate, phase, fmtFloat(phases[phase])}); err != nil {
						return fmt.Errorf("failed to write CSV row: %w", err)
					}
				}
			}
			return nil
		}
		if err := write(totalPeriod, summary.Total); err != nil {
			return err
		}
		for _, week := range summary.Weekly {
			if err := write("week", week); err != nil {
				return err
			}
		}
		return nil
	})
}
