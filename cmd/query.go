package cmd

import (
	"github.com/huangsam/perfhist/core"
	"github.com/huangsam/perfhist/internal/contract"
	"github.com/spf13/cobra"
)

// runsCmd lists the runs of one kind within a date range.
var runsCmd = &cobra.Command{
	Use:   "runs [data-dir]",
	Short: "List runs of one kind within a date range.",
	Long: `Load every timing document under the data directory and list the runs of one kind.

The start of the range rounds to the first run at or after --start, and the end
rounds up to the first run at or after --end. Without --start the range begins at
the earliest run; without --end it runs to the latest date across both kinds.

Examples:
  # All full-compiler runs
  perfhist runs ./data

  # Benchmark runs from the last month
  perfhist runs ./data --kind benchmarks --start "1 month ago"

  # Flatten every crate and phase to CSV
  perfhist runs ./data --output csv --output-file runs.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRuns(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list runs", err)
		}
	},
}

// boundaryCmd shows the single run nearest a date.
var boundaryCmd = &cobra.Command{
	Use:   "boundary [data-dir]",
	Short: "Show the run nearest a date with every crate and phase.",
	Long: `Resolve a date to the nearest run of one kind and print its full timings.

Without --date, the start edge resolves to the earliest run and the end edge to the
latest date across both kinds.

Examples:
  # The first full-compiler run
  perfhist boundary ./data

  # The latest benchmark run as JSON
  perfhist boundary ./data --kind benchmarks --edge end --output json

  # The run in effect two weeks ago
  perfhist boundary ./data --date "2 weeks ago"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBoundary(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot resolve boundary run", err)
		}
	},
}

// summaryCmd shows the weekly trend summary.
var summaryCmd = &cobra.Command{
	Use:   "summary [data-dir]",
	Short: "Show week-over-week percent changes and the 13-week total.",
	Long: `Compare median timings at the start and end of each of the last 12 weeks.

Each weekly figure compares the median of up to three runs ending at the start of
the week against the median ending at the end of the week. Pairs with a zero
median on either side are left out. The total compares 13 weeks before the latest
week with the latest data.

Examples:
  # Full-compiler summary
  perfhist summary ./data

  # Flag only changes above 10%
  perfhist summary ./data --threshold 10

  # Benchmark summary as JSON
  perfhist summary ./data --kind benchmarks --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute summary", err)
		}
	},
}

// infoCmd shows what a data directory contains.
var infoCmd = &cobra.Command{
	Use:   "info [data-dir]",
	Short: "Show known crates, phases, benchmarks and load counters.",
	Long: `Load the data directory and report what it holds.

Shows the crate names of full-compiler runs, phase names of both kinds, benchmark
names, the latest date, and how many files were read, skipped and merged.

Examples:
  perfhist info ./data
  perfhist info ./data --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteInfo(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot load info", err)
		}
	},
}
