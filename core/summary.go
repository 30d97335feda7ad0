package core

import (
	"fmt"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/sirupsen/logrus"
)

// totalHorizonWeeks is how far before the last week the total comparison starts.
const totalHorizonWeeks = 13

// BuildSummary computes the weekly trend and the long-horizon total for one series.
// lastDate is the latest date across both series. Every weekly entry gets an empty
// map for each benchmark name that has no data that week. A nil log uses the standard logger.
func BuildSummary(log logrus.FieldLogger, series []schema.Run, lastDate time.Time, benchmarks []string) (schema.Summary, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	weekStart := StartOfWeek(lastDate)
	summary := schema.Summary{Weekly: make([]schema.PercentChange, 0, schema.WeeksInSummary)}

	if len(series) == 0 {
		for i := range schema.WeeksInSummary {
			start := weekStart.Add(-time.Duration(i) * Week)
			summary.Weekly = append(summary.Weekly, schema.PercentChange{
				Date:    start.Add(Week),
				ByCrate: make(schema.CrateValues),
			})
		}
		summary.Total = schema.PercentChange{Date: lastDate.Add(Week), ByCrate: make(schema.CrateValues)}
		padBenchmarks(summary.Weekly, benchmarks)
		return summary, nil
	}

	for i := range schema.WeeksInSummary {
		start := weekStart.Add(-time.Duration(i) * Week)
		end := start.Add(Week)

		startIdx := IndexIn(series, start)
		endIdx := IndexIn(series, end)
		if startIdx == endIdx {
			if startIdx == 0 {
				log.WithFields(logrus.Fields{
					"week":       i,
					"week_start": start.Format(time.DateOnly),
					"first_run":  series[0].Date.Format(time.DateOnly),
				}).Error("Week has no earlier run to compare against")
				return schema.Summary{}, fmt.Errorf("%w: week starting %s has no earlier run to compare against",
					ErrInternalInvariant, start.Format(time.DateOnly))
			}
			startIdx--
		}

		change, err := compareAt(series, startIdx, start, endIdx, end)
		if err != nil {
			return schema.Summary{}, err
		}
		summary.Weekly = append(summary.Weekly, change)
	}

	start := weekStart.Add(-totalHorizonWeeks * Week)
	end := lastDate.Add(Week)
	total, err := compareAt(series, IndexIn(series, start), start, IndexIn(series, end), end)
	if err != nil {
		return schema.Summary{}, err
	}
	summary.Total = total
	log.WithField("runs", len(series)).Debug("Computed summary")

	padBenchmarks(summary.Weekly, benchmarks)
	return summary, nil
}

// compareAt builds the median windows at both indexes and compares them.
func compareAt(series []schema.Run, startIdx int, start time.Time, endIdx int, end time.Time) (schema.PercentChange, error) {
	before, err := NewMedianWindow(series, startIdx, start)
	if err != nil {
		return schema.PercentChange{}, err
	}
	after, err := NewMedianWindow(series, endIdx, end)
	if err != nil {
		return schema.PercentChange{}, err
	}
	return compareWindows(before, after), nil
}

// padBenchmarks adds an empty entry for every benchmark missing from a week.
func padBenchmarks(weeks []schema.PercentChange, benchmarks []string) {
	for _, week := range weeks {
		for _, name := range benchmarks {
			if _, ok := week.ByCrate[name]; !ok {
				week.ByCrate[name] = make(schema.PhaseValues)
			}
		}
	}
}
