package core

import "github.com/huangsam/perfhist/schema"

// percentChange returns the change from previous to current as a percentage of previous.
func percentChange(previous, current float64) float64 {
	return (current - previous) / previous * 100
}

// compareWindows compares two median windows, start before end.
// Only crates present in both windows appear in the result, and within them only
// phases present in both whose medians are strictly positive on both sides.
func compareWindows(start, end schema.MedianWindow) schema.PercentChange {
	result := schema.PercentChange{Date: end.Date, ByCrate: make(schema.CrateValues)}
	for crate, before := range start.ByCrate {
		after, ok := end.ByCrate[crate]
		if !ok {
			continue
		}
		changes := make(schema.PhaseValues)
		for phase, prev := range before {
			cur, ok := after[phase]
			if !ok {
				continue
			}
			if prev > 0 && cur > 0 {
				changes[phase] = percentChange(prev, cur)
			}
		}
		result.ByCrate[crate] = changes
	}
	return result
}
