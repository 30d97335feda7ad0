package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/perfhist/schema"
)

// medianWindowSize is the number of runs, ending at the window index, that feed each median.
const medianWindowSize = 3

// NewMedianWindow computes the per-crate per-phase median time over the runs at idx,
// idx-1 and idx-2 (those that exist). The result is labelled with date.
func NewMedianWindow(series []schema.Run, idx int, date time.Time) (schema.MedianWindow, error) {
	values := make(map[string]map[string][]float64)
	for back := range medianWindowSize {
		i := idx - back
		if i < 0 || i >= len(series) {
			continue
		}
		for crate, timings := range series[i].ByCrate {
			phases, ok := values[crate]
			if !ok {
				phases = make(map[string][]float64, len(timings))
				values[crate] = phases
			}
			for phase, timing := range timings {
				phases[phase] = append(phases[phase], timing.Time)
			}
		}
	}

	window := schema.MedianWindow{Date: date, ByCrate: make(schema.CrateValues, len(values))}
	for crate, phases := range values {
		medians := make(schema.PhaseValues, len(phases))
		for phase, times := range phases {
			m, err := median(times)
			if err != nil {
				return schema.MedianWindow{}, fmt.Errorf("%s/%s: %w", crate, phase, err)
			}
			medians[phase] = m
		}
		window.ByCrate[crate] = medians
	}
	return window, nil
}

// median returns values[len/2] of the sorted values, the upper median for even counts.
func median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: median of no values", ErrInternalInvariant)
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2], nil
}
