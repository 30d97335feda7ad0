package core

import "github.com/huangsam/perfhist/schema"

// makeTimes builds the crate to phase to timing mapping of a run.
// Every crate gets a synthetic "total" phase. Full-compiler runs also get a
// synthetic "total" crate aggregating every phase across crates: times are
// summed and memory is the running maximum.
func makeTimes(entries []timingEntry, isFullCompiler bool) schema.CrateTimings {
	byCrate := make(schema.CrateTimings, len(entries)+1)
	totals := make(schema.PhaseTimings)

	for _, entry := range entries {
		times := make(schema.PhaseTimings, len(entry.Times)+1)
		for phase, p := range entry.Times {
			times[phase] = schema.Timing{
				Percent: p.Percent,
				Time:    p.Time,
				Memory:  entry.memory(phase),
			}
		}

		peak := entry.peakMemory()
		times[schema.TotalName] = schema.Timing{
			Percent: 100,
			Time:    entry.Total,
			Memory:  &peak,
		}

		for phase, timing := range times {
			agg, ok := totals[phase]
			if !ok {
				var zero uint64
				agg = schema.Timing{Memory: &zero}
			}
			agg.Time += timing.Time
			if timing.Memory != nil && *timing.Memory > *agg.Memory {
				mem := *timing.Memory
				agg.Memory = &mem
			}
			totals[phase] = agg
		}

		// Later entries for the same crate win.
		byCrate[entry.Crate] = times
	}

	if isFullCompiler {
		fillPercents(totals)
		byCrate[schema.TotalName] = totals
	}
	return byCrate
}

// fillPercents sets each aggregated phase's share of the aggregated total time.
func fillPercents(totals schema.PhaseTimings) {
	grand := totals[schema.TotalName].Time
	for phase, timing := range totals {
		switch {
		case phase == schema.TotalName:
			timing.Percent = 100
		case grand > 0:
			timing.Percent = timing.Time / grand * 100
		default:
			timing.Percent = 0
		}
		totals[phase] = timing
	}
}
