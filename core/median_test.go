package core

import (
	"testing"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(times ...float64) []schema.Run {
	runs := make([]schema.Run, 0, len(times))
	for i, v := range times {
		runs = append(runs, schema.Run{
			Date:    day(i + 1),
			Kind:    schema.FullCompilerKind,
			ByCrate: schema.CrateTimings{"a": {"p": {Time: v}}},
		})
	}
	return runs
}

func TestNewMedianWindow(t *testing.T) {
	label := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		series   []schema.Run
		idx      int
		expected float64
	}{
		{"full window takes the middle", seriesOf(10, 20, 30), 2, 20},
		{"unsorted window is sorted first", seriesOf(30, 10, 20), 2, 20},
		{"two runs take the upper value", seriesOf(10, 20), 1, 20},
		{"single run", seriesOf(10, 20, 30), 0, 10},
		{"only the last three runs count", seriesOf(1000, 10, 20, 30), 3, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewMedianWindow(tt.series, tt.idx, label)
			require.NoError(t, err)
			assert.True(t, label.Equal(w.Date))
			assert.InDelta(t, tt.expected, w.ByCrate["a"]["p"], 1e-9)
		})
	}
}

func TestNewMedianWindow_PartialCrates(t *testing.T) {
	series := seriesOf(10, 20, 30)
	series[2].ByCrate["b"] = schema.PhaseTimings{"q": {Time: 5}}

	w, err := NewMedianWindow(series, 2, day(3))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, w.ByCrate["b"]["q"], 1e-9)
	assert.Len(t, w.ByCrate, 2)
}

func TestMedian(t *testing.T) {
	m, err := median([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m, 1e-9)

	m, err = median([]float64{4, 1, 3, 2})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, m, 1e-9)

	_, err = median(nil)
	assert.ErrorIs(t, err, ErrInternalInvariant)
}
