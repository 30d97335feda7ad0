package core

import (
	"testing"
	"time"

	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_FullCompiler(t *testing.T) {
	date := time.Date(2016, 3, 14, 15, 32, 45, 0, time.UTC)
	data := makeDocument(t, "abc", date,
		crateDoc{
			Crate:  "serde",
			Total:  10,
			Phases: map[string]float64{"typeck": 4, "codegen": 6},
			RSS:    map[string]uint64{"typeck": 300, "codegen": 500},
		},
		crateDoc{
			Crate:  "regex",
			Total:  5,
			Phases: map[string]float64{"typeck": 5},
			RSS:    map[string]uint64{"typeck": 900},
		},
	)

	run, err := ParseDocument(documentName("rustc", date), data, DefaultCompilerName)
	require.NoError(t, err)
	assert.Equal(t, schema.FullCompilerKind, run.Kind)
	assert.Equal(t, "abc", run.Commit)
	assert.True(t, date.Equal(run.Date))

	serde := run.ByCrate["serde"]
	assert.InDelta(t, 4.0, serde["typeck"].Time, 1e-9)
	assert.InDelta(t, 40.0, serde["typeck"].Percent, 1e-9)
	require.NotNil(t, serde["typeck"].Memory)
	assert.Equal(t, uint64(300), *serde["typeck"].Memory)

	// Synthetic per-crate total
	assert.InDelta(t, 100.0, serde[schema.TotalName].Percent, 1e-9)
	assert.InDelta(t, 10.0, serde[schema.TotalName].Time, 1e-9)
	assert.Equal(t, uint64(500), *serde[schema.TotalName].Memory)

	// Synthetic total crate: times sum, memory is the maximum
	total, ok := run.ByCrate[schema.TotalName]
	require.True(t, ok)
	assert.InDelta(t, 15.0, total[schema.TotalName].Time, 1e-9)
	assert.Equal(t, uint64(900), *total[schema.TotalName].Memory)
	assert.InDelta(t, 9.0, total["typeck"].Time, 1e-9)
	assert.InDelta(t, 60.0, total["typeck"].Percent, 1e-9)
	assert.InDelta(t, 6.0, total["codegen"].Time, 1e-9)
	assert.Equal(t, uint64(900), *total["typeck"].Memory)
}

func TestParseDocument_TotalAggregation(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data := makeDocument(t, "x", date,
		crateDoc{Crate: "a", Total: 1.5, Phases: map[string]float64{"p": 1.5}, RSS: map[string]uint64{"p": 10}},
		crateDoc{Crate: "b", Total: 2.5, Phases: map[string]float64{"p": 2.5}, RSS: map[string]uint64{"p": 30}},
		crateDoc{Crate: "c", Total: 3.0, Phases: map[string]float64{"p": 3.0}},
	)
	run, err := ParseDocument(documentName("rustc", date), data, DefaultCompilerName)
	require.NoError(t, err)

	var sum float64
	var peak uint64
	for crate, phases := range run.ByCrate {
		if crate == schema.TotalName {
			continue
		}
		sum += phases[schema.TotalName].Time
		peak = max(peak, *phases[schema.TotalName].Memory)
	}
	total := run.ByCrate[schema.TotalName][schema.TotalName]
	assert.InDelta(t, sum, total.Time, 1e-9)
	assert.Equal(t, peak, *total.Memory)

	// A crate without memory figures reports 0 for its total
	assert.Equal(t, uint64(0), *run.ByCrate["c"][schema.TotalName].Memory)
	assert.Nil(t, run.ByCrate["c"]["p"].Memory)
}

func TestParseDocument_Benchmark(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data := makeDocument(t, "x", date, crateDoc{Crate: "html5ever", Total: 2, Phases: map[string]float64{"p": 2}})
	run, err := ParseDocument(documentName("html5ever", date), data, DefaultCompilerName)
	require.NoError(t, err)
	assert.Equal(t, schema.BenchmarkKind, run.Kind)
	assert.NotContains(t, run.ByCrate, schema.TotalName)
	assert.Contains(t, run.ByCrate, "html5ever")

	// A custom compiler name changes which test counts as full-compiler
	run, err = ParseDocument(documentName("html5ever", date), data, "html5ever")
	require.NoError(t, err)
	assert.Equal(t, schema.FullCompilerKind, run.Kind)
}

func TestParseDocument_DuplicateCrateLaterWins(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data := makeDocument(t, "x", date,
		crateDoc{Crate: "a", Total: 1, Phases: map[string]float64{"first": 1}},
		crateDoc{Crate: "a", Total: 2, Phases: map[string]float64{"second": 2}},
	)
	run, err := ParseDocument(documentName("rustc", date), data, DefaultCompilerName)
	require.NoError(t, err)
	assert.Contains(t, run.ByCrate["a"], "second")
	assert.NotContains(t, run.ByCrate["a"], "first")
	assert.InDelta(t, 2.0, run.ByCrate["a"][schema.TotalName].Time, 1e-9)
}

func TestParseDocument_FilenameDateFallback(t *testing.T) {
	data := []byte(`{"header":{"commit":"x","date":"not a date"},"times":[{"crate":"a","total":1,"times":{}}]}`)
	run, err := ParseDocument("rustc--2016-08-06-21-59-30.json", data, DefaultCompilerName)
	require.NoError(t, err)
	assert.True(t, time.Date(2016, 8, 6, 21, 59, 30, 0, time.UTC).Equal(run.Date))

	_, err = ParseDocument("rustc--nodate.json", data, DefaultCompilerName)
	assert.ErrorIs(t, err, ErrUnresolvableDate)
}

func TestParseDocument_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"not json", "{"},
		{"no times", `{"header":{"commit":"x","date":"Mon Mar 14 08:32:45 2016 -0700"},"times":[]}`},
		{"no commit", `{"header":{"date":"Mon Mar 14 08:32:45 2016 -0700"},"times":[{"crate":"a","total":1}]}`},
		{"no crate", `{"header":{"commit":"x","date":"Mon Mar 14 08:32:45 2016 -0700"},"times":[{"total":1}]}`},
		{"wrong type", `{"header":{"commit":"x","date":"Mon Mar 14 08:32:45 2016 -0700"},"times":[{"crate":"a","total":"slow"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument("rustc--2016-08-06-21-59-30.json", []byte(tt.data), DefaultCompilerName)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}
