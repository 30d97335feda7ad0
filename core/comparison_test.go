package core

import (
	"testing"

	"github.com/huangsam/perfhist/schema"
	"github.com/stretchr/testify/assert"
)

func TestCompareWindows(t *testing.T) {
	start := schema.MedianWindow{
		Date: day(1),
		ByCrate: schema.CrateValues{
			"a":    {"up": 100, "down": 50, "zero_before": 0, "zero_after": 10, "only_before": 1, "neg_before": -5, "neg_after": 5},
			"gone": {"p": 1},
		},
	}
	end := schema.MedianWindow{
		Date: day(8),
		ByCrate: schema.CrateValues{
			"a":   {"up": 110, "down": 25, "zero_before": 5, "zero_after": 0, "only_after": 1, "neg_before": 5, "neg_after": -5},
			"new": {"p": 1},
		},
	}

	got := compareWindows(start, end)
	assert.True(t, day(8).Equal(got.Date))
	assert.InDelta(t, 10.0, got.ByCrate["a"]["up"], 1e-9)
	assert.InDelta(t, -50.0, got.ByCrate["a"]["down"], 1e-9)
	assert.NotContains(t, got.ByCrate["a"], "zero_before")
	assert.NotContains(t, got.ByCrate["a"], "zero_after")
	assert.NotContains(t, got.ByCrate["a"], "neg_before")
	assert.NotContains(t, got.ByCrate["a"], "neg_after")
	assert.NotContains(t, got.ByCrate["a"], "only_before")
	assert.NotContains(t, got.ByCrate["a"], "only_after")
	assert.NotContains(t, got.ByCrate, "gone")
	assert.NotContains(t, got.ByCrate, "new")
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, percentChange(100, 110), 1e-9)
	assert.InDelta(t, -10.0, percentChange(100, 90), 1e-9)
	assert.InDelta(t, 0.0, percentChange(7, 7), 1e-9)
}
