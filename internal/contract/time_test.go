package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

// TestParseRelativeTimeUnit covers various valid and invalid cases.
func TestParseRelativeTimeUnit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{name: "plural months mixed case", input: "3 MoNtHs AgO", expected: fixedNow.AddDate(0, -3, 0)},
		{name: "singular week", input: "1 Week Ago", expected: fixedNow.AddDate(0, 0, -7)},
		{name: "ten days upper case", input: "10 DAYS AGO", expected: fixedNow.AddDate(0, 0, -10)},
		{name: "extra whitespace", input: "  2   hours   ago ", expected: fixedNow.Add(-2 * time.Hour)},
		{name: "minutes", input: "45 minutes ago", expected: fixedNow.Add(-45 * time.Minute)},
		{name: "years", input: "1 year ago", expected: fixedNow.AddDate(-1, 0, 0)},
		{name: "unsupported unit", input: "5 seconds ago", expectError: true},
		{name: "missing ago", input: "5 days", expectError: true},
		{name: "negative value", input: "-5 days ago", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, fixedNow)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		got, err := ParseDate("2021-03-14", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("rfc3339 with offset converts to utc", func(t *testing.T) {
		got, err := ParseDate("2021-03-14T10:00:00+02:00", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, 3, 14, 8, 0, 0, 0, time.UTC), got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("date time", func(t *testing.T) {
		got, err := ParseDate("2021-03-14 12:30:00", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, 3, 14, 12, 30, 0, 0, time.UTC), got)
	})

	t.Run("relative", func(t *testing.T) {
		got, err := ParseDate("2 weeks ago", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.AddDate(0, 0, -14), got)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDate("last tuesday", fixedNow)
		assert.Error(t, err)
	})
}

func TestParseOptionalDate(t *testing.T) {
	got, err := parseOptionalDate("   ", fixedNow)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalDate("2020-01-01", fixedNow)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2020, got.Year())
}

// FuzzParseRelativeTime ensures arbitrary input never panics.
func FuzzParseRelativeTime(f *testing.F) {
	for _, seed := range []string{"1 day ago", "3 months ago", "10 YEARS AGO", "", "ago", "99999999999999999999 days ago"} {
		f.Add(seed)
	}
	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseRelativeTime(s, fixedNow)
		_, _ = ParseDate(s, fixedNow)
	})
}
