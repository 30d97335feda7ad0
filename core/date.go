package core

import (
	"fmt"
	"strings"
	"time"
)

// Week is the length of one summary window.
const Week = 7 * 24 * time.Hour

// Layouts for the dates carried by documents.
const (
	headerDateLayout      = "Mon Jan _2 15:04:05 2006 -0700"
	filenameDateLayout    = "2006-01-02-15-04-05"
	filenameDateLayoutMin = "2006-01-02-15-04"
	filenameSeparator     = "--"
	documentExtension     = ".json"
)

// StartOfWeek truncates t to the preceding Sunday at 00:00 UTC.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// ParseHeaderDate parses a commit-log style date such as "Mon Mar 14 08:32:45 2016 -0700"
// and returns it in UTC.
func ParseHeaderDate(s string) (time.Time, error) {
	t, err := time.Parse(headerDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseFilenameDate extracts the date from a name like "rustc--2016-08-06-21-59-30.json".
// Seconds are optional.
func ParseFilenameDate(filename string) (time.Time, error) {
	sep := strings.Index(filename, filenameSeparator)
	if sep < 0 {
		return time.Time{}, fmt.Errorf("%w: no %q in %s", ErrMalformedInput, filenameSeparator, filename)
	}
	rest := filename[sep+len(filenameSeparator):]
	ext := strings.Index(rest, documentExtension)
	if ext < 0 {
		return time.Time{}, fmt.Errorf("%w: no %q in %s", ErrMalformedInput, documentExtension, filename)
	}
	dateStr := rest[:ext]

	if t, err := time.Parse(filenameDateLayout, dateStr); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(filenameDateLayoutMin, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnresolvableDate, filename)
	}
	return t.UTC(), nil
}

// TestName returns the part of the filename before the first "--".
func TestName(filename string) (string, error) {
	sep := strings.Index(filename, filenameSeparator)
	if sep < 0 {
		return "", fmt.Errorf("%w: no %q in %s", ErrMalformedInput, filenameSeparator, filename)
	}
	return filename[:sep], nil
}
