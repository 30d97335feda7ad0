package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/huangsam/perfhist/schema"
)

// DefaultCompilerName is the test name reserved for full-compiler runs.
const DefaultCompilerName = "rustc"

// document is the on-disk shape of one test execution.
type document struct {
	Header struct {
		Commit *string `json:"commit"`
		Date   string  `json:"date"`
	} `json:"header"`
	Times []timingEntry `json:"times"`
}

// timingEntry holds one crate's measurements inside a document.
type timingEntry struct {
	Crate string                     `json:"crate"`
	Total float64                    `json:"total"`
	Times map[string]phaseEntry      `json:"times"`
	RSS   map[string]json.RawMessage `json:"rss"`
}

// phaseEntry holds one phase's share of a crate's compile.
type phaseEntry struct {
	Percent float64 `json:"percent"`
	Time    float64 `json:"time"`
}

// memory returns the entry's memory figure for a phase, if it is an unsigned integer.
func (e timingEntry) memory(phase string) *uint64 {
	raw, ok := e.RSS[phase]
	if !ok {
		return nil
	}
	return parseMemory(raw)
}

// peakMemory returns the largest unsigned integer memory figure of the entry, or 0.
func (e timingEntry) peakMemory() uint64 {
	var peak uint64
	for _, raw := range e.RSS {
		if v := parseMemory(raw); v != nil && *v > peak {
			peak = *v
		}
	}
	return peak
}

// parseMemory reads a JSON number as an unsigned integer.
func parseMemory(raw json.RawMessage) *uint64 {
	v, err := strconv.ParseUint(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDocument turns one document into a run.
// The filename supplies the test name and, when the header date is unusable, the date.
// compilerName is the test name marking full-compiler runs.
func ParseDocument(filename string, data []byte, compilerName string) (*schema.Run, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedInput, filename)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, filename, err)
	}
	if len(doc.Times) == 0 {
		return nil, fmt.Errorf("%w: %s has no timings", ErrMalformedInput, filename)
	}
	if doc.Header.Commit == nil {
		return nil, fmt.Errorf("%w: %s has no commit", ErrMalformedInput, filename)
	}
	for i, entry := range doc.Times {
		if entry.Crate == "" {
			return nil, fmt.Errorf("%w: %s timing %d has no crate", ErrMalformedInput, filename, i)
		}
	}

	testName, err := TestName(filename)
	if err != nil {
		return nil, err
	}

	date, err := ParseHeaderDate(doc.Header.Date)
	if err != nil {
		date, err = ParseFilenameDate(filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvableDate, filename)
		}
	}

	if compilerName == "" {
		compilerName = DefaultCompilerName
	}
	isFullCompiler := testName == compilerName
	kind := schema.BenchmarkKind
	if isFullCompiler {
		kind = schema.FullCompilerKind
	}

	return &schema.Run{
		Date:    date,
		Commit:  *doc.Header.Commit,
		Kind:    kind,
		ByCrate: makeTimes(doc.Times, isFullCompiler),
	}, nil
}
