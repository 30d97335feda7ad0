// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRuns prints runs using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.Run, cfg *contract.Config, duration time.Duration) error {
	return WriteRunResults(runs, cfg, duration)
}

// WriteBoundary prints a single run with its per-crate per-phase timings.
func (ow *OutWriter) WriteBoundary(run schema.Run, cfg *contract.Config) error {
	return WriteBoundaryResult(run, cfg)
}

// WriteSummary prints a summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary schema.Summary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummaryResults(summary, cfg, duration)
}

// WriteInfo prints store information using the configured output format.
func (ow *OutWriter) WriteInfo(info schema.InfoResult, cfg *contract.Config) error {
	return WriteInfoResults(info, cfg)
}

// GetMaxTableNameWidth calculates the maximum width for crate names in table output
// based on terminal width and the width taken by the other columns.
func GetMaxTableNameWidth(cfg *contract.Config, fixedWidth int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - fixedWidth - 20
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}
