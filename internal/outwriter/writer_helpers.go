package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
)

// noValue is printed in tables for a missing figure.
const noValue = "-"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "%s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader creates a CSV writer, writes a header, then the data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatter creates the float formatter shared by all output types.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return noValue
		}
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// formatChange formats a percent change with an explicit sign.
func formatChange(fmtFloat func(float64) string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return noValue
	}
	if v >= 0 {
		return "+" + fmtFloat(v) + "%"
	}
	return fmtFloat(v) + "%"
}

// formatBytes renders a memory figure in MiB.
func formatBytes(fmtFloat func(float64) string, rss *uint64) string {
	if rss == nil {
		return noValue
	}
	return fmtFloat(float64(*rss)/(1<<20)) + " MiB"
}

// trendLabel returns the trend label for a change, colored when enabled.
func trendLabel(cfg *contract.Config, pct float64) string {
	if cfg.UseColors {
		return contract.GetColorLabel(pct, cfg.Threshold)
	}
	return contract.GetPlainLabel(pct, cfg.Threshold)
}

// formatBound renders an optional date, or fallback when it is unset.
func formatBound(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(contract.DateTimeFormat)
}
