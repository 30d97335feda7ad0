package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/perfhist/schema"
	"github.com/sirupsen/logrus"
)

// Trend label constants.
const (
	RegressionValue  = "Regression"  // Slower than before
	ImprovementValue = "Improvement" // Faster than before
	StableValue      = "Stable"      // Within threshold
)

// Color variables for console output.
var (
	RegressionColor  = color.New(color.FgRed, color.Bold)
	ImprovementColor = color.New(color.FgGreen)
	StableColor      = color.New(color.FgCyan)
)

// GetTrend classifies a percent change against a threshold magnitude.
// Positive changes mean the later window took longer.
func GetTrend(pct, threshold float64) schema.Trend {
	switch {
	case math.IsNaN(pct) || math.Abs(pct) < threshold:
		return schema.StableTrend
	case pct > 0:
		return schema.RegressionTrend
	default:
		return schema.ImprovementTrend
	}
}

// GetPlainLabel returns a plain text label for a percent change. This is the core
// logic used for CSV, JSON, and table printing.
func GetPlainLabel(pct, threshold float64) string {
	switch GetTrend(pct, threshold) {
	case schema.RegressionTrend:
		return RegressionValue
	case schema.ImprovementTrend:
		return ImprovementValue
	default:
		return StableValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(pct, threshold float64) string {
	text := GetPlainLabel(pct, threshold)

	switch text {
	case RegressionValue:
		return RegressionColor.Sprint(text)
	case ImprovementValue:
		return ImprovementColor.Sprint(text)
	default:
		return StableColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. Empty means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// NewLogger returns a text logger writing to stderr at the given level.
func NewLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: DateTimeFormat,
	})
	log.SetLevel(level)
	return log
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the parse cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".perfhist_cache.db"
	}
	return filepath.Join(homeDir, ".perfhist_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for load history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".perfhist_history.db"
	}
	return filepath.Join(homeDir, ".perfhist_history.db")
}

// TruncateName truncates a name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// resolveDataDir makes the data directory absolute and checks that it exists.
func resolveDataDir(cfg *Config, input *ConfigRawInput) error {
	dir := input.DataDirStr
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("data directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", abs)
	}
	cfg.DataDir = abs
	return nil
}
