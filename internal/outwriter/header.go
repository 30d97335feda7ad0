package outwriter

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/huangsam/perfhist/internal/contract"
)

// LogQueryHeader prints a concise, 2-line header before query results.
func LogQueryHeader(w io.Writer, cfg *contract.Config) {
	dirName := filepath.Base(cfg.DataDir)
	if dirName == "" || dirName == "." {
		dirName = "current"
	}

	// Line 1: the data source and series
	_, _ = fmt.Fprintf(w, "🔎 Data: %s (Kind: %s)\n", dirName, cfg.Kind)

	// Line 2: the requested date range
	_, _ = fmt.Fprintf(w, "📅 Range: %s → %s\n", formatBound(cfg.Start, "earliest"), formatBound(cfg.End, "latest"))
}
