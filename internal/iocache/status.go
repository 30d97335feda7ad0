package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/perfhist/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus prints parse cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", status.LastEntryTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeFormat))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintHistoryStatus prints load history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Loads: %d\n", status.TotalLoads)
	if status.TotalLoads > 0 {
		_, _ = fmt.Fprintf(w, "Last Load ID: %d\n", status.LastLoadID)
		_, _ = fmt.Fprintf(w, "Last Load: %s\n", status.LastLoadTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Load: %s\n", status.OldestLoadTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Total Files Read: %d\n", status.TotalFilesRead)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
