package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/internal/parquet"
)

// ExecuteHistoryExport exports the load history to two Parquet files next to outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalLoads == 0 {
		return errors.New("no load history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total loads: %d\n", status.TotalLoads)
	_, _ = fmt.Fprintf(w, "Total timing records: %d\n", status.TableSizes[runTimingsTable])

	loads, err := store.GetAllLoads()
	if err != nil {
		return fmt.Errorf("failed to retrieve loads: %w", err)
	}
	timings, err := store.GetAllRunTimings()
	if err != nil {
		return fmt.Errorf("failed to retrieve run timings: %w", err)
	}

	loadsFile := outputFile + ".loads.parquet"
	loadRows := parquet.ConvertLoadRecords(loads)
	if err := parquet.WriteLoadsParquet(loadRows, loadsFile); err != nil {
		return fmt.Errorf("failed to write loads: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d loads to: %s\n", len(loadRows), loadsFile)

	timingsFile := outputFile + ".run_timings.parquet"
	timingRows := parquet.ConvertTimingRecords(timings)
	if err := parquet.WriteRunTimingsParquet(timingRows, timingsFile); err != nil {
		return fmt.Errorf("failed to write run timings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d timing records to: %s\n", len(timingRows), timingsFile)
	return nil
}
