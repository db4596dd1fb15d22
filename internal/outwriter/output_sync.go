package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSyncReports outputs sync or recompute reports in the configured format.
func PrintSyncReports(reports []schema.SyncReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, reports)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSyncCSV(w, reports)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errUnsupportedParquet("sync reports")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSyncTable(w, reports, cfg, duration)
		}, "Wrote table")
	}
}

// writeSyncCSV writes one line per report. Failures are counted, not listed.
func writeSyncCSV(w io.Writer, reports []schema.SyncReport) error {
	header := []string{"user_id", "username", "fetched", "local_before", "new", "completed", "failed"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			rec := []string{
				strconv.Itoa(r.UserID),
				r.Username,
				strconv.Itoa(r.FetchedCount),
				strconv.Itoa(r.LocalCountBefore),
				strconv.Itoa(r.NewCount),
				strconv.Itoa(r.CompletedCount),
				strconv.Itoa(len(r.Failed)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSyncTable(w io.Writer, reports []schema.SyncReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"User", "Username", "Fetched", "Before", "New", "Completed", "Failed"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	red := fmt.Sprint
	if cfg.UseColors {
		red = color.New(color.FgRed).SprintFunc()
	}

	var data [][]string
	var failures []schema.ScoreFailure
	for _, r := range reports {
		failed := strconv.Itoa(len(r.Failed))
		if len(r.Failed) > 0 {
			failed = red(failed)
		}
		data = append(data, []string{
			strconv.Itoa(r.UserID),
			r.Username,
			strconv.Itoa(r.FetchedCount),
			strconv.Itoa(r.LocalCountBefore),
			strconv.Itoa(r.NewCount),
			strconv.Itoa(r.CompletedCount),
			failed,
		})
		failures = append(failures, r.Failed...)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, f := range failures {
		if _, err := fmt.Fprintf(w, "  ✗ score %s (beatmap %d): %s\n", f.ScoreID, f.BeatmapID, f.Reason); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Sync completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}
