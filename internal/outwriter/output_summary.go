package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSummary outputs the pp overview in the configured format.
func PrintSummary(sum schema.Summary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, sum)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, sum, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errUnsupportedParquet("summaries")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, sum, cfg, duration)
		}, "Wrote table")
	}
}

func writeSummaryCSV(w io.Writer, sum schema.Summary, cfg *contract.Config) error {
	fmtFloat, fmtMetric := createFormatters(cfg.Precision)
	return writeCSVWithHeader(w, []string{"tag", "count", "pp", "pp_pct", "count_pct"}, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"ALL", strconv.Itoa(sum.Total), fmtFloat(sum.PP), "", ""}); err != nil {
			return err
		}
		for _, t := range sum.Tags {
			rec := []string{t.Tag, strconv.Itoa(t.Count), fmtFloat(t.PP), fmtMetric(t.PPPct), fmtMetric(t.CountPct)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummaryTable(w io.Writer, sum schema.Summary, cfg *contract.Config, duration time.Duration) error {
	lines := []string{
		fmt.Sprintf("🎯 Scores: %s (%s passed)", humanize.Comma(int64(sum.Total)), humanize.Comma(int64(sum.Passed))),
		fmt.Sprintf("⭐ PP: %s", humanize.CommafWithDigits(sum.PP, cfg.Precision)),
		fmt.Sprintf("📈 PP at 100%% / 92%% / 81%% / 67%%: %s / %s / %s / %s",
			humanize.CommafWithDigits(sum.PP100, cfg.Precision),
			humanize.CommafWithDigits(sum.PP92, cfg.Precision),
			humanize.CommafWithDigits(sum.PP81, cfg.Precision),
			humanize.CommafWithDigits(sum.PP67, cfg.Precision)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	fmtFloat, _ := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tag", "Count", "PP", "PP Share", "Count Share", ""})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, t := range sum.Tags {
		data = append(data, []string{
			t.Tag,
			strconv.Itoa(t.Count),
			fmtFloat(t.PP),
			fmtPercent(t.PPPct, cfg.Precision),
			fmtPercent(t.CountPct, cfg.Precision),
			shareBar(t.PPPct),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Summary built in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

const shareBarWidth = 20

// shareBar draws a pp share as a fixed-width bar.
func shareBar(m schema.Metric) string {
	filled := schema.PositivePercent(float64(m), 0, 1) * shareBarWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", shareBarWidth-filled)
}
