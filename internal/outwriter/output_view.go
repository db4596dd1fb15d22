package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/parquet"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const endedAtFormat = "2006-01-02 15:04"

// viewCSVHeader lists the CSV columns of a view, in order.
var viewCSVHeader = []string{
	"score_id", "user_id", "beatmap_id", "ended_at", "ts_seconds", "info",
	"mods", "only_common_mods", "passed", "accuracy", "max_combo", "total_score", "score_nf",
	"cs", "ar", "od", "bpm", "hit_length", "star_rating", "b_max_combo",
	"pp", "pp_100", "pp_92", "pp_81", "pp_67",
	"pp_pct", "pp_aim_pct", "pp_speed_pct", "pp_accuracy_pct",
	"pp_92pct", "pp_81pct", "pp_67pct", "combo_pct",
	"density", "aim_density_ratio", "speed_density_ratio", "aim_speed_ratio",
	"label", "flagged",
}

// PrintView outputs view rows, dispatching based on the output format configured.
func PrintView(rows []schema.ViewRow, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeViewCSV(w, rows, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteViewParquet(parquet.ConvertViewRows(rows), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeViewTable(w, rows, cfg, duration)
		}, "Wrote table")
	}
}

func writeViewCSV(w io.Writer, rows []schema.ViewRow, cfg *contract.Config) error {
	fmtFloat, fmtMetric := createFormatters(cfg.Precision)
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return writeCSVWithHeader(w, viewCSVHeader, func(cw *csv.Writer) error {
		for _, r := range rows {
			pp := ""
			if r.PP != nil {
				pp = fmtFloat(*r.PP)
			}
			rec := []string{
				r.ScoreID,
				strconv.Itoa(r.UserID),
				strconv.Itoa(r.BeatmapID),
				r.EndedAt.In(loc).Format(time.RFC3339),
				strconv.Itoa(r.TimeOfDay),
				r.Info,
				r.ModsText,
				strconv.FormatBool(r.OnlyCommonMods),
				strconv.FormatBool(r.Passed),
				fmtFloat(r.Accuracy),
				strconv.Itoa(r.MaxCombo),
				strconv.FormatInt(r.TotalScore, 10),
				strconv.FormatInt(r.ScoreNF, 10),
				fmtFloat(r.Beatmap.CS),
				fmtFloat(r.Beatmap.AR),
				fmtFloat(r.Beatmap.Accuracy),
				fmtFloat(r.Beatmap.BPM),
				strconv.Itoa(r.Beatmap.HitLength),
				fmtFloat(r.Difficulty.StarRating),
				strconv.Itoa(r.Difficulty.MaxCombo),
				pp,
				fmtFloat(r.Ref100.Total),
				fmtFloat(r.Ref92.Total),
				fmtFloat(r.Ref81.Total),
				fmtFloat(r.Ref67.Total),
				fmtMetric(r.PPPct),
				fmtMetric(r.PPAimPct),
				fmtMetric(r.PPSpeedPct),
				fmtMetric(r.PPAccuracyPct),
				fmtMetric(r.PP92Pct),
				fmtMetric(r.PP81Pct),
				fmtMetric(r.PP67Pct),
				fmtMetric(r.ComboPct),
				fmtMetric(r.Density),
				fmtMetric(r.AimDensityRatio),
				fmtMetric(r.SpeedDensityRatio),
				fmtMetric(r.AimSpeedRatio),
				contract.GetPlainLabel(float64(r.PPPct)),
				strings.Join(r.Flagged, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeViewTable(w io.Writer, rows []schema.ViewRow, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	infoWidth := getMaxInfoWidth(cfg)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Ended", "Beatmap", "Mods", "Stars", "Acc", "Combo", "PP", "PP%", "Label"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	totalPP := 0.0
	for _, r := range rows {
		pp := contract.NoneValue
		if r.PP != nil {
			pp = fmtFloat(*r.PP)
			totalPP += *r.PP
		}
		label := contract.GetPlainLabel(float64(r.PPPct))
		if cfg.UseColors {
			label = contract.GetColorLabel(float64(r.PPPct))
		}
		status := ""
		if !r.Passed {
			status = " ✗"
		}
		data = append(data, []string{
			r.EndedAt.In(loc).Format(endedAtFormat),
			contract.TruncateText(r.Info, infoWidth),
			r.ModsText,
			formatStars(r.Difficulty.StarRating, cfg),
			fmt.Sprintf("%.2f%%", r.Accuracy*100),
			fmt.Sprintf("%d/%d%s", r.MaxCombo, r.Difficulty.MaxCombo, status),
			pp,
			fmtPercent(r.PPPct, 0),
			label,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d scores (total pp: %s)\n", len(rows), fmtFloat(totalPP)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "View built in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// formatStars renders the star rating, coloured like the game when colours are on.
func formatStars(stars float64, cfg *contract.Config) string {
	text := fmt.Sprintf("%.2f★", stars)
	if !cfg.UseColors {
		return text
	}
	r, g, b := schema.StarRatingRGB(stars)
	return color.RGB(r, g, b).Sprint(text)
}
