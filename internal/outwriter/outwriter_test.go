package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   file,
		Precision:    2,
		Workers:      4,
		Width:        160,
		UseColors:    false,
		Location:     time.UTC,
		StoreBackend: schema.FileBackend,
	}
}

func sampleRows() []schema.ViewRow {
	pp := 150.0
	return []schema.ViewRow{
		{
			CompletedScoreInfo: schema.CompletedScoreInfo{
				SimpleScoreInfo: schema.SimpleScoreInfo{
					ScoreID:    "200",
					BeatmapID:  75,
					UserID:     7,
					TotalScore: 500000,
					Accuracy:   0.9812,
					MaxCombo:   300,
					Passed:     true,
					PP:         &pp,
					EndedAt:    time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
				},
				Info:       "Artist - Title (Mapper) [Insane]",
				Difficulty: schema.DifficultyAttributes{StarRating: 5.12, MaxCombo: 320},
				Ref100:     schema.PerformanceAttributes{Total: 200},
			},
			TimeOfDay: 45000,
			PPPct:     0.75,
			ComboPct:  schema.Metric(300.0 / 320.0),
			Density:   schema.Missing(),
			ModsText:  "Hidden; Double Time (1.5x)",
			ScoreNF:   500000,
			Flagged:   []string{"density"},
		},
		{
			CompletedScoreInfo: schema.CompletedScoreInfo{
				SimpleScoreInfo: schema.SimpleScoreInfo{
					ScoreID:   "100",
					BeatmapID: 76,
					UserID:    7,
					Accuracy:  0.9,
					MaxCombo:  10,
					EndedAt:   time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
				},
				Info: "Other - Song (Someone) [Hard]",
			},
			PPPct: schema.Missing(),
		},
	}
}

func TestPrintViewJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	err := PrintView(sampleRows(), testConfig(schema.JSONOut, path), time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 2)

	assert.Equal(t, "200", out[0]["score_id"])
	assert.Equal(t, 0.75, out[0]["pp_pct"])
	assert.Nil(t, out[0]["density"])
	assert.Equal(t, []any{"density"}, out[0]["flagged"])
	assert.Nil(t, out[1]["pp_pct"])
}

func TestWriteViewCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeViewCSV(&buf, sampleRows(), testConfig(schema.CSVOut, "")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, viewCSVHeader, records[0])

	col := func(name string) int {
		for i, h := range viewCSVHeader {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	first := records[1]
	assert.Equal(t, "200", first[col("score_id")])
	assert.Equal(t, "150.00", first[col("pp")])
	assert.Equal(t, "0.75", first[col("pp_pct")])
	assert.Equal(t, "", first[col("density")])
	assert.Equal(t, "Fair", first[col("label")])
	assert.Equal(t, "density", first[col("flagged")])

	second := records[2]
	assert.Equal(t, "", second[col("pp")])
	assert.Equal(t, contract.NoneValue, second[col("label")])
}

func TestWriteViewTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeViewTable(&buf, sampleRows(), testConfig(schema.TextOut, ""), time.Second))

	out := buf.String()
	assert.Contains(t, out, "Artist - Title (Mapper) [Insane]")
	assert.Contains(t, out, "5.12★")
	assert.Contains(t, out, "300/320")
	assert.Contains(t, out, "10/0 ✗")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "Showing 2 scores (total pp: 150.00)")
	assert.Contains(t, out, "Store backend: file")
}

func TestPrintViewParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.parquet")
	require.NoError(t, PrintView(sampleRows(), testConfig(schema.ParquetOut, path), time.Second))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPrintSyncReports(t *testing.T) {
	reports := []schema.SyncReport{
		{
			UserID:           7,
			Username:         "peppy",
			FetchedCount:     120,
			LocalCountBefore: 100,
			NewCount:         20,
			CompletedCount:   19,
			Failed:           []schema.ScoreFailure{{ScoreID: "42", BeatmapID: 9, Reason: "beatmap 9: not found"}},
		},
	}

	t.Run("table lists failures", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSyncTable(&buf, reports, testConfig(schema.TextOut, ""), time.Second))
		out := buf.String()
		assert.Contains(t, out, "peppy")
		assert.Contains(t, out, "✗ score 42 (beatmap 9): beatmap 9: not found")
		assert.Contains(t, out, "with 4 workers")
	})

	t.Run("csv counts failures", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSyncCSV(&buf, reports))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "7,peppy,120,100,20,19,1", lines[1])
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.json")
		require.NoError(t, PrintSyncReports(reports, testConfig(schema.JSONOut, path), time.Second))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var out []schema.SyncReport
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, reports, out)
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		err := PrintSyncReports(reports, testConfig(schema.ParquetOut, "x.parquet"), time.Second)
		assert.ErrorContains(t, err, "parquet output is not supported")
	})
}

func TestPrintSummary(t *testing.T) {
	sum := schema.Summary{
		Total:  4,
		Passed: 3,
		PP:     1234.5,
		PP100:  2000,
		Tags: []schema.TagSummary{
			{Tag: "HD", Count: 2, PP: 617.25, PPPct: 0.5, CountPct: 0.5},
			{Tag: "Speed_Down", Count: 0, PP: 0, PPPct: 0, CountPct: 0},
		},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummaryTable(&buf, sum, testConfig(schema.TextOut, ""), time.Second))
		out := buf.String()
		assert.Contains(t, out, "Scores: 4 (3 passed)")
		assert.Contains(t, out, "PP: 1,234.5")
		assert.Contains(t, out, "50.00%")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummaryCSV(&buf, sum, testConfig(schema.CSVOut, "")))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"ALL", "4", "1234.50", "", ""}, records[1])
		assert.Equal(t, []string{"HD", "2", "617.25", "0.50", "0.50"}, records[2])
	})
}

func TestShareBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", shareBarWidth), shareBar(schema.Missing()))
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), shareBar(0.5))
	assert.Equal(t, strings.Repeat("█", shareBarWidth), shareBar(1.7))
}

func TestPrintUsers(t *testing.T) {
	rank := 12345
	users := []schema.User{
		{ID: 2, Username: "peppy", CountryCode: "AU", IsOnline: true, PP: 1500.25, GlobalRank: &rank},
		{ID: 3, Username: "quiet", CountryCode: "JP"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeUsersTable(&buf, users, testConfig(schema.TextOut, ""), time.Second))
		out := buf.String()
		assert.Contains(t, out, "#12,345")
		assert.Contains(t, out, "1,500.25")
		assert.Contains(t, out, "Showing 2 users")
	})

	t.Run("csv keeps missing ranks empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeUsersCSV(&buf, users, testConfig(schema.CSVOut, "")))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "12345", records[1][7])
		assert.Equal(t, "", records[2][7])
	})
}

func TestFmtPercent(t *testing.T) {
	tests := []struct {
		name      string
		m         schema.Metric
		precision int
		expected  string
	}{
		{"half", 0.5, 0, "50%"},
		{"precision", 0.12345, 2, "12.35%"},
		{"missing", schema.Missing(), 2, contract.NoneValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fmtPercent(tt.m, tt.precision))
		})
	}
}

func TestGetMaxInfoWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{"narrow clamps to minimum", 60, 20},
		{"medium", 150, 55},
		{"wide clamps to maximum", 400, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getMaxInfoWidth(&contract.Config{Width: tt.width}))
		})
	}
}

func TestFormatStars(t *testing.T) {
	assert.Equal(t, "5.12★", formatStars(5.12, &contract.Config{}))
	colored := formatStars(5.12, &contract.Config{UseColors: true})
	assert.Contains(t, colored, "5.12★")
}
