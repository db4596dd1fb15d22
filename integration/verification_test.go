//go:build integration

// Package integration contains integration tests for osuawa.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bobbycyl/osuawa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentScoresJSON = `[
  {
    "id": 3001,
    "beatmap_id": 75,
    "user_id": 2,
    "ruleset_id": 0,
    "rank": "A",
    "total_score": 812345,
    "accuracy": 0.9634,
    "max_combo": 301,
    "passed": true,
    "pp": 88.5,
    "mods": [{"acronym": "HD"}, {"acronym": "DT", "settings": {"speed_change": 1.3}}],
    "ended_at": "2024-05-01T12:00:00Z",
    "started_at": "2024-05-01T11:57:10Z",
    "statistics": {"great": 290, "ok": 12, "miss": 2, "large_tick_hit": 40, "slider_tail_hit": 60}
  }
]`

const beatmapsJSON = `{
  "beatmaps": [
    {
      "id": 75, "beatmapset_id": 1, "mode": "osu", "difficulty_rating": 2.55, "version": "Normal",
      "accuracy": 6, "ar": 6, "bpm": 160, "cs": 4, "drain": 6, "hit_length": 108, "max_combo": 314,
      "beatmapset": {"id": 1, "artist": "Kenji Ninuma", "title": "DISCO PRINCE", "creator": "peppy"}
    }
  ]
}`

// oracleScript answers every difficulty and performance request with fixed attributes.
const oracleScript = `#!/bin/sh
in=$(cat)
case "$in" in
  *'"kind":"difficulty"'*) echo '{"difficulty":{"star_rating":5.2,"max_combo":314,"aim_difficulty":2.5,"speed_difficulty":2.0}}' ;;
  *) echo '{"performance":{"aim":50,"speed":40,"accuracy":30,"pp":128}}' ;;
esac
`

func newFakeAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/2/osu", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id": 2, "username": "peppy", "statistics": {"pp": 1234.5, "global_rank": 98765}}`)
	})
	mux.HandleFunc("/users/2/scores/recent", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") != "0" {
			_, _ = fmt.Fprint(w, "[]")
			return
		}
		_, _ = fmt.Fprint(w, recentScoresJSON)
	})
	mux.HandleFunc("/beatmaps", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, beatmapsJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestSyncThenView runs a full sync against a fake API and a scripted oracle,
// then reads the stored score back through the view.
func TestSyncThenView(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	home := t.TempDir()
	beatmapDir := filepath.Join(home, "maps")
	require.NoError(t, os.MkdirAll(beatmapDir, 0o755))
	// A present chart file is never downloaded
	require.NoError(t, os.WriteFile(filepath.Join(beatmapDir, "75.osu"), []byte("osu file format v14\n"), 0o644))
	oraclePath := filepath.Join(home, "oracle.sh")
	require.NoError(t, os.WriteFile(oraclePath, []byte(oracleScript), 0o755))

	srv := newFakeAPI(t)
	env := []string{
		"OSUAWA_ACCESS_TOKEN=token",
		"OSUAWA_API_URL=" + srv.URL,
		"OSUAWA_DOWNLOAD_URL=" + srv.URL + "/osu",
		"OSUAWA_BEATMAP_DIR=" + beatmapDir,
		"OSUAWA_ORACLE_COMMAND=sh " + oraclePath,
		"OSUAWA_STORE_BACKEND=file",
		"OSUAWA_STORE_DB_CONNECT=" + filepath.Join(home, "scores"),
		"OSUAWA_CACHE_BACKEND=none",
		"OSUAWA_TIMEZONE=UTC",
	}

	var reports []schema.SyncReport
	_, err := runOsuawa(t, home, env, "sync", "2", "--output", "json", "--output-file", "sync.json")
	require.NoError(t, err)
	readJSON(t, filepath.Join(home, "sync.json"), &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].FetchedCount)
	assert.Equal(t, 1, reports[0].NewCount)
	assert.Equal(t, 1, reports[0].CompletedCount)
	assert.Empty(t, reports[0].Failed)

	t.Run("second sync finds nothing new", func(t *testing.T) {
		_, err := runOsuawa(t, home, env, "sync", "2", "--output", "json", "--output-file", "sync2.json")
		require.NoError(t, err)
		var again []schema.SyncReport
		readJSON(t, filepath.Join(home, "sync2.json"), &again)
		require.Len(t, again, 1)
		assert.Equal(t, 1, again[0].LocalCountBefore)
		assert.Equal(t, 0, again[0].NewCount)
		assert.Equal(t, 0, again[0].CompletedCount)
	})

	t.Run("view reads the completed score", func(t *testing.T) {
		_, err := runOsuawa(t, home, env, "view", "2", "--output", "json", "--output-file", "view.json")
		require.NoError(t, err)
		var rows []map[string]any
		readJSON(t, filepath.Join(home, "view.json"), &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, "3001", rows[0]["score_id"])
		assert.InDelta(t, 128.0, rows[0]["pp"], 1e-9)
		assert.InDelta(t, 1.0, rows[0]["pp_pct"], 1e-9)
		assert.InDelta(t, 12*3600.0, rows[0]["ts_seconds"], 1e-9)
	})

	t.Run("text table renders", func(t *testing.T) {
		out, err := runOsuawa(t, home, env, "view", "2", "--color", "no")
		require.NoError(t, err)
		assert.Contains(t, out, "Kenji Ninuma")
		assert.Contains(t, out, "Showing 1 scores")
	})
}

// TestConfigValidation checks that bad settings fail before any work starts.
func TestConfigValidation(t *testing.T) {
	home := t.TempDir()
	env := []string{"OSUAWA_ACCESS_TOKEN=token", "OSUAWA_STORE_BACKEND=file"}

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"zero limit", []string{"view", "2", "--limit", "0"}, "limit must be greater than 0"},
		{"bad output", []string{"view", "2", "--output", "xml"}, "invalid output format"},
		{"parquet without file", []string{"view", "2", "--output", "parquet"}, "parquet output requires --output-file"},
		{"bad timezone", []string{"summary", "2", "--timezone", "Mars/Olympus"}, "invalid timezone"},
		{"sync without oracle", []string{"sync", "2"}, "oracle-command is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runOsuawa(t, home, env, tt.args...)
			require.Error(t, err)
			assert.Contains(t, out, tt.expected)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := runOsuawa(t, t.TempDir(), nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "osuawa CLI")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
