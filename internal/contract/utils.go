package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Play quality label constants, graded by pp relative to the 100% reference.
const (
	PeakValue   = "Peak"   // Peak value
	StrongValue = "Strong" // Strong value
	FairValue   = "Fair"   // Fair value
	WeakValue   = "Weak"   // Weak value
	NoneValue   = "-"      // Missing reference
)

// Color variables for console output.
var (
	PeakColor   = color.New(color.FgGreen, color.Bold) // PeakColor marks near-perfect plays.
	StrongColor = color.New(color.FgCyan, color.Bold)  // StrongColor marks solid plays.
	FairColor   = color.New(color.FgYellow)            // FairColor marks average plays.
	WeakColor   = color.New(color.FgRed)               // WeakColor marks plays far below the reference.
)

// GetPlainLabel returns a plain text label for a pp fraction (pp / pp at 100%).
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(ppPct float64) string {
	switch {
	case math.IsNaN(ppPct) || math.IsInf(ppPct, 0):
		return NoneValue
	case ppPct >= 0.95:
		return PeakValue
	case ppPct >= 0.8:
		return StrongValue
	case ppPct >= 0.6:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(ppPct float64) string {
	text := GetPlainLabel(ppPct)

	switch text {
	case PeakValue:
		return PeakColor.Sprint(text)
	case StrongValue:
		return StrongColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
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

func homePath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the beatmap seed cache.
func GetCacheDBFilePath() string {
	return homePath(".osuawa_cache.db")
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the score store.
func GetStoreDBFilePath() string {
	return homePath(".osuawa_scores.db")
}

// GetStoreDir returns the directory used by the file score store.
func GetStoreDir() string {
	return filepath.Join(homePath(".osuawa"), "scores")
}

// GetBeatmapDir returns the default chart file directory.
func GetBeatmapDir() string {
	return filepath.Join(homePath(".osuawa"), "beatmaps")
}

// TruncateText shortens s to maxWidth runes with a trailing ellipsis.
// Requires maxWidth > 3 so there is room for the "..." and at least one rune.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
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
