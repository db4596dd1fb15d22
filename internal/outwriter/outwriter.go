// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"os"
	"strings"

	"github.com/bobbycyl/osuawa/internal/contract"
	"golang.org/x/term"
)

// LogSyncHeader prints a concise, 2-line header before a user is synced.
func LogSyncHeader(cfg *contract.Config, userID int) {
	scope := "passed only"
	if cfg.IncludeFails {
		scope = "including fails"
	}
	fmt.Printf("🔎 User: %d (Recent: %s)\n", userID, scope)
	fmt.Printf("🗄️  Store: %s → %d workers\n", cfg.StoreBackend, cfg.Workers)
}

// LogOracleHeader prints which oracle command completes the scores.
func LogOracleHeader(cfg *contract.Config) {
	fmt.Printf("🧮 Oracle: %s (timeout: %v)\n", strings.Join(cfg.OracleCommand, " "), cfg.OracleTimeout)
}

// getTerminalWidth returns the override width, the detected width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// getMaxInfoWidth calculates the width left for the beatmap info column
// once the fixed view columns are laid out.
func getMaxInfoWidth(cfg *contract.Config) int {
	// Ended + Mods + Stars + Acc + Combo + PP + PP% + Label with borders/padding
	baseWidth := 95
	available := getTerminalWidth(cfg) - baseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
