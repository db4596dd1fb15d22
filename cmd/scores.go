package cmd

import (
	"fmt"
	"strconv"

	"github.com/bobbycyl/osuawa/core"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/spf13/cobra"
)

// syncCmd fetches, completes and stores recent scores.
var syncCmd = &cobra.Command{
	Use:   "sync <user>...",
	Short: "Fetch recent scores and complete them into the local store.",
	Long: `Fetch the recent scores of one or more players and merge them into the local store.

Each new score is completed with:
- Difficulty attributes under its modifiers
- Actual pp and the pp of 100/92/81/67% accuracy references
- Effective AR, OD, CS, HP, BPM and length

Scores that cannot be completed are reported and stay raw so the next sync
retries them. Players are given as numeric ids or @usernames.

Examples:
  # Sync one player
  osuawa sync 2

  # Include failed plays
  osuawa sync @peppy --include-fails

  # Sync several players into a MySQL store
  OSUAWA_STORE_BACKEND=mysql OSUAWA_STORE_DB_CONNECT="..." osuawa sync 2 3`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: completionSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteSync(rootCtx, cfg, deps, args); err != nil {
			contract.LogFatal("Cannot sync scores", err)
		}
	},
}

// recomputeCmd completes stored scores again.
var recomputeCmd = &cobra.Command{
	Use:   "recompute <user> [score-id]...",
	Short: "Complete stored scores again, all of them or the given ids.",
	Long: `Re-run attribute completion for scores already in the local store.

Use this after updating the calculator so older scores reflect it. Without
score ids every stored score of the player is recomputed.

Examples:
  # Recompute everything
  osuawa recompute 2

  # Recompute two scores
  osuawa recompute 2 4567890123 4567890124`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: completionSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteRecompute(rootCtx, cfg, deps, args[0], args[1:]); err != nil {
			contract.LogFatal("Cannot recompute scores", err)
		}
	},
}

// scoreCmd completes a single score on the fly.
var scoreCmd = &cobra.Command{
	Use:   "score <score-id>",
	Short: "Fetch one score and show it completed.",
	Long: `Fetch a single score by id, complete it and show its dashboard columns.
Nothing is written to the store.

Examples:
  osuawa score 4567890123 --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: completionSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteScore(rootCtx, cfg, deps, args[0]); err != nil {
			contract.LogFatal("Cannot show score", err)
		}
	},
}

// beatmapCmd shows what a set of players scored on one beatmap.
var beatmapCmd = &cobra.Command{
	Use:   "beatmap <beatmap-id> --user <user>[,<user>...]",
	Short: "Compare the scores of several players on one beatmap.",
	Long: `Fetch every score the given players set on one beatmap and complete them.
Players are looked up concurrently. Nothing is written to the store.

Examples:
  osuawa beatmap 75 --user 2,@peppy`,
	Args:    cobra.ExactArgs(1),
	PreRunE: completionSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		beatmapID, err := parseBeatmapID(args[0])
		if err != nil {
			contract.LogFatal("Invalid beatmap id", err)
		}
		users, _ := cmd.Flags().GetStringSlice("user")
		if err := core.ExecuteBeatmap(rootCtx, cfg, deps, beatmapID, users); err != nil {
			contract.LogFatal("Cannot show beatmap scores", err)
		}
	},
}

// userCmd shows player info.
var userCmd = &cobra.Command{
	Use:   "user [user]",
	Short: "Show a player, or the friends of the token owner.",
	Long: `Look up a player by numeric id or @username and show rank, pp and play count.

With --friends the friends of the access token owner are listed instead. That
needs a user token (--access-token); client credentials cannot see friends.

Examples:
  osuawa user @peppy
  osuawa user --friends`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		friends, _ := cmd.Flags().GetBool("friends")
		var key string
		if len(args) == 1 {
			key = args[0]
		}
		if key == "" && !friends {
			contract.LogFatal("Cannot show user", fmt.Errorf("a user is required unless --friends is set"))
		}
		if err := core.ExecuteUser(rootCtx, cfg, deps, key, friends); err != nil {
			contract.LogFatal("Cannot show user", err)
		}
	},
}

// viewCmd renders the stored scores as dashboard rows.
var viewCmd = &cobra.Command{
	Use:   "view <user>",
	Short: "Show stored completed scores with derived columns, newest first.",
	Long: `Build the dashboard view over a player's completed scores.

Derived columns include:
- pp as a share of the 100% reference, overall and per skill
- pp over the 92/81/67% references
- combo share, object density and aim/speed ratios
- time of day in the configured timezone

Columns that cannot be computed are left empty and listed as flagged.

Examples:
  osuawa view 2 --limit 20
  osuawa view 2 --output parquet --output-file scores.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteView(rootCtx, cfg, deps, args[0]); err != nil {
			contract.LogFatal("Cannot build view", err)
		}
	},
}

// summaryCmd aggregates the stored view.
var summaryCmd = &cobra.Command{
	Use:   "summary <user>",
	Short: "Summarize stored scores: pp totals and pp share per modifier tag.",
	Long: `Summarize every completed score of a player.

Shows total pp against the 100/92/81/67% references and, for each tag (HD,
High_AR, Low_AR, Very_Low_AR, Speed_Up, Speed_Down), how many scores carry it
and their share of pp.

Examples:
  osuawa summary @peppy`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, deps, args[0]); err != nil {
			contract.LogFatal("Cannot summarize scores", err)
		}
	},
}

func parseBeatmapID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("beatmap id must be a positive integer (received %q)", s)
	}
	return id, nil
}
