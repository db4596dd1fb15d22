// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/bobbycyl/osuawa/core"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the osuawa MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, deps core.Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"osuawa Score Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		deps:    deps,
	}

	// --- 1. Tool: sync_recent_scores ---
	s.AddTool(mcp.NewTool("sync_recent_scores",
		mcp.WithDescription("Fetch a player's recent scores, complete them with difficulty and pp attributes, and store them."),
		mcp.WithString("user", mcp.Description("Numeric user id or @username."), mcp.Required()),
		mcp.WithBoolean("include_fails", mcp.Description("Also fetch failed plays. Defaults to the server setting.")),
	), h.handleSyncRecentScores)

	// --- 2. Tool: get_score ---
	s.AddTool(mcp.NewTool("get_score",
		mcp.WithDescription("Fetch a single score by id and return it with derived dashboard columns."),
		mcp.WithString("score_id", mcp.Description("The score id."), mcp.Required()),
	), h.handleGetScore)

	// --- 3. Tool: get_scores_view ---
	s.AddTool(mcp.NewTool("get_scores_view",
		mcp.WithDescription("Return a player's stored completed scores with derived columns, newest first."),
		mcp.WithString("user", mcp.Description("Numeric user id or @username."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleGetScoresView)

	// --- 4. Tool: get_summary ---
	s.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Summarize a player's stored scores: pp totals and the pp share of each modifier tag."),
		mcp.WithString("user", mcp.Description("Numeric user id or @username."), mcp.Required()),
	), h.handleGetSummary)

	// --- 5. Tool: get_beatmap_scores ---
	s.AddTool(mcp.NewTool("get_beatmap_scores",
		mcp.WithDescription("Fetch and complete the scores a set of players set on one beatmap."),
		mcp.WithNumber("beatmap_id", mcp.Description("The beatmap id."), mcp.Required()),
		mcp.WithString("users", mcp.Description("Comma-separated numeric ids or @usernames."), mcp.Required()),
	), h.handleGetBeatmapScores)

	// --- 6. Tool: get_user ---
	s.AddTool(mcp.NewTool("get_user",
		mcp.WithDescription("Look up a player, or list the friends of the token owner."),
		mcp.WithString("user", mcp.Description("Numeric user id or @username. Ignored when friends is true.")),
		mcp.WithBoolean("friends", mcp.Description("List friends instead. Needs a user access token.")),
	), h.handleGetUser)

	return s
}

// StartMCPServer starts the osuawa MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, deps core.Deps) error {
	s := NewMCPServer(baseCfg, deps)
	return server.ServeStdio(s)
}
