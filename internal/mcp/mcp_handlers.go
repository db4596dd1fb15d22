package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobbycyl/osuawa/core"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	deps    core.Deps
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleSyncRecentScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := strings.TrimSpace(request.GetString("user", ""))
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}
	cfg := h.baseCfg.Clone()
	cfg.IncludeFails = request.GetBool("include_fails", cfg.IncludeFails)

	reports, err := core.GetSyncResults(core.WithSuppressHeader(ctx), cfg, h.deps, []string{user})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}
	return jsonResult(reports[0]), nil
}

func (h *toolHandler) handleGetScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scoreID := strings.TrimSpace(request.GetString("score_id", ""))
	if scoreID == "" {
		return mcp.NewToolResultError("score_id is required"), nil
	}

	rows, err := core.GetScoreResults(core.WithSuppressHeader(ctx), h.baseCfg.Clone(), h.deps, scoreID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("score lookup failed: %v", err)), nil
	}
	return jsonResult(rows[0]), nil
}

func (h *toolHandler) handleGetScoresView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := strings.TrimSpace(request.GetString("user", ""))
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	rows, err := core.GetViewResults(core.WithSuppressHeader(ctx), cfg, h.deps, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("view failed: %v", err)), nil
	}
	return jsonResult(rows), nil
}

func (h *toolHandler) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := strings.TrimSpace(request.GetString("user", ""))
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}

	sum, err := core.GetSummaryResults(core.WithSuppressHeader(ctx), h.baseCfg.Clone(), h.deps, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return jsonResult(sum), nil
}

func (h *toolHandler) handleGetBeatmapScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	beatmapID := request.GetInt("beatmap_id", 0)
	if beatmapID <= 0 {
		return mcp.NewToolResultError("beatmap_id must be a positive number"), nil
	}
	var users []string
	for u := range strings.SplitSeq(request.GetString("users", ""), ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		return mcp.NewToolResultError("users must name at least one player"), nil
	}

	rows, err := core.GetBeatmapResults(core.WithSuppressHeader(ctx), h.baseCfg.Clone(), h.deps, beatmapID, users)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("beatmap lookup failed: %v", err)), nil
	}
	return jsonResult(rows), nil
}

func (h *toolHandler) handleGetUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	friends := request.GetBool("friends", false)
	user := strings.TrimSpace(request.GetString("user", ""))
	if !friends && user == "" {
		return mcp.NewToolResultError("user is required unless friends is true"), nil
	}

	users, err := core.GetUserResults(core.WithSuppressHeader(ctx), h.deps, user, friends)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("user lookup failed: %v", err)), nil
	}
	return jsonResult(users), nil
}
