package mcp

import (
	"context"
	"strconv"

	"github.com/claude/planform/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListOptions = mcp.NewTool("list_options",
	mcp.WithDescription("List the focus, subcategory and access values the planner accepts. In derived mode the index maps each focus to its subcategory suffixes; pass subcategory as '<focus>-<suffix>'."),
)

var toolGeneratePlan = mcp.NewTool("generate_plan",
	mcp.WithDescription("Generate a workout plan. Returns days in order, each with exercises and optional sets, reps, rest and url."),
	mcp.WithString("focus", mcp.Required(), mcp.Description("Focus value from list_options (e.g. strength)")),
	mcp.WithString("subcategory", mcp.Description("Subcategory tag (e.g. strength-upper). Defaults to the first subcategory of the focus.")),
	mcp.WithString("access", mcp.Description("Equipment access value from list_options")),
	mcp.WithString("days", mcp.Description("Number of days. Defaults to 3.")),
)

// --- Tool handlers ---

func (h *handlers) listOptions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.ds.Options(ctx)
	if err != nil {
		h.log.Error("mcp list_options", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) generatePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	focus, err := req.RequireString("focus")
	if err != nil || focus == "" {
		return mcp.NewToolResultError("focus parameter is required"), nil
	}

	days := req.GetString("days", "")
	if days != "" {
		if n, err := strconv.Atoi(days); err != nil || n <= 0 {
			return mcp.NewToolResultError("days must be a positive integer"), nil
		}
	}

	sel := models.FormSelection{
		Focus:       focus,
		Subcategory: req.GetString("subcategory", ""),
		Access:      req.GetString("access", ""),
		Days:        days,
	}

	sub, err := h.ds.GeneratePlan(ctx, sel)
	if err != nil {
		h.log.Error("mcp generate_plan", "error", err)
		return mcp.NewToolResultError("plan request failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sub)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
