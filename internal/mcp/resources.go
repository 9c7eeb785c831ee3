package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/planform/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// recentPlansLimit bounds the recent_plans resource.
const recentPlansLimit = 20

func (h *handlers) recentPlans(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	rows, err := h.ds.RecentPlans(ctx, recentPlansLimit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []storage.PlanRecord{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
