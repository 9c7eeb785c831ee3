package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("planform", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("planform workout planner. List the focus, subcategory and access options, then generate a multi-day workout plan for a selection."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListOptions, Handler: h.listOptions},
		server.ServerTool{Tool: toolGeneratePlan, Handler: h.generatePlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentPlans, Handler: h.recentPlans},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentPlans = mcp.NewResource(
	"planform://recent_plans",
	"Recent Plans",
	mcp.WithResourceDescription("The most recently generated workout plans with their selections"),
	mcp.WithMIMEType("application/json"),
)
