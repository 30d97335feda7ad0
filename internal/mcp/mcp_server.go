// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"fmt"

	"github.com/huangsam/perfhist/core"
	"github.com/huangsam/perfhist/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the perfhist MCP server without starting it.
// Queries read the current store of holder. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, holder *core.Holder) *server.MCPServer {
	s := server.NewMCPServer(
		"Performance History Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		holder:  holder,
	}

	// --- 1. Tool: get_runs ---
	s.AddTool(mcp.NewTool("get_runs",
		mcp.WithDescription("List compiler performance runs of one kind within a date range."),
		mcp.WithString("kind", mcp.Description("Series to query. Defaults to 'rustc'."), mcp.Enum("rustc", "benchmarks")),
		mcp.WithString("start", mcp.Description("Range start (RFC3339, YYYY-MM-DD, or relative like '4 weeks ago'). Defaults to the earliest run.")),
		mcp.WithString("end", mcp.Description("Range end, same formats as start. Defaults to the latest date.")),
	), h.handleGetRuns)

	// --- 2. Tool: get_boundary_run ---
	s.AddTool(mcp.NewTool("get_boundary_run",
		mcp.WithDescription("Get the single run nearest a date, with per-crate per-phase timings."),
		mcp.WithString("kind", mcp.Description("Series to query. Defaults to 'rustc'."), mcp.Enum("rustc", "benchmarks")),
		mcp.WithString("date", mcp.Description("Date to resolve. Defaults to the earliest run for 'start' and the latest date for 'end'.")),
		mcp.WithString("edge", mcp.Description("Which side of the range the date marks. Defaults to 'start'."), mcp.Enum("start", "end")),
	), h.handleGetBoundaryRun)

	// --- 3. Tool: get_summary ---
	s.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Get the 12-week percent-change summary and the long-horizon total for one kind."),
		mcp.WithString("kind", mcp.Description("Series to summarize. Defaults to 'rustc'."), mcp.Enum("rustc", "benchmarks")),
	), h.handleGetSummary)

	// --- 4. Tool: get_info ---
	s.AddTool(mcp.NewTool("get_info",
		mcp.WithDescription("List known crates, phases and benchmarks, the latest date, and load counters."),
	), h.handleGetInfo)

	// --- 5. Tool: reload ---
	s.AddTool(mcp.NewTool("reload",
		mcp.WithDescription("Reload the data directory and swap in the new snapshot."),
	), h.handleReload)

	return s
}

// StartMCPServer loads the data directory and serves MCP over stdio.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	holder := core.NewHolder(baseCfg, mgr)
	if _, err := holder.Reload(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	s := NewMCPServer(baseCfg, holder)
	return server.ServeStdio(s)
}
