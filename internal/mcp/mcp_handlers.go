package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/perfhist/core"
	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	holder  *core.Holder
}

// queryConfig clones the base config and applies the request's query arguments.
func (h *toolHandler) queryConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	now := time.Now()

	if k := request.GetString("kind", ""); k != "" {
		kind, err := schema.ParseKind(strings.ToLower(k))
		if err != nil {
			return nil, err
		}
		cfg.Kind = kind
	}
	if cfg.Kind == "" {
		cfg.Kind = schema.FullCompilerKind
	}

	if e := request.GetString("edge", ""); e != "" {
		edge := schema.Edge(strings.ToLower(e))
		if _, ok := schema.ValidEdges[edge]; !ok {
			return nil, fmt.Errorf("invalid edge '%s'. must be start, end", e)
		}
		cfg.Edge = edge
	}
	if cfg.Edge == "" {
		cfg.Edge = schema.StartEdge
	}

	for name, dst := range map[string]**time.Time{"start": &cfg.Start, "end": &cfg.End, "date": &cfg.Date} {
		s := request.GetString(name, "")
		if s == "" {
			continue
		}
		t, err := contract.ParseDate(s, now)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = &t
	}
	return cfg, nil
}

// currentStore returns the holder's store, loading it on first use.
func (h *toolHandler) currentStore(ctx context.Context) (*core.Store, error) {
	if store := h.holder.Current(); store != nil {
		return store, nil
	}
	return h.holder.Reload(core.WithSuppressHeader(ctx))
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleGetRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.queryConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query parameters: %v", err)), nil
	}
	store, err := h.currentStore(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	runs, err := core.QueryRuns(store, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return jsonResult(runs)
}

func (h *toolHandler) handleGetBoundaryRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.queryConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query parameters: %v", err)), nil
	}
	store, err := h.currentStore(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	run, err := core.QueryBoundary(store, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return jsonResult(run)
}

func (h *toolHandler) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.queryConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query parameters: %v", err)), nil
	}
	store, err := h.currentStore(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	return jsonResult(core.QuerySummary(store, cfg))
}

func (h *toolHandler) handleGetInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.currentStore(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	return jsonResult(store.Info())
}

func (h *toolHandler) handleReload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.holder.Reload(core.WithSuppressHeader(ctx))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reload failed, keeping previous snapshot: %v", err)), nil
	}
	stats := store.Stats()
	return mcp.NewToolResultText(fmt.Sprintf("Reloaded %d rustc and %d benchmark runs from %d files (%d skipped)",
		stats.FullCompilerRuns, stats.BenchmarkRuns, stats.TotalFiles, stats.Skipped)), nil
}
