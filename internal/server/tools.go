package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
	"github.com/ctxprimer/ctxprimer/internal/primer"
)

// Deps holds everything the tools share. The cache is opened per call so a
// re-index while the server runs is picked up on the next tool invocation.
type Deps struct {
	Root    string
	Config  config.Config
	Catalog *primer.Catalog
}

func (d *Deps) cachePath() string {
	return d.Config.CacheFile(d.Root)
}

// mcpCapabilities is the capability set an MCP-connected agent advertises.
var mcpCapabilities = []string{"mcp"}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// ─── primer_generate ─────────────────────────────────────────────────────────

// PrimerTool handles the primer_generate MCP tool.
type PrimerTool struct {
	deps *Deps
}

// NewPrimerTool creates a PrimerTool.
func NewPrimerTool(deps *Deps) *PrimerTool {
	return &PrimerTool{deps: deps}
}

// Definition returns the MCP tool definition for primer_generate.
func (t *PrimerTool) Definition() mcp.Tool {
	return mcp.NewTool("primer_generate",
		mcp.WithDescription(
			"Generate a budget-constrained project context primer from the knowledge base. "+
				"Returns the most valuable context sections that fit the token budget, "+
				"selected deterministically.",
		),
		mcp.WithNumber("budget",
			mcp.Description("Token budget for the primer (default: project config, usually 600)"),
		),
		mcp.WithString("preset",
			mcp.Description("Weight preset: safe, efficient, accurate, balanced (default: project config)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown, compact, json, text (default: markdown)"),
		),
		mcp.WithBoolean("no_dynamic",
			mcp.Description("Exclude dynamically generated sections"),
		),
	)
}

// Handle processes the primer_generate tool call.
func (t *PrimerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	budget := int(req.GetFloat("budget", float64(t.deps.Config.DefaultBudget)))
	preset := req.GetString("preset", t.deps.Config.DefaultPreset)

	format, err := primer.ParseFormat(req.GetString("format", "markdown"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap := index.LoadSnapshot(t.deps.cachePath(), mcpCapabilities)
	res, err := primer.Generate(t.deps.Catalog, snap, primer.Options{
		Budget: budget,
		Preset: preset,
		Filter: primer.FilterArgs{
			Capabilities: mcpCapabilities,
			NoDynamic:    boolArg(req, "no_dynamic", false),
		},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("primer generation failed: %v", err)), nil
	}

	out, err := primer.Render(res, primer.RenderOptions{Format: format})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

// ─── kb_query ────────────────────────────────────────────────────────────────

// QueryTool handles the kb_query MCP tool.
type QueryTool struct {
	deps *Deps
}

// NewQueryTool creates a QueryTool.
func NewQueryTool(deps *Deps) *QueryTool {
	return &QueryTool{deps: deps}
}

// Definition returns the MCP tool definition for kb_query.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("kb_query",
		mcp.WithDescription(
			"Query the project knowledge base for one file, symbol, or domain. "+
				"Files report purpose, lock level, domain, and symbols. Symbols report "+
				"signature, location, callers, and callees. Domains report member files.",
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("What to look up: file, symbol, or domain"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File path (relative to project root), symbol name, or domain name"),
		),
	)
}

// Handle processes the kb_query tool call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := req.GetString("kind", "")
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	store, err := index.Open(t.deps.cachePath())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index cache unavailable, run ctxprimer index first: %v", err)), nil
	}
	defer store.Close()

	var payload any
	switch kind {
	case "file":
		payload, err = store.FileInfo(name)
	case "symbol":
		payload, err = store.SymbolInfo(name)
	case "domain":
		payload, err = store.DomainInfo(name)
	default:
		return mcp.NewToolResultError("'kind' must be file, symbol, or domain"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ─── constraints_check ───────────────────────────────────────────────────────

// ConstraintsTool handles the constraints_check MCP tool.
type ConstraintsTool struct {
	deps *Deps
}

// NewConstraintsTool creates a ConstraintsTool.
func NewConstraintsTool(deps *Deps) *ConstraintsTool {
	return &ConstraintsTool{deps: deps}
}

// Definition returns the MCP tool definition for constraints_check.
func (t *ConstraintsTool) Definition() mcp.Tool {
	return mcp.NewTool("constraints_check",
		mcp.WithDescription(
			"Check the mutation lock level of a file before editing it. "+
				"Returns the lock level (frozen, restricted, approval-required, "+
				"tests-required, docs-required, or normal) and the reason.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
	)
}

// Handle processes the constraints_check tool call.
func (t *ConstraintsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	store, err := index.Open(t.deps.cachePath())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index cache unavailable, run ctxprimer index first: %v", err)), nil
	}
	defer store.Close()

	level, reason, err := store.LockFor(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", path, level)
	if reason != "" {
		fmt.Fprintf(&b, "reason: %s\n", reason)
	}
	switch level {
	case "frozen":
		b.WriteString("Do not modify this file. Explain the needed change instead.")
	case "restricted":
		b.WriteString("Propose the change and wait for approval before editing.")
	case "approval-required":
		b.WriteString("Ask for approval before editing.")
	case "tests-required":
		b.WriteString("Any edit must come with an accompanying test change.")
	case "docs-required":
		b.WriteString("Any edit must come with a documentation update.")
	default:
		b.WriteString("No constraints. Proceed.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
