// Package server wires the MCP components and creates the server instance.
//
// This is the composition root: it loads configuration and the section
// catalog, opens the knowledge-base cache, and injects them into the tools.
// No selection or indexing logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/primer"
	"github.com/ctxprimer/ctxprimer/internal/prompts"
	"github.com/ctxprimer/ctxprimer/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function is always non-nil and safe to call even if
// parts of the setup degraded. A missing or unreadable index cache is not
// fatal: primer_generate still works with an empty snapshot, and the other
// tools report the cache problem per call.
func New(root string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, noop, fmt.Errorf("loading config: %w", err)
	}

	catalog, err := LoadCatalog(root, cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("loading catalog: %w", err)
	}

	s := server.NewMCPServer(
		"ctxprimer",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	deps := &Deps{
		Root:    root,
		Config:  cfg,
		Catalog: catalog,
	}

	primerTool := NewPrimerTool(deps)
	s.AddTool(primerTool.Definition(), primerTool.Handle)

	queryTool := NewQueryTool(deps)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	constraintsTool := NewConstraintsTool(deps)
	s.AddTool(constraintsTool.Definition(), constraintsTool.Handle)

	primePrompt := prompts.NewPrimePrompt()
	s.AddPrompt(primePrompt.Definition(), primePrompt.Handle)

	risksPrompt := prompts.NewRisksPrompt()
	s.AddPrompt(risksPrompt.Definition(), risksPrompt.Handle)

	resourceHandler := resources.NewHandler(deps.cachePath(), catalog)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	s.AddResource(resourceHandler.SectionsResource(), resourceHandler.HandleSections)

	return s, noop, nil
}

// noop is the default cleanup when nothing needs closing. Tools open the
// cache per call so the server holds no long-lived database handle.
func noop() {}

// LoadCatalog builds the effective section catalog for a project: embedded
// defaults, then project catalog overrides, then config-defined presets.
// Broken overrides degrade to the defaults with a warning rather than
// failing the whole invocation.
func LoadCatalog(root string, cfg config.Config) (*primer.Catalog, error) {
	catalog, err := primer.LoadDefaultCatalog()
	if err != nil {
		return nil, err
	}
	overrides, err := primer.LoadOverridesFile(config.OverridesFile(root))
	if err != nil {
		log.Printf("WARNING: ignoring catalog overrides: %v", err)
		return catalog, nil
	}
	merged, err := catalog.Merge(overrides)
	if err != nil {
		log.Printf("WARNING: ignoring catalog overrides: %v", err)
		return catalog, nil
	}
	// Config-defined presets sit below catalog overrides.
	for name, w := range cfg.Weights {
		if _, ok := merged.Presets[name]; !ok {
			if merged.Presets == nil {
				merged.Presets = make(map[string]primer.Weights)
			}
			merged.Presets[name] = w
		}
	}
	return merged, nil
}

func serverInstructions() string {
	return `You have access to ctxprimer, a project knowledge-base MCP server.

ctxprimer indexes the codebase you are working in: symbols, call edges,
architectural domains, file lock constraints, temporary-code markers, failed
debugging attempts, and naming conventions.

## Tools

- primer_generate: produce a budget-constrained project context primer.
  Call this at the start of a session. Pass the token budget you can spare;
  the selector packs the most valuable sections into it deterministically.
- kb_query: look up one file, symbol, or domain from the index. Prefer this
  over reading whole files when you only need structure or metadata.
- constraints_check: check a file's lock level BEFORE editing it. Frozen
  files must not be modified; restricted files need approval first.

## Rules

- Always run constraints_check before your first edit to any file.
- If a primer section lists failed attempts, do not repeat those approaches.
- Re-run primer_generate with a bigger budget instead of guessing when the
  primer says sections were omitted.`
}
