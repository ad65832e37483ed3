// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can consume for context.
// They use URI-based addressing (ctxprimer://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ctxprimer/ctxprimer/internal/index"
	"github.com/ctxprimer/ctxprimer/internal/primer"
)

// Handler manages the ctxprimer resource endpoints.
type Handler struct {
	cachePath string
	catalog   *primer.Catalog
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(cachePath string, catalog *primer.Catalog) *Handler {
	return &Handler{cachePath: cachePath, catalog: catalog}
}

// StatusResource returns the MCP resource definition for index status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"ctxprimer://index/status",
		"Knowledge Base Status",
		mcp.WithResourceDescription("Index freshness and content counts: files, symbols, domains, locks, open risk markers"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current index statistics as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	store, err := index.Open(h.cachePath)
	if err != nil {
		return errorResource(req.Params.URI, fmt.Sprintf("index cache unavailable, run ctxprimer index first: %v", err)), nil
	}
	defer store.Close()

	stats, err := store.IndexStats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, stats)
}

// SectionsResource returns the MCP resource definition for the catalog manifest.
func (h *Handler) SectionsResource() mcp.Resource {
	return mcp.NewResource(
		"ctxprimer://catalog/sections",
		"Context Section Catalog",
		mcp.WithResourceDescription("All context sections the primer can select from, with categories and token costs"),
		mcp.WithMIMEType("application/json"),
	)
}

// sectionManifest is the resource view of one catalog section. Bodies are
// left out; the selection engine decides what actually gets rendered.
type sectionManifest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Tier         string   `json:"tier"`
	Required     bool     `json:"required,omitempty"`
	Dynamic      bool     `json:"dynamic,omitempty"`
	Conditional  bool     `json:"conditional,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	TokenCost    int      `json:"tokenCost"`
}

// HandleSections returns the catalog manifest as JSON.
func (h *Handler) HandleSections(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	manifest := make([]sectionManifest, 0, len(h.catalog.Sections))
	for _, s := range h.catalog.Sections {
		manifest = append(manifest, sectionManifest{
			ID:           s.ID,
			Name:         s.Name,
			Category:     s.Category,
			Tier:         s.Tier,
			Required:     s.Required,
			Dynamic:      s.Dynamic != "",
			Conditional:  s.Condition != nil,
			Capabilities: s.Capabilities,
			TokenCost:    s.TokenCost,
		})
	}
	return jsonResource(req.Params.URI, manifest)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
