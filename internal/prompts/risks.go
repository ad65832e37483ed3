package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// RisksPrompt handles the review-risks MCP prompt.
// It instructs the AI to report open risk markers in the project.
type RisksPrompt struct{}

// NewRisksPrompt creates a RisksPrompt.
func NewRisksPrompt() *RisksPrompt {
	return &RisksPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RisksPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("review-risks",
		mcp.WithPromptDescription(
			"Review the project's open risk markers: temporary code past its "+
				"expiry, unresolved debugging attempts, and locked files.",
		),
	)
}

// Handle processes the review-risks prompt request.
func (p *RisksPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Project risk review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please call `primer_generate` with preset=safe and budget=1000, then:\n\n" +
						"1. List every open temporary-code marker, flagging any past its expiry date\n" +
						"2. List unresolved debugging attempts with their failure counts\n" +
						"3. List frozen and restricted files with their reasons\n" +
						"4. Recommend which of these to address first and why",
				),
			},
		},
	}, nil
}
