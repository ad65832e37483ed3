// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// PrimePrompt handles the prime-session MCP prompt.
// It instructs the AI to load project context before starting work.
type PrimePrompt struct{}

// NewPrimePrompt creates a PrimePrompt.
func NewPrimePrompt() *PrimePrompt {
	return &PrimePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PrimePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("prime-session",
		mcp.WithPromptDescription(
			"Prime this session with project context: protected files, "+
				"active domains, open temporary code, and past failed attempts, "+
				"packed into a token budget.",
		),
		mcp.WithArgument("budget",
			mcp.ArgumentDescription("Token budget to spend on context (default 600)"),
		),
		mcp.WithArgument("preset",
			mcp.ArgumentDescription("Weight preset: safe, efficient, accurate, or balanced"),
		),
	)
}

// Handle processes the prime-session prompt request.
func (p *PrimePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	budget := "600"
	preset := "balanced"
	if args := req.Params.Arguments; args != nil {
		if b, ok := args["budget"]; ok && b != "" {
			budget = b
		}
		if pr, ok := args["preset"]; ok && pr != "" {
			preset = pr
		}
	}

	return &mcp.GetPromptResult{
		Description: "Prime the session with project context",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please call `primer_generate` with budget=%s and preset=%s, "+
						"then read the result carefully before doing anything else.\n\n"+
						"Treat it as ground rules for this session:\n"+
						"1. Never edit a file the primer lists as frozen or restricted "+
						"without running `constraints_check` on it first\n"+
						"2. Do not repeat approaches listed under failed attempts\n"+
						"3. Follow the naming conventions it reports\n"+
						"4. If sections were omitted for budget, tell me so I can raise it",
					budget, preset,
				)),
			},
		},
	}, nil
}
