package primer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format is an output rendering mode.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCompact  Format = "compact"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatMarkdown, FormatCompact, FormatJSON, FormatText:
		return Format(name), nil
	case "":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q (want markdown, compact, json, or text)", ErrUnknownFormat, name)
}

// RenderOptions control presentation; they never change which sections were
// selected or in what order.
type RenderOptions struct {
	Format Format

	// Explain appends a per-section admission trace: phase, score, token
	// cost, and running budget.
	Explain bool

	// Preview suppresses section bodies, leaving only the selection
	// metadata. Useful for checking budget fit before paying for output.
	Preview bool
}

// JSONOutput is the machine-readable rendering of a Result. With Explain
// set it carries enough to reconstruct the selection decision without
// re-running it; otherwise per-section scores are left out.
type JSONOutput struct {
	Budget      int           `json:"budget"`
	TotalTokens int           `json:"totalTokensUsed"`
	OverBudget  bool          `json:"overBudget"`
	Sections    []JSONSection `json:"sections"`
	Omitted     []string      `json:"omittedForBudget,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// JSONSection is one selected section in the JSON rendering. Score is a
// pointer so that explain output can carry a legitimate zero score while
// plain output omits the field entirely.
type JSONSection struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Category  string   `json:"category"`
	Tier      string   `json:"tier,omitempty"`
	Phase     Phase    `json:"phase"`
	TokenCost int      `json:"tokenCost"`
	Score     *float64 `json:"score,omitempty"`
	Body      string   `json:"body,omitempty"`
}

// Render serializes a selection result in the requested format.
func Render(res *Result, opts RenderOptions) (string, error) {
	switch opts.Format {
	case FormatJSON:
		return renderJSON(res, opts)
	case FormatCompact:
		return renderCompact(res, opts), nil
	case FormatText:
		return renderText(res, opts), nil
	case FormatMarkdown, "":
		return renderMarkdown(res, opts), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

func renderJSON(res *Result, opts RenderOptions) (string, error) {
	out := JSONOutput{
		Budget:      res.Budget,
		TotalTokens: res.TotalTokens,
		OverBudget:  res.OverBudget,
		Sections:    make([]JSONSection, 0, len(res.Sections)),
		Omitted:     res.OmittedForBudget,
		Warnings:    res.Warnings,
	}
	for _, s := range res.Sections {
		js := JSONSection{
			ID:        s.ID,
			Name:      s.Name,
			Category:  s.Category,
			Tier:      s.Tier,
			Phase:     s.Phase,
			TokenCost: s.TokenCost,
		}
		if opts.Explain {
			score := s.Score
			js.Score = &score
		}
		if !opts.Preview {
			js.Body = s.Body
		}
		out.Sections = append(out.Sections, js)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func renderMarkdown(res *Result, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString("# Project Context\n\n")
	fmt.Fprintf(&b, "_%d/%d tokens", res.TotalTokens, res.Budget)
	if res.OverBudget {
		b.WriteString(" (OVER BUDGET)")
	}
	b.WriteString("_\n\n")

	for _, s := range res.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(s.Section))
		if opts.Preview {
			fmt.Fprintf(&b, "_(%d tokens, %s)_\n\n", s.TokenCost, s.Category)
		} else if s.Body != "" {
			b.WriteString(s.Body)
			if !strings.HasSuffix(s.Body, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	writeWarnings(&b, res, "> ")
	if opts.Explain {
		writeExplain(&b, res)
	}
	return b.String()
}

func renderText(res *Result, opts RenderOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT CONTEXT (%d/%d tokens)\n\n", res.TotalTokens, res.Budget)
	for _, s := range res.Sections {
		title := sectionTitle(s.Section)
		b.WriteString(strings.ToUpper(title))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(title)))
		b.WriteString("\n")
		if opts.Preview {
			fmt.Fprintf(&b, "(%d tokens, %s)\n\n", s.TokenCost, s.Category)
		} else if s.Body != "" {
			b.WriteString(s.Body)
			if !strings.HasSuffix(s.Body, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	writeWarnings(&b, res, "warning: ")
	if opts.Explain {
		writeExplain(&b, res)
	}
	return b.String()
}

// renderCompact trades headings for one-line section markers. Same content
// as markdown, roughly 10-15% fewer tokens on the default catalog.
func renderCompact(res *Result, opts RenderOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[ctx %d/%d]\n", res.TotalTokens, res.Budget)
	for _, s := range res.Sections {
		if opts.Preview {
			fmt.Fprintf(&b, "[%s %dt]\n", s.ID, s.TokenCost)
			continue
		}
		fmt.Fprintf(&b, "[%s] ", s.ID)
		b.WriteString(strings.TrimRight(s.Body, "\n"))
		b.WriteString("\n")
	}
	writeWarnings(&b, res, "! ")
	if opts.Explain {
		writeExplain(&b, res)
	}
	return b.String()
}

func sectionTitle(s Section) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func writeWarnings(b *strings.Builder, res *Result, prefix string) {
	if len(res.Warnings) == 0 {
		return
	}
	b.WriteString("\n")
	for _, w := range res.Warnings {
		b.WriteString(prefix)
		b.WriteString(w)
		b.WriteString("\n")
	}
}

// writeExplain appends the admission trace: one line per selected section in
// admission order, then one per omission. Scores are printed to three
// decimals, which is enough to see why one section outranked another without
// drowning the reader in float noise.
func writeExplain(b *strings.Builder, res *Result) {
	b.WriteString("\n--- selection trace ---\n")
	running := 0
	for _, s := range res.Sections {
		running += s.TokenCost
		fmt.Fprintf(b, "%-12s %-28s score=%.3f density=%.4f cost=%-5d running=%d/%d\n",
			s.Phase, s.ID, s.Score, s.Density, s.TokenCost, running, res.Budget)
	}
	for _, id := range res.OmittedForBudget {
		fmt.Fprintf(b, "%-12s %s\n", "omitted", id)
	}
}

// ListSections renders the catalog inventory for --list-sections: every
// section with its category, tier, cost, and gating, in catalog order.
func ListSections(cat *Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d sections in catalog (version %s)\n\n", len(cat.Sections), cat.Version)
	for _, s := range cat.Sections {
		flags := make([]string, 0, 3)
		if s.Required {
			flags = append(flags, "required")
		}
		if s.Condition != nil {
			flags = append(flags, "conditional")
		}
		if s.Dynamic != "" {
			flags = append(flags, "dynamic")
		}
		if len(s.Capabilities) > 0 {
			flags = append(flags, "needs "+strings.Join(s.Capabilities, ","))
		}
		cost := fmt.Sprintf("%dt", s.TokenCost)
		if s.Dynamic != "" {
			cost = "~" + cost
		}
		fmt.Fprintf(&b, "  %-24s %-12s %-12s %-7s", s.ID, s.Category, s.Tier, cost)
		if len(flags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ListPresets renders the preset inventory for --list-presets. Catalog
// presets shadow built-ins of the same name, so shadowed built-ins are
// shown with the catalog's weights.
func ListPresets(cat *Catalog) string {
	var b strings.Builder
	b.WriteString("Weight presets:\n\n")
	listed := make(map[string]bool)
	for _, pd := range PresetDescriptions() {
		name, desc := pd[0], pd[1]
		w := BuiltinPresets()[name]
		if cat != nil {
			if cw, ok := cat.Presets[name]; ok {
				w = cw
			}
		}
		listed[name] = true
		writePreset(&b, name, desc, w)
	}
	if cat != nil {
		// Catalog-only presets, sorted for stable output.
		extra := make([]string, 0, len(cat.Presets))
		for name := range cat.Presets {
			if !listed[name] {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		for _, name := range extra {
			writePreset(&b, name, "Defined by catalog", cat.Presets[name])
		}
	}
	return b.String()
}

func writePreset(b *strings.Builder, name, desc string, w Weights) {
	n, err := w.Normalized()
	if err == nil {
		w = n
	}
	fmt.Fprintf(b, "  %-10s safety=%.2f efficiency=%.2f accuracy=%.2f base=%.2f\n             %s\n",
		name, w.Safety, w.Efficiency, w.Accuracy, w.Base, desc)
}
