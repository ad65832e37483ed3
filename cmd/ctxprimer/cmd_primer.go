package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
	"github.com/ctxprimer/ctxprimer/internal/primer"
	"github.com/ctxprimer/ctxprimer/internal/server"
)

var (
	primerRoot         string
	primerCache        string
	primerCatalogPath  string
	primerBudget       int
	primerPreset       string
	primerWeights      string
	primerFormat       string
	primerCategories   []string
	primerInclude      []string
	primerExclude      []string
	primerCapabilities []string
	primerNoDynamic    bool
	primerExplain      bool
	primerPreview      bool
	primerListSections bool
	primerListPresets  bool
)

var primerCmd = &cobra.Command{
	Use:   "primer",
	Short: "Generate a budget-constrained context primer",
	Long: `Select the most valuable context sections that fit the token budget
and render them for an agent.

Selection runs in four phases: required sections first (the only ones
allowed to exceed the budget), then condition-matched sections, then
safety sections, then a greedy value-per-token fill. The same inputs
always produce byte-identical output.

Examples:
  ctxprimer primer --budget 800
  ctxprimer primer --preset safe --format compact
  ctxprimer primer --weights 0.5,0.2,0.2,0.1 --explain
  ctxprimer primer --categories safety,workflow --preview
  ctxprimer primer --list-sections`,
	Args: cobra.NoArgs,
	RunE: runPrimer,
}

func init() {
	f := primerCmd.Flags()
	f.StringVar(&primerRoot, "root", ".", "project root")
	f.StringVar(&primerCache, "cache", "", "index database path (default from config)")
	f.StringVar(&primerCatalogPath, "catalog", "", "use this catalog file instead of the built-in one")
	f.IntVar(&primerBudget, "budget", 0, "token budget (default from config)")
	f.StringVar(&primerPreset, "preset", "", "weight preset: safe, efficient, accurate, balanced (default from config)")
	f.StringVar(&primerWeights, "weights", "", "custom weights as safety,efficiency,accuracy,base (overrides --preset)")
	f.StringVar(&primerFormat, "format", "markdown", "output format: markdown, compact, json, text")
	f.StringSliceVar(&primerCategories, "categories", nil, "restrict to these categories")
	f.StringArrayVar(&primerInclude, "include", nil, "glob patterns that force-include matching sections")
	f.StringArrayVar(&primerExclude, "exclude", nil, "glob patterns that exclude matching sections")
	f.StringSliceVar(&primerCapabilities, "capabilities", nil, "capability set to advertise (default from config)")
	f.BoolVar(&primerNoDynamic, "no-dynamic", false, "drop dynamically generated sections")
	f.BoolVar(&primerExplain, "explain", false, "attach the per-section selection trace")
	f.BoolVar(&primerPreview, "preview", false, "emit the manifest only, no section bodies")
	f.BoolVar(&primerListSections, "list-sections", false, "list catalog sections and exit")
	f.BoolVar(&primerListPresets, "list-presets", false, "list weight presets and exit")
	rootCmd.AddCommand(primerCmd)
}

func runPrimer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(primerRoot)
	if err != nil {
		return err
	}

	catalog, err := loadPrimerCatalog(cfg)
	if err != nil {
		return err
	}

	if primerListSections {
		fmt.Print(primer.ListSections(catalog))
		return nil
	}
	if primerListPresets {
		fmt.Print(primer.ListPresets(catalog))
		return nil
	}

	format, err := primer.ParseFormat(primerFormat)
	if err != nil {
		return err
	}

	opts := primer.Options{
		Budget: primerBudget,
		Preset: primerPreset,
		Filter: primer.FilterArgs{
			Categories:   primerCategories,
			Include:      primerInclude,
			Exclude:      primerExclude,
			Capabilities: primerCapabilities,
			NoDynamic:    primerNoDynamic,
		},
	}
	if opts.Budget == 0 {
		opts.Budget = cfg.DefaultBudget
	}
	if opts.Preset == "" {
		opts.Preset = cfg.DefaultPreset
	}
	if opts.Filter.Capabilities == nil {
		opts.Filter.Capabilities = cfg.Capabilities
	}
	if primerWeights != "" {
		w, err := parseWeights(primerWeights)
		if err != nil {
			return err
		}
		opts.CustomWeights = &w
	}

	snap := index.LoadSnapshot(cachePath(cfg, primerRoot, primerCache), opts.Filter.Capabilities)
	res, err := primer.Generate(catalog, snap, opts)
	if err != nil {
		return err
	}

	out, err := primer.Render(res, primer.RenderOptions{
		Format:  format,
		Explain: primerExplain,
		Preview: primerPreview,
	})
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func loadPrimerCatalog(cfg config.Config) (*primer.Catalog, error) {
	if primerCatalogPath != "" {
		return primer.LoadCatalogFile(primerCatalogPath)
	}
	return server.LoadCatalog(primerRoot, cfg)
}

// parseWeights parses "safety,efficiency,accuracy,base" as four
// non-negative floats.
func parseWeights(arg string) (primer.Weights, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return primer.Weights{}, fmt.Errorf("--weights needs four values (safety,efficiency,accuracy,base), got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return primer.Weights{}, fmt.Errorf("--weights: %q is not a number", p)
		}
		vals[i] = v
	}
	return primer.Weights{Safety: vals[0], Efficiency: vals[1], Accuracy: vals[2], Base: vals[3]}, nil
}
