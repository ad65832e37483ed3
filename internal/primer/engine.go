package primer

// Options are the invocation parameters for one primer generation run.
type Options struct {
	Budget int

	// Preset names a weight preset; CustomWeights, when non-nil, takes
	// precedence and is normalized before use.
	Preset        string
	CustomWeights *Weights

	Filter FilterArgs
}

// Generate runs the full pipeline: filter → dynamic expansion → condition
// evaluation → scoring → phased selection. It returns a complete Result or
// a fatal error; it never returns a partial Result alongside an error.
//
// The snapshot must be captured before this call and is treated as
// read-only throughout, so concurrent index updates cannot destabilize a
// selection in progress.
func Generate(cat *Catalog, snap Snapshot, opts Options) (*Result, error) {
	weights, err := resolveOptionWeights(cat, opts)
	if err != nil {
		return nil, err
	}

	filtered, err := Filter(cat.Sections, opts.Filter)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if snap.Unavailable {
		warnings = append(warnings, "cache unreadable, dynamic context disabled")
	}
	if opts.Filter.NoDynamic && countDynamic(cat.Sections) > 0 {
		warnings = append(warnings, "dynamic content suppressed (--no-dynamic)")
	}

	expanded, dynWarnings := ExpandDynamic(filtered, snap)
	// An unavailable cache already explains every empty dynamic section;
	// per-section noise on top of that helps nobody.
	if !snap.Unavailable {
		warnings = append(warnings, dynWarnings...)
	}

	res, err := Select(expanded, snap, opts.Budget, weights)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

func resolveOptionWeights(cat *Catalog, opts Options) (Weights, error) {
	if opts.CustomWeights != nil {
		return opts.CustomWeights.Normalized()
	}
	return ResolveWeights(cat, opts.Preset)
}

func countDynamic(sections []Section) int {
	n := 0
	for _, s := range sections {
		if s.Dynamic != "" {
			n++
		}
	}
	return n
}
