package primer

// Score combines a section's per-dimension scores with normalized weights
// into one scalar in [0,1].
//
// The sum is computed left-to-right over the fixed dimension ordering
// (safety, efficiency, accuracy, base). Floating-point addition is not
// associative, so a fixed order is what makes scoring independent of map
// iteration order and reproducible across runs.
func Score(s Section, w Weights) float64 {
	sum := w.Safety * s.Scores.Safety
	sum += w.Efficiency * s.Scores.Efficiency
	sum += w.Accuracy * s.Scores.Accuracy
	sum += w.Base * s.Scores.Base
	return sum
}

// ValueDensity is the ranking key for the value-optimized phase: score per
// token. Zero-cost sections are treated as costing one token so they rank
// by raw score instead of dividing by zero.
func ValueDensity(score float64, tokenCost int) float64 {
	if tokenCost < 1 {
		tokenCost = 1
	}
	return score / float64(tokenCost)
}

// ResolveWeights returns the normalized weights for a preset name, checking
// catalog-defined presets first, then built-ins. Empty name means balanced.
func ResolveWeights(cat *Catalog, preset string) (Weights, error) {
	if preset == "" {
		preset = PresetBalanced
	}
	if cat != nil {
		if w, ok := cat.Presets[preset]; ok {
			return w.Normalized()
		}
	}
	if w, ok := BuiltinPresets()[preset]; ok {
		return w.Normalized()
	}
	return Weights{}, &unknownPresetError{name: preset}
}

type unknownPresetError struct{ name string }

func (e *unknownPresetError) Error() string {
	return ErrUnknownPreset.Error() + " " + `"` + e.name + `"`
}

func (e *unknownPresetError) Unwrap() error { return ErrUnknownPreset }
