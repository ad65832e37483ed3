// Package primer implements the budget-constrained context selection engine.
//
// Given a catalog of candidate context sections, a hard token budget, a
// weight preset, and an immutable snapshot of project facts, it
// deterministically selects the subset of sections that maximizes delivered
// value without exceeding the budget, then renders the selection in one of
// several output formats.
//
// Selection is a pure function of its inputs: identical (catalog, snapshot,
// budget, weights, filters) always produce an identical result, ordering
// included. The engine performs no I/O — catalog loading and snapshot
// capture happen before it runs.
package primer

import "fmt"

// Category identifiers. The catalog validator rejects anything else.
const (
	CategorySafety       = "safety"
	CategoryConventions  = "conventions"
	CategoryArchitecture = "architecture"
	CategoryWorkflow     = "workflow"
	CategoryTooling      = "tooling"
	CategoryReference    = "reference"
)

// Categories returns the closed set of section categories.
func Categories() []string {
	return []string{
		CategorySafety,
		CategoryConventions,
		CategoryArchitecture,
		CategoryWorkflow,
		CategoryTooling,
		CategoryReference,
	}
}

// Tier labels — advisory metadata describing how deep into the knowledge
// base a section reaches. Tiers never gate selection.
const (
	TierSurvival    = "survival"
	TierEssential   = "essential"
	TierOperational = "operational"
	TierInformed    = "informed"
	TierComplete    = "complete"
	TierExpert      = "expert"
)

// Tiers returns the closed set of tier labels.
func Tiers() []string {
	return []string{
		TierSurvival,
		TierEssential,
		TierOperational,
		TierInformed,
		TierComplete,
		TierExpert,
	}
}

// DimensionScores holds a section's per-dimension value in [0,1].
// The zero value is a valid all-zero score.
type DimensionScores struct {
	Safety     float64 `json:"safety"`
	Efficiency float64 `json:"efficiency"`
	Accuracy   float64 `json:"accuracy"`
	Base       float64 `json:"base"`
}

func (d DimensionScores) validate() error {
	for _, dim := range []struct {
		name string
		v    float64
	}{
		{"safety", d.Safety},
		{"efficiency", d.Efficiency},
		{"accuracy", d.Accuracy},
		{"base", d.Base},
	} {
		if dim.v < 0 || dim.v > 1 {
			return fmt.Errorf("dimension %q score %v outside [0,1]", dim.name, dim.v)
		}
	}
	return nil
}

// Section is one candidate context unit from the catalog.
type Section struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Category     string          `json:"category"`
	Tier         string          `json:"tier,omitempty"`
	Required     bool            `json:"required,omitempty"`
	Condition    *Condition      `json:"condition,omitempty"`
	Capabilities []string        `json:"capabilities,omitempty"`
	TokenCost    int             `json:"tokenCost"`
	Scores       DimensionScores `json:"scores"`
	Body         string          `json:"body,omitempty"`

	// Dynamic names a built-in content generator. When set, Body and
	// TokenCost are materialized from the snapshot before scoring.
	Dynamic string `json:"dynamic,omitempty"`
}

// Weights is a weighting scheme across the four value dimensions.
// Callers normalize with Normalized before scoring.
type Weights struct {
	Safety     float64 `json:"safety" yaml:"safety"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
	Accuracy   float64 `json:"accuracy" yaml:"accuracy"`
	Base       float64 `json:"base" yaml:"base"`
}

// Normalized returns the weights scaled to sum to 1.
// All weights must be non-negative and at least one must be positive.
func (w Weights) Normalized() (Weights, error) {
	if w.Safety < 0 || w.Efficiency < 0 || w.Accuracy < 0 || w.Base < 0 {
		return Weights{}, fmt.Errorf("%w: weights must be non-negative", ErrCatalogInvalid)
	}
	sum := w.Safety + w.Efficiency + w.Accuracy + w.Base
	if sum <= 0 {
		return Weights{}, fmt.Errorf("%w: weights sum to zero", ErrCatalogInvalid)
	}
	return Weights{
		Safety:     w.Safety / sum,
		Efficiency: w.Efficiency / sum,
		Accuracy:   w.Accuracy / sum,
		Base:       w.Base / sum,
	}, nil
}

// Built-in preset names.
const (
	PresetSafe      = "safe"
	PresetEfficient = "efficient"
	PresetAccurate  = "accurate"
	PresetBalanced  = "balanced"
)

// BuiltinPresets returns the built-in weight presets, un-normalized.
// A catalog may define additional presets; catalog presets shadow
// built-ins of the same name.
func BuiltinPresets() map[string]Weights {
	return map[string]Weights{
		PresetSafe:      {Safety: 0.7, Efficiency: 0.1, Accuracy: 0.1, Base: 0.1},
		PresetEfficient: {Safety: 0.1, Efficiency: 0.6, Accuracy: 0.2, Base: 0.1},
		PresetAccurate:  {Safety: 0.1, Efficiency: 0.2, Accuracy: 0.6, Base: 0.1},
		PresetBalanced:  {Safety: 0.25, Efficiency: 0.25, Accuracy: 0.25, Base: 0.25},
	}
}

// PresetDescriptions returns the preset names with one-line descriptions,
// in a fixed listing order.
func PresetDescriptions() [][2]string {
	return [][2]string{
		{PresetSafe, "Prioritizes safety-critical sections"},
		{PresetEfficient, "Prioritizes efficiency-boosting sections"},
		{PresetAccurate, "Prioritizes accuracy-improving sections"},
		{PresetBalanced, "Equal weight across all dimensions"},
	}
}

// ─── Project snapshot ────────────────────────────────────────────────────────

// ProtectedFile is a file under a mutation lock.
type ProtectedFile struct {
	Path   string `json:"path"`
	Level  string `json:"level"` // "frozen" or "restricted"
	Reason string `json:"reason,omitempty"`
}

// Domain is a named architectural area of the indexed tree.
type Domain struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FileCount   int    `json:"fileCount"`
}

// Hack is an open temporary-code marker.
type Hack struct {
	File    string `json:"file"`
	Reason  string `json:"reason"`
	AgeDays int    `json:"ageDays"`
	Expired bool   `json:"expired"`
}

// Attempt is a recorded debugging attempt that has not been resolved.
type Attempt struct {
	ID       string `json:"id"`
	Problem  string `json:"problem"`
	Failures int    `json:"failures"`
}

// Convention is a detected naming convention for one symbol kind.
type Convention struct {
	Kind       string  `json:"kind"` // e.g. "function", "type", "constant"
	Style      string  `json:"style"`
	Confidence float64 `json:"confidence"`
}

// Snapshot is the immutable set of project facts consumed by condition
// evaluation and dynamic content generation. It is captured once per
// invocation, before any conditions are evaluated; the engine never
// re-reads it mid-selection.
type Snapshot struct {
	PrimaryLanguage string          `json:"primaryLanguage,omitempty"`
	Capabilities    []string        `json:"capabilities,omitempty"`
	ProtectedFiles  []ProtectedFile `json:"protectedFiles,omitempty"`
	Domains         []Domain        `json:"domains,omitempty"`
	Hacks           []Hack          `json:"hacks,omitempty"`
	FailedAttempts  []Attempt       `json:"failedAttempts,omitempty"`
	Conventions     []Convention    `json:"conventions,omitempty"`

	// Unavailable marks a snapshot built without a readable index cache.
	// The engine degrades gracefully: required and static sections still
	// run, dynamic context is effectively disabled, and a warning is
	// attached to the result.
	Unavailable bool `json:"-"`
}

// EmptySnapshot returns the snapshot used when the index cache is missing
// or unreadable.
func EmptySnapshot() Snapshot {
	return Snapshot{Unavailable: true}
}

// FrozenCount returns the number of frozen files.
func (s Snapshot) FrozenCount() int { return s.countLevel("frozen") }

// RestrictedCount returns the number of restricted files.
func (s Snapshot) RestrictedCount() int { return s.countLevel("restricted") }

// ProtectedCount returns the total number of protected files.
func (s Snapshot) ProtectedCount() int { return len(s.ProtectedFiles) }

// ExpiredHackCount returns the number of open hacks past their expiry.
func (s Snapshot) ExpiredHackCount() int {
	n := 0
	for _, h := range s.Hacks {
		if h.Expired {
			n++
		}
	}
	return n
}

func (s Snapshot) countLevel(level string) int {
	n := 0
	for _, f := range s.ProtectedFiles {
		if f.Level == level {
			n++
		}
	}
	return n
}
