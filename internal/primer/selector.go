package primer

import (
	"fmt"
	"math"
	"sort"
)

// Phase identifies which admission stage accepted a section.
type Phase string

const (
	PhaseRequired    Phase = "required"
	PhaseConditional Phase = "conditional"
	PhaseSafety      Phase = "safety"
	PhaseValue       Phase = "value"
)

// SelectedSection is a section admitted into the result, tagged with the
// phase that admitted it and its computed score.
type SelectedSection struct {
	Section
	Phase   Phase   `json:"phase"`
	Score   float64 `json:"score"`
	Density float64 `json:"density"`
}

// Result is the ordered outcome of a selection run.
type Result struct {
	Budget      int               `json:"budget"`
	TotalTokens int               `json:"totalTokensUsed"`
	OverBudget  bool              `json:"overBudget"`
	Sections    []SelectedSection `json:"sections"`

	// OmittedForBudget lists eligible section ids that did not fit,
	// in the order they were considered.
	OmittedForBudget []string `json:"omittedForBudget,omitempty"`

	// Warnings carries non-fatal conditions: omissions, suppressed
	// dynamic content, unreadable cache.
	Warnings []string `json:"warnings,omitempty"`
}

// Has reports whether a section id was admitted.
func (r *Result) Has(id string) bool {
	for _, s := range r.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Select runs the four-phase admission algorithm over a filtered,
// dynamic-expanded section set.
//
//  1. Required — always included, regardless of budget. This is the only
//     phase allowed to push the total over budget.
//  2. Conditional — sections with an explicit condition that evaluated
//     true, cheapest first (ties by id), admitted while they fit.
//  3. Safety — remaining safety-category sections, same admission rule.
//  4. Value-optimized — everything left, by descending value density.
//
// Phase 4 is a bounded greedy approximation of budgeted maximization, not
// an exact solver: it does not guarantee an optimal packing, only a
// deterministic and explainable one. (Exact DP over integer token costs
// would be feasible at this catalog size; greedy was chosen so admission
// order is trivially auditable via --explain.) Sections skipped for budget
// in any phase are never retried in a later phase.
//
// A consequence of the greedy skip: the admitted set does not grow
// monotonically with the budget. Extra room can let a denser, more
// expensive section in first, crowding out a cheaper one that a smaller
// budget accepted. Callers comparing runs at different budgets should
// expect reshuffles, not supersets.
//
// Sections whose declared condition evaluates false are ineligible for
// every phase. Sections with no condition are always applicable and
// compete in phases 3-4.
func Select(sections []Section, snap Snapshot, budget int, weights Weights) (*Result, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadBudget, budget)
	}

	res := &Result{Budget: budget}
	remaining := budget

	type candidate struct {
		sec         Section
		score       float64
		density     float64
		conditional bool
	}

	// Evaluate conditions and score everything up front; both are pure,
	// so doing this in a single pass cannot affect phase ordering.
	var pool []candidate
	for _, s := range sections {
		if s.Condition != nil && !s.Condition.Eval(snap) {
			continue
		}
		score := Score(s, weights)
		pool = append(pool, candidate{
			sec:         s,
			score:       score,
			density:     ValueDensity(score, s.TokenCost),
			conditional: s.Condition != nil,
		})
	}

	admitted := make(map[string]bool)
	omitted := make(map[string]bool)

	admit := func(c candidate, phase Phase) {
		res.Sections = append(res.Sections, SelectedSection{
			Section: c.sec,
			Phase:   phase,
			Score:   c.score,
			Density: c.density,
		})
		admitted[c.sec.ID] = true
		remaining -= c.sec.TokenCost
	}
	omit := func(c candidate) {
		omitted[c.sec.ID] = true
		res.OmittedForBudget = append(res.OmittedForBudget, c.sec.ID)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("section %q omitted for budget (cost %d)", c.sec.ID, c.sec.TokenCost))
	}
	// fits uses max(remaining, 0): once required sections overshoot, no
	// later phase admits anything.
	fits := func(c candidate) bool {
		r := remaining
		if r < 0 {
			r = 0
		}
		return c.sec.TokenCost <= r
	}

	// Phase 1: required. Catalog order, unconditional, budget may go
	// negative here and only here.
	for _, c := range pool {
		if c.sec.Required {
			admit(c, PhaseRequired)
		}
	}

	// Phase 2: conditionally relevant. Cheapest first so a single large
	// section cannot starve several small applicable ones.
	var conditional []candidate
	for _, c := range pool {
		if !c.sec.Required && c.conditional && !admitted[c.sec.ID] {
			conditional = append(conditional, c)
		}
	}
	sort.Slice(conditional, func(i, j int) bool {
		a, b := conditional[i].sec, conditional[j].sec
		if a.TokenCost != b.TokenCost {
			return a.TokenCost < b.TokenCost
		}
		return a.ID < b.ID
	})
	for _, c := range conditional {
		if fits(c) {
			admit(c, PhaseConditional)
		} else {
			omit(c)
		}
	}

	// Phase 3: safety category, ahead of generic value optimization so
	// risk-relevant content wins budget contention.
	var safety []candidate
	for _, c := range pool {
		if c.sec.Category == CategorySafety && !admitted[c.sec.ID] && !omitted[c.sec.ID] && !c.sec.Required {
			safety = append(safety, c)
		}
	}
	sort.Slice(safety, func(i, j int) bool {
		a, b := safety[i].sec, safety[j].sec
		if a.TokenCost != b.TokenCost {
			return a.TokenCost < b.TokenCost
		}
		return a.ID < b.ID
	})
	for _, c := range safety {
		if fits(c) {
			admit(c, PhaseSafety)
		} else {
			omit(c)
		}
	}

	// Phase 4: value-optimized greedy fill. The comparison chain is a
	// total order (density, |score|, cost, id), required for byte-identical
	// output across runs.
	var rest []candidate
	for _, c := range pool {
		if !admitted[c.sec.ID] && !omitted[c.sec.ID] && !c.sec.Required {
			rest = append(rest, c)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := rest[i], rest[j]
		if a.density != b.density {
			return a.density > b.density
		}
		if math.Abs(a.score) != math.Abs(b.score) {
			return math.Abs(a.score) > math.Abs(b.score)
		}
		if a.sec.TokenCost != b.sec.TokenCost {
			return a.sec.TokenCost < b.sec.TokenCost
		}
		return a.sec.ID < b.sec.ID
	})
	for _, c := range rest {
		if fits(c) {
			admit(c, PhaseValue)
		} else {
			omit(c)
		}
	}

	for _, s := range res.Sections {
		res.TotalTokens += s.TokenCost
	}
	res.OverBudget = res.TotalTokens > budget
	if res.OverBudget {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("required sections exceed budget: %d tokens used of %d", res.TotalTokens, budget))
	}
	return res, nil
}
