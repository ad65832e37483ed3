package primer

import (
	"fmt"
	"path"
	"strings"
)

// FilterArgs are the invocation-level restrictions applied before scoring.
// Filtering is set-based and order-independent: the output never depends on
// the order patterns were supplied in.
type FilterArgs struct {
	// Categories restricts the pool to these category ids. Empty means
	// all categories.
	Categories []string

	// Include and Exclude are glob-style patterns matched against both
	// section ids and categories. An include match rescues a section from
	// the category restriction; an exclude match always removes it.
	Include []string
	Exclude []string

	// Capabilities is the invoking environment's capability set. A
	// section requiring a capability outside this set is dropped. Empty
	// means the environment advertised nothing; only capability-free
	// sections survive.
	Capabilities []string

	// NoDynamic removes dynamic sections entirely, before scoring —
	// equivalent to failing their filter check.
	NoDynamic bool
}

// Filter removes catalog sections that fail capability requirements,
// include/exclude patterns, or category restrictions. The returned slice
// preserves catalog order; the input is not mutated.
//
// Filter arguments referencing unrecognized identifiers are fatal: every
// --categories entry must be a known category, and every literal (non-glob)
// include/exclude token must name an existing section id or category.
func Filter(sections []Section, args FilterArgs) ([]Section, error) {
	if err := validateFilterArgs(sections, args); err != nil {
		return nil, err
	}

	caps := make(map[string]bool, len(args.Capabilities))
	for _, c := range args.Capabilities {
		caps[c] = true
	}
	restrict := make(map[string]bool, len(args.Categories))
	for _, c := range args.Categories {
		restrict[c] = true
	}

	var kept []Section
	for _, s := range sections {
		if args.NoDynamic && s.Dynamic != "" {
			continue
		}
		if !hasCapabilities(s, caps) {
			continue
		}
		if matchesAny(s, args.Exclude) {
			continue
		}
		if len(restrict) > 0 && !restrict[s.Category] && !matchesAny(s, args.Include) {
			continue
		}
		kept = append(kept, s)
	}
	return kept, nil
}

func validateFilterArgs(sections []Section, args FilterArgs) error {
	known := make(map[string]bool)
	for _, c := range Categories() {
		known[c] = true
	}
	for _, c := range args.Categories {
		if !known[c] {
			return fmt.Errorf("%w: category %q", ErrUnknownFilter, c)
		}
	}

	ids := make(map[string]bool, len(sections))
	for _, s := range sections {
		ids[s.ID] = true
	}
	for _, pats := range [][]string{args.Include, args.Exclude} {
		for _, p := range pats {
			if _, err := path.Match(p, "probe"); err != nil {
				return fmt.Errorf("%w: bad pattern %q", ErrUnknownFilter, p)
			}
			if !strings.ContainsAny(p, "*?[") && !ids[p] && !known[p] {
				return fmt.Errorf("%w: %q matches no section id or category", ErrUnknownFilter, p)
			}
		}
	}
	return nil
}

// hasCapabilities reports whether every capability the section requires is
// present in the environment set. Sections with no requirements always pass.
func hasCapabilities(s Section, caps map[string]bool) bool {
	for _, need := range s.Capabilities {
		if !caps[need] {
			return false
		}
	}
	return true
}

func matchesAny(s Section, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, s.ID); ok {
			return true
		}
		if ok, _ := path.Match(p, s.Category); ok {
			return true
		}
	}
	return false
}
