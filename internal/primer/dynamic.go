package primer

import (
	"fmt"
	"sort"
	"strings"
)

// Dynamic generator ids. Each synthesizes a section body from live snapshot
// facts; the set is fixed and closed, and catalog validation rejects any
// section naming a generator outside it.
const (
	DynProtectedFiles    = "protected-files"
	DynActiveDomains     = "active-domains"
	DynOpenHacks         = "open-hacks"
	DynFailedAttempts    = "failed-attempts"
	DynNamingConventions = "naming-conventions"
)

var dynamicGenerators = map[string]func(Snapshot) (string, error){
	DynProtectedFiles:    renderProtectedFiles,
	DynActiveDomains:     renderActiveDomains,
	DynOpenHacks:         renderOpenHacks,
	DynFailedAttempts:    renderFailedAttempts,
	DynNamingConventions: renderNamingConventions,
}

// ExpandDynamic materializes dynamic section bodies from the snapshot and
// assigns their token costs with the shared size estimator. A generator
// that fails or produces no content drops only its own section, with a
// warning — never the whole run. Static sections pass through untouched.
func ExpandDynamic(sections []Section, snap Snapshot) ([]Section, []string) {
	out := make([]Section, 0, len(sections))
	var warnings []string

	for _, s := range sections {
		if s.Dynamic == "" {
			out = append(out, s)
			continue
		}
		gen := dynamicGenerators[s.Dynamic]
		body, err := gen(snap)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dynamic section %q dropped: %v", s.ID, err))
			continue
		}
		if body == "" {
			warnings = append(warnings, fmt.Sprintf("dynamic section %q produced no content", s.ID))
			continue
		}
		s.Body = body
		s.TokenCost = EstimateTokens(body)
		out = append(out, s)
	}
	return out, warnings
}

func renderProtectedFiles(snap Snapshot) (string, error) {
	if len(snap.ProtectedFiles) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) are under mutation locks:\n", len(snap.ProtectedFiles))
	for _, f := range snap.ProtectedFiles {
		fmt.Fprintf(&b, "  %s [%s]", f.Path, f.Level)
		if f.Reason != "" {
			fmt.Fprintf(&b, " — %s", f.Reason)
		}
		b.WriteString("\n")
	}
	b.WriteString("Frozen files must not be modified. Restricted files need explicit approval first.")
	return b.String(), nil
}

func renderActiveDomains(snap Snapshot) (string, error) {
	if len(snap.Domains) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Domains in this codebase:\n")
	for _, d := range snap.Domains {
		fmt.Fprintf(&b, "  %s (%d files)", d.Name, d.FileCount)
		if d.Description != "" {
			fmt.Fprintf(&b, " — %s", d.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("Details: ctxprimer query domain <name>")
	return b.String(), nil
}

func renderOpenHacks(snap Snapshot) (string, error) {
	if len(snap.Hacks) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d open temporary-code marker(s):\n", len(snap.Hacks))
	for _, h := range snap.Hacks {
		fmt.Fprintf(&b, "  %s — %s (%d days old", h.File, h.Reason, h.AgeDays)
		if h.Expired {
			b.WriteString(", EXPIRED")
		}
		b.WriteString(")\n")
	}
	b.WriteString("Expired hacks should be cleaned up, not extended.")
	return b.String(), nil
}

func renderFailedAttempts(snap Snapshot) (string, error) {
	if len(snap.FailedAttempts) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Approaches already tried and failed — do not repeat them:\n")
	for _, a := range snap.FailedAttempts {
		fmt.Fprintf(&b, "  [%s] %s (%d failed attempt(s))\n", a.ID, a.Problem, a.Failures)
	}
	return b.String(), nil
}

func renderNamingConventions(snap Snapshot) (string, error) {
	if len(snap.Conventions) == 0 {
		return "", nil
	}
	// Stable order regardless of how the snapshot builder collected them.
	convs := make([]Convention, len(snap.Conventions))
	copy(convs, snap.Conventions)
	sort.Slice(convs, func(i, j int) bool { return convs[i].Kind < convs[j].Kind })

	var b strings.Builder
	b.WriteString("Detected naming conventions — match them in new code:\n")
	for _, c := range convs {
		fmt.Fprintf(&b, "  %s: %s (%.0f%% of symbols)\n", c.Kind, c.Style, c.Confidence*100)
	}
	return b.String(), nil
}
