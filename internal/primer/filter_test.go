package primer

import (
	"errors"
	"testing"
)

func filterFixture() []Section {
	return []Section{
		{ID: "charter", Category: CategoryWorkflow, Required: true},
		{ID: "safety-reminders", Category: CategorySafety},
		{ID: "go-conventions", Category: CategoryConventions},
		{ID: "query-commands", Category: CategoryTooling, Capabilities: []string{"shell"}},
		{ID: "mcp-tools", Category: CategoryTooling, Capabilities: []string{"mcp"}},
		{ID: "protected-files", Category: CategorySafety, Dynamic: DynProtectedFiles},
	}
}

func ids(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.ID
	}
	return out
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestFilterCapabilities(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{Capabilities: []string{"shell"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := ids(kept)
	if !contains(got, "query-commands") {
		t.Error("shell-gated section should survive with shell capability")
	}
	if contains(got, "mcp-tools") {
		t.Error("mcp-gated section should be dropped without mcp capability")
	}
	if !contains(got, "charter") {
		t.Error("capability-free sections always survive")
	}
}

func TestFilterEmptyCapabilitySet(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := ids(kept)
	if contains(got, "query-commands") || contains(got, "mcp-tools") {
		t.Errorf("gated sections should be dropped when no capabilities advertised: %v", got)
	}
}

func TestFilterCategoryRestriction(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{
		Categories:   []string{CategorySafety},
		Capabilities: []string{"shell", "mcp"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := ids(kept)
	if len(got) != 2 || !contains(got, "safety-reminders") || !contains(got, "protected-files") {
		t.Errorf("category restriction kept %v", got)
	}
}

func TestFilterIncludeRescues(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{
		Categories: []string{CategorySafety},
		Include:    []string{"charter"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if !contains(ids(kept), "charter") {
		t.Error("include pattern should rescue a section from category restriction")
	}
}

func TestFilterExcludeWins(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{
		Include: []string{"safety-reminders"},
		Exclude: []string{"safety*"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := ids(kept)
	if contains(got, "safety-reminders") {
		t.Error("exclude must win over include")
	}
	// "safety*" matches the safety category too.
	if contains(got, "protected-files") {
		t.Error("exclude patterns match categories as well as ids")
	}
}

func TestFilterNoDynamic(t *testing.T) {
	kept, err := Filter(filterFixture(), FilterArgs{NoDynamic: true})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if contains(ids(kept), "protected-files") {
		t.Error("NoDynamic should drop dynamic sections")
	}
}

func TestFilterOrderIndependence(t *testing.T) {
	a, err := Filter(filterFixture(), FilterArgs{
		Include: []string{"charter", "go-conventions"},
		Exclude: []string{"tooling", "reference"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	b, err := Filter(filterFixture(), FilterArgs{
		Include: []string{"go-conventions", "charter"},
		Exclude: []string{"reference", "tooling"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	ai, bi := ids(a), ids(b)
	if len(ai) != len(bi) {
		t.Fatalf("pattern order changed result size: %v vs %v", ai, bi)
	}
	for i := range ai {
		if ai[i] != bi[i] {
			t.Fatalf("pattern order changed result: %v vs %v", ai, bi)
		}
	}
}

func TestFilterUnknownArgsFatal(t *testing.T) {
	cases := []struct {
		name string
		args FilterArgs
	}{
		{"unknown category", FilterArgs{Categories: []string{"wizardry"}}},
		{"unknown literal include", FilterArgs{Include: []string{"no-such-section"}}},
		{"unknown literal exclude", FilterArgs{Exclude: []string{"no-such-section"}}},
		{"malformed glob", FilterArgs{Exclude: []string{"[unclosed"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Filter(filterFixture(), tc.args)
			if !errors.Is(err, ErrUnknownFilter) {
				t.Errorf("err = %v, want ErrUnknownFilter", err)
			}
		})
	}

	// Globs that match nothing are allowed; only literals are checked.
	if _, err := Filter(filterFixture(), FilterArgs{Exclude: []string{"zzz*"}}); err != nil {
		t.Errorf("non-matching glob should not be fatal: %v", err)
	}
}
