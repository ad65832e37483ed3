package primer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed defaults.json
var defaultCatalogJSON []byte

// Catalog is the versioned table of candidate sections plus optional
// catalog-defined weight presets. It is loaded once per invocation and
// treated as immutable for its duration.
type Catalog struct {
	Version  string             `json:"version"`
	Sections []Section          `json:"sections"`
	Presets  map[string]Weights `json:"presets,omitempty"`
}

// Overrides is the project-level customization file. Sections replace a
// base section with the same id or append as new ids; DisabledSections
// removes base sections entirely; Presets add or shadow named presets.
type Overrides struct {
	Sections         []Section          `json:"sections,omitempty"`
	DisabledSections []string           `json:"disabledSections,omitempty"`
	Presets          map[string]Weights `json:"presets,omitempty"`
}

// LoadDefaultCatalog parses and validates the built-in catalog.
// The defaults are embedded at compile time, so failure here is a build
// defect, not an environment problem.
func LoadDefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogJSON)
}

// LoadCatalogFile parses and validates a catalog from disk, replacing the
// built-in defaults entirely.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCatalogInvalid, path, err)
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// LoadOverridesFile parses a project override file. A missing file is not
// an error — it returns an empty Overrides.
func LoadOverridesFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCatalogInvalid, path, err)
	}
	var ov Overrides
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCatalogInvalid, path, err)
	}
	return &ov, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks every section against the schema. Malformed entries are
// rejected at load time, never silently dropped.
func (c *Catalog) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: catalog has no sections", ErrCatalogInvalid)
	}
	seen := make(map[string]bool, len(c.Sections))
	categories := make(map[string]bool)
	for _, cat := range Categories() {
		categories[cat] = true
	}
	tiers := make(map[string]bool)
	for _, t := range Tiers() {
		tiers[t] = true
	}

	for i := range c.Sections {
		s := &c.Sections[i]
		if s.ID == "" {
			return fmt.Errorf("%w: section %d has empty id", ErrCatalogInvalid, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrCatalogInvalid, s.ID)
		}
		seen[s.ID] = true

		if !categories[s.Category] {
			return fmt.Errorf("%w: section %q has unknown category %q", ErrCatalogInvalid, s.ID, s.Category)
		}
		if s.Tier != "" && !tiers[s.Tier] {
			return fmt.Errorf("%w: section %q has unknown tier %q", ErrCatalogInvalid, s.ID, s.Tier)
		}
		if s.TokenCost < 0 {
			return fmt.Errorf("%w: section %q has negative token cost %d", ErrCatalogInvalid, s.ID, s.TokenCost)
		}
		if err := s.Scores.validate(); err != nil {
			return fmt.Errorf("%w: section %q: %v", ErrCatalogInvalid, s.ID, err)
		}
		if s.Condition != nil {
			if err := s.Condition.Validate(); err != nil {
				return fmt.Errorf("%w: section %q condition: %v", ErrCatalogInvalid, s.ID, err)
			}
		}
		if s.Dynamic != "" {
			if _, ok := dynamicGenerators[s.Dynamic]; !ok {
				return fmt.Errorf("%w: section %q references unknown dynamic generator %q", ErrCatalogInvalid, s.ID, s.Dynamic)
			}
		}
	}

	for name, w := range c.Presets {
		if _, err := w.Normalized(); err != nil {
			return fmt.Errorf("%w: preset %q: %v", ErrCatalogInvalid, name, err)
		}
	}
	return nil
}

// Merge applies project overrides to the catalog: an override section with
// an existing id replaces the base section; a new id appends; disabled ids
// are removed; override presets shadow base presets. The merged catalog is
// re-validated so override conflicts surface as load-time errors.
func (c *Catalog) Merge(ov *Overrides) (*Catalog, error) {
	if ov == nil {
		return c, nil
	}

	// Duplicate ids inside the override file itself are unresolvable.
	ovSeen := make(map[string]bool, len(ov.Sections))
	for _, s := range ov.Sections {
		if ovSeen[s.ID] {
			return nil, fmt.Errorf("%w: override defines section id %q twice", ErrCatalogInvalid, s.ID)
		}
		ovSeen[s.ID] = true
	}

	merged := &Catalog{
		Version: c.Version,
		Presets: make(map[string]Weights, len(c.Presets)+len(ov.Presets)),
	}
	for name, w := range c.Presets {
		merged.Presets[name] = w
	}
	for name, w := range ov.Presets {
		merged.Presets[name] = w
	}

	disabled := make(map[string]bool, len(ov.DisabledSections))
	for _, id := range ov.DisabledSections {
		disabled[id] = true
	}

	replaced := make(map[string]Section, len(ov.Sections))
	for _, s := range ov.Sections {
		replaced[s.ID] = s
	}

	appended := make(map[string]bool)
	for _, s := range c.Sections {
		if disabled[s.ID] {
			continue
		}
		if repl, ok := replaced[s.ID]; ok {
			merged.Sections = append(merged.Sections, repl)
			appended[s.ID] = true
			continue
		}
		merged.Sections = append(merged.Sections, s)
	}
	// New ids append in override-file order, after the base sections.
	for _, s := range ov.Sections {
		if !appended[s.ID] && !disabled[s.ID] {
			merged.Sections = append(merged.Sections, s)
		}
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Section returns the section with the given id, if present.
func (c *Catalog) Section(id string) (Section, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}
