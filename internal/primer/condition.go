package primer

import (
	"fmt"
)

// Condition is a structured predicate over the project snapshot — a closed
// language, not embedded scripting. A condition is exactly one of:
//
//   - a leaf comparison: {path, op, value}
//   - a conjunction:     {allOf: [...]}
//   - a disjunction:     {anyOf: [...]}
//   - a negation:        {not: {...}}
//
// Leaf paths form a fixed vocabulary (see resolve* below); unknown paths
// are rejected at catalog load time so evaluation can never fail. A section
// without a condition is always applicable once filters pass.
type Condition struct {
	Path  string `json:"path,omitempty"`
	Op    string `json:"op,omitempty"`
	Value any    `json:"value,omitempty"`

	AllOf []Condition `json:"allOf,omitempty"`
	AnyOf []Condition `json:"anyOf,omitempty"`
	Not   *Condition  `json:"not,omitempty"`
}

// Comparison operators for leaf conditions.
const (
	OpEq       = "=="
	OpNe       = "!="
	OpGt       = ">"
	OpGte      = ">="
	OpLt       = "<"
	OpLte      = "<="
	OpContains = "contains"
)

// Numeric snapshot paths.
var numericPaths = map[string]func(Snapshot) int{
	"protected.count":           func(s Snapshot) int { return s.ProtectedCount() },
	"protected.frozenCount":     func(s Snapshot) int { return s.FrozenCount() },
	"protected.restrictedCount": func(s Snapshot) int { return s.RestrictedCount() },
	"domains.count":             func(s Snapshot) int { return len(s.Domains) },
	"hacks.count":               func(s Snapshot) int { return len(s.Hacks) },
	"hacks.expiredCount":        func(s Snapshot) int { return s.ExpiredHackCount() },
	"attempts.count":            func(s Snapshot) int { return len(s.FailedAttempts) },
	"conventions.count":         func(s Snapshot) int { return len(s.Conventions) },
}

// String snapshot paths.
var stringPaths = map[string]func(Snapshot) string{
	"language": func(s Snapshot) string { return s.PrimaryLanguage },
}

// List snapshot paths (membership tests via "contains").
var listPaths = map[string]func(Snapshot) []string{
	"capabilities": func(s Snapshot) []string { return s.Capabilities },
}

// Validate checks the condition against the closed predicate vocabulary.
// It is called once at catalog load time; Eval assumes a valid condition.
func (c *Condition) Validate() error {
	forms := 0
	if c.Path != "" || c.Op != "" || c.Value != nil {
		forms++
	}
	if len(c.AllOf) > 0 {
		forms++
	}
	if len(c.AnyOf) > 0 {
		forms++
	}
	if c.Not != nil {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("condition must be exactly one of leaf/allOf/anyOf/not")
	}

	switch {
	case len(c.AllOf) > 0:
		for i := range c.AllOf {
			if err := c.AllOf[i].Validate(); err != nil {
				return fmt.Errorf("allOf[%d]: %w", i, err)
			}
		}
		return nil
	case len(c.AnyOf) > 0:
		for i := range c.AnyOf {
			if err := c.AnyOf[i].Validate(); err != nil {
				return fmt.Errorf("anyOf[%d]: %w", i, err)
			}
		}
		return nil
	case c.Not != nil:
		if err := c.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
		return nil
	}

	return c.validateLeaf()
}

func (c *Condition) validateLeaf() error {
	if _, ok := numericPaths[c.Path]; ok {
		switch c.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("operator %q not valid for numeric path %q", c.Op, c.Path)
		}
		if _, ok := asNumber(c.Value); !ok {
			return fmt.Errorf("path %q requires a numeric value, got %T", c.Path, c.Value)
		}
		return nil
	}
	if _, ok := stringPaths[c.Path]; ok {
		if c.Op != OpEq && c.Op != OpNe {
			return fmt.Errorf("operator %q not valid for string path %q", c.Op, c.Path)
		}
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("path %q requires a string value, got %T", c.Path, c.Value)
		}
		return nil
	}
	if _, ok := listPaths[c.Path]; ok {
		if c.Op != OpContains {
			return fmt.Errorf("operator %q not valid for list path %q (use %q)", c.Op, c.Path, OpContains)
		}
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("path %q requires a string value, got %T", c.Path, c.Value)
		}
		return nil
	}
	return fmt.Errorf("unknown condition path %q", c.Path)
}

// Eval evaluates the condition against the snapshot. It is pure, has no
// side effects, and is safe to run for every section regardless of order.
// A nil condition is always true.
func (c *Condition) Eval(snap Snapshot) bool {
	if c == nil {
		return true
	}
	switch {
	case len(c.AllOf) > 0:
		for i := range c.AllOf {
			if !c.AllOf[i].Eval(snap) {
				return false
			}
		}
		return true
	case len(c.AnyOf) > 0:
		for i := range c.AnyOf {
			if c.AnyOf[i].Eval(snap) {
				return true
			}
		}
		return false
	case c.Not != nil:
		return !c.Not.Eval(snap)
	}
	return c.evalLeaf(snap)
}

func (c *Condition) evalLeaf(snap Snapshot) bool {
	if get, ok := numericPaths[c.Path]; ok {
		want, _ := asNumber(c.Value)
		got := float64(get(snap))
		switch c.Op {
		case OpEq:
			return got == want
		case OpNe:
			return got != want
		case OpGt:
			return got > want
		case OpGte:
			return got >= want
		case OpLt:
			return got < want
		case OpLte:
			return got <= want
		}
		return false
	}
	if get, ok := stringPaths[c.Path]; ok {
		want, _ := c.Value.(string)
		if c.Op == OpNe {
			return get(snap) != want
		}
		return get(snap) == want
	}
	if get, ok := listPaths[c.Path]; ok {
		want, _ := c.Value.(string)
		for _, v := range get(snap) {
			if v == want {
				return true
			}
		}
		return false
	}
	return false
}

// asNumber coerces a JSON-decoded value to float64. encoding/json decodes
// all numbers as float64, but hand-constructed conditions in tests may use
// int, so both are accepted.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
