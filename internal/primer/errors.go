package primer

import "errors"

// Fatal input errors. Callers match with errors.Is; the wrapped message
// always names the offending input (bad preset name, bad filter token,
// budget value) so the failure is actionable.
var (
	// ErrCatalogInvalid reports a catalog that fails schema validation,
	// including unresolvable override conflicts.
	ErrCatalogInvalid = errors.New("invalid section catalog")

	// ErrBadBudget reports a non-positive token budget.
	ErrBadBudget = errors.New("token budget must be a positive integer")

	// ErrUnknownPreset reports a weight preset name that is neither
	// built-in nor defined by the catalog.
	ErrUnknownPreset = errors.New("unknown weight preset")

	// ErrUnknownFilter reports an include/exclude/category filter that
	// references an unrecognized identifier.
	ErrUnknownFilter = errors.New("unrecognized filter identifier")

	// ErrUnknownFormat reports an unrecognized output format name.
	ErrUnknownFormat = errors.New("unknown output format")
)
