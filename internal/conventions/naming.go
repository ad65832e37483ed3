// Package conventions detects naming conventions from indexed symbols.
package conventions

import (
	"sort"
	"strings"
	"unicode"
)

// Naming style labels.
const (
	StyleCamel          = "camelCase"
	StylePascal         = "PascalCase"
	StyleSnake          = "snake_case"
	StyleScreamingSnake = "SCREAMING_SNAKE_CASE"
	StyleKebab          = "kebab-case"
	StyleMixed          = "mixed"
)

// Detected is one dominant style for a symbol kind, with the share of
// symbols that follow it.
type Detected struct {
	Kind       string
	Style      string
	Confidence float64
}

// Classify labels a single identifier with its naming style. Identifiers
// that fit no recognized style are labeled mixed.
func Classify(name string) string {
	if name == "" {
		return StyleMixed
	}
	// Leading underscores are conventional in several languages and do not
	// change the style of what follows.
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return StyleMixed
	}

	hasUpper := strings.IndexFunc(name, unicode.IsUpper) >= 0
	hasLower := strings.IndexFunc(name, unicode.IsLower) >= 0
	hasUnderscore := strings.Contains(name, "_")
	hasDash := strings.Contains(name, "-")

	switch {
	case hasDash && !hasUnderscore && !hasUpper:
		return StyleKebab
	case hasDash:
		return StyleMixed
	case hasUnderscore && !hasLower:
		return StyleScreamingSnake
	case hasUnderscore && !hasUpper:
		return StyleSnake
	case hasUnderscore:
		return StyleMixed
	case !hasLower && len(name) > 1:
		return StyleScreamingSnake
	case unicode.IsUpper(rune(name[0])):
		return StylePascal
	default:
		return StyleCamel
	}
}

// Detect returns the dominant style per symbol kind. A style must cover at
// least minShare of a kind's symbols to be reported; kinds with fewer than
// minCount symbols are skipped as statistically meaningless.
func Detect(names map[string][]string) []Detected {
	const (
		minCount = 3
		minShare = 0.6
	)

	var out []Detected
	for kind, list := range names {
		if len(list) < minCount {
			continue
		}
		counts := make(map[string]int)
		for _, n := range list {
			counts[Classify(n)]++
		}
		bestStyle, bestCount := "", 0
		for style, c := range counts {
			if c > bestCount || (c == bestCount && style < bestStyle) {
				bestStyle, bestCount = style, c
			}
		}
		share := float64(bestCount) / float64(len(list))
		if bestStyle == StyleMixed || share < minShare {
			continue
		}
		out = append(out, Detected{Kind: kind, Style: bestStyle, Confidence: share})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
