package primer

// EstimateTokens approximates the token count of rendered text using the
// chars/4 heuristic (standard approximation for GPT/Claude tokenizers).
// It is the single size estimator for both static and dynamic sections, so
// dynamic costs stay comparable to the catalog's hand-estimated ones.
// Returns 0 for empty strings, at least 1 for non-empty strings.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}
