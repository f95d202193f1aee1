package search

import "github.com/codesift/codesift/pkg/types"

// BytesPerToken is the fixed heuristic for the token budget.
const BytesPerToken = 4

// Budget caps the served result set. Zero values mean unlimited.
type Budget struct {
	MaxResults int
	MaxBytes   int
	MaxTokens  int
}

// Truncate applies the budgets in order: max-results, then max-bytes, then
// max-tokens. Each byte-like budget drops the first result that would exceed
// it and stops; results dropped for one budget are never reconsidered against
// a later, looser one. The returned slice is always a prefix of the input.
func Truncate(results []types.ScoredResult, b Budget) ([]types.ScoredResult, bool) {
	out := results
	truncated := false

	if b.MaxResults > 0 && len(out) > b.MaxResults {
		out = out[:b.MaxResults]
		truncated = true
	}

	if b.MaxBytes > 0 {
		kept, cut := prefixWithin(out, b.MaxBytes)
		out, truncated = kept, truncated || cut
	}

	if b.MaxTokens > 0 {
		kept, cut := prefixWithin(out, b.MaxTokens*BytesPerToken)
		out, truncated = kept, truncated || cut
	}

	return out, truncated
}

// prefixWithin keeps the longest prefix whose cumulative content size stays
// within byteBudget.
func prefixWithin(results []types.ScoredResult, byteBudget int) ([]types.ScoredResult, bool) {
	total := 0
	for i := range results {
		total += len(results[i].Content)
		if total > byteBudget {
			return results[:i], true
		}
	}
	return results, false
}
