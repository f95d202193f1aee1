package match

import (
	"strings"

	"github.com/codesift/codesift/internal/query"
	"github.com/codesift/codesift/pkg/types"
)

// Matcher evaluates one query plan against chunks. It is read-only after
// construction and safe for concurrent use across file workers.
type Matcher struct {
	plan  *query.Plan
	exact bool

	// Per-term needles prepared once. In fuzzy mode a needle is the stemmed
	// token sequence of the term; in exact mode the literal text.
	needles map[string][]string
}

// NewMatcher prepares a matcher for the plan. With exact set, tokenization is
// disabled and terms match as case-sensitive literal substrings of the raw
// chunk text.
func NewMatcher(plan *query.Plan, exact bool) *Matcher {
	m := &Matcher{plan: plan, exact: exact, needles: make(map[string][]string)}
	if !exact {
		for _, term := range plan.Terms() {
			m.needles[term] = StemAll(Tokenize(term))
		}
	}
	return m
}

// MatchChunk evaluates the plan against the chunk. On a match it records
// every literal term matched along with its raw occurrence count, sets the
// chunk token count, and returns true. A nil plan root (filter-only query)
// matches every chunk.
func (m *Matcher) MatchChunk(c *types.Chunk) bool {
	var stream []string
	if !m.exact {
		stream = StemAll(Tokenize(c.Content))
		c.TokenCount = len(stream)
	} else {
		c.TokenCount = len(c.Content) / 4
	}

	if m.plan.Root == nil {
		return true
	}

	counts := make(map[string]int)
	matched := m.eval(m.plan.Root, c, stream, counts)
	if !matched {
		return false
	}
	for term, n := range counts {
		if n > 0 {
			c.RecordMatch(term, n)
		}
	}
	return true
}

// eval walks the clause tree. And requires both sides, Or at least one; both
// sides are always evaluated so that every matched term is recorded.
func (m *Matcher) eval(clause *query.Clause, c *types.Chunk, stream []string, counts map[string]int) bool {
	switch clause.Op {
	case query.OpAnd:
		left := m.eval(clause.Left, c, stream, counts)
		right := m.eval(clause.Right, c, stream, counts)
		return left && right
	case query.OpOr:
		left := m.eval(clause.Left, c, stream, counts)
		right := m.eval(clause.Right, c, stream, counts)
		return left || right
	default:
		n := m.countTerm(clause, c, stream)
		if n > 0 {
			counts[clause.Term] += n
		}
		return n > 0
	}
}

// countTerm returns the raw occurrence count of a term clause in the chunk.
func (m *Matcher) countTerm(clause *query.Clause, c *types.Chunk, stream []string) int {
	if m.exact {
		// Phrases and plain terms alike are literal, case-sensitive substrings.
		return strings.Count(c.Content, clause.Term)
	}

	needle := m.needles[clause.Term]
	if len(needle) == 0 {
		return 0
	}
	if len(needle) == 1 && !clause.Phrase {
		count := 0
		for _, tok := range stream {
			if tok == needle[0] {
				count++
			}
		}
		return count
	}
	// Phrase (or multi-token term): contiguous token match.
	return countSubsequence(stream, needle)
}

// countSubsequence counts contiguous occurrences of needle in stream.
func countSubsequence(stream, needle []string) int {
	if len(needle) == 0 || len(stream) < len(needle) {
		return 0
	}
	count := 0
outer:
	for i := 0; i+len(needle) <= len(stream); i++ {
		for j, n := range needle {
			if stream[i+j] != n {
				continue outer
			}
		}
		count++
	}
	return count
}
