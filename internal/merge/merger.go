// Package merge coalesces adjacent matched chunks within one file.
package merge

import (
	"strings"

	"github.com/codesift/codesift/pkg/types"
)

// DefaultThreshold is the maximum line gap between two chunks for them to be
// considered adjacent.
const DefaultThreshold = 5

// Merger merges chunks whose line ranges overlap or sit within Threshold
// lines of each other.
type Merger struct {
	// Threshold is the maximum allowed gap in lines. Negative means
	// DefaultThreshold.
	Threshold int

	// Disabled reports each matched chunk independently even when adjacent.
	Disabled bool
}

// New creates a Merger with the given threshold; pass a negative threshold
// for the default.
func New(threshold int, disabled bool) *Merger {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Merger{Threshold: threshold, Disabled: disabled}
}

// MergeFile merges one file's matched chunks in a single left-to-right pass.
// Input must be sorted by start line (extraction emits chunks in source
// order); fileLines is the file's full content used to re-slice the widened
// ranges. The pass is linear and idempotent.
func (m *Merger) MergeFile(chunks []*types.Chunk, fileLines []string) []*types.Chunk {
	if m.Disabled || len(chunks) <= 1 {
		return chunks
	}

	merged := make([]*types.Chunk, 0, len(chunks))
	current := chunks[0]

	for _, next := range chunks[1:] {
		if m.adjacent(current, next) {
			current = combine(current, next, fileLines)
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}

// adjacent reports whether two ordered chunks overlap or sit within the
// merge threshold.
func (m *Merger) adjacent(a, b *types.Chunk) bool {
	if b.StartLine <= a.EndLine {
		return true // overlap
	}
	return b.StartLine-a.EndLine <= m.Threshold
}

// combine merges b into a: the line range widens to the union span, term sets
// union, occurrence counts add, and the text is re-sliced for the new range.
func combine(a, b *types.Chunk, fileLines []string) *types.Chunk {
	start := a.StartLine
	end := a.EndLine
	if b.StartLine < start {
		start = b.StartLine
	}
	if b.EndLine > end {
		end = b.EndLine
	}
	if end > len(fileLines) && len(fileLines) > 0 {
		end = len(fileLines)
	}

	out := &types.Chunk{
		File:      a.File,
		StartLine: start,
		EndLine:   end,
		Kind:      mergedKind(a, b),
		Symbol:    a.Symbol,
		Content:   strings.Join(fileLines[start-1:end], "\n"),
	}
	out.TokenCount = a.TokenCount + b.TokenCount

	for term := range a.MatchedTerms {
		out.RecordMatch(term, a.TermCounts[term])
	}
	for term := range b.MatchedTerms {
		out.RecordMatch(term, b.TermCounts[term])
	}
	return out
}

// mergedKind keeps the kind when both sides agree; mixed-kind merges are
// reported as file-level regions.
func mergedKind(a, b *types.Chunk) types.ChunkKind {
	if a.Kind == b.Kind {
		return a.Kind
	}
	return types.ChunkFile
}
