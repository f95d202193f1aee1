package types

import (
	"sort"
	"time"
)

// ScoredResult is one ranked search hit handed to a renderer.
type ScoredResult struct {
	File         string    `json:"file"`
	StartLine    int       `json:"start_line"`
	EndLine      int       `json:"end_line"`
	Kind         ChunkKind `json:"kind"`
	Content      string    `json:"content"`
	Score        float64   `json:"score"`
	MatchedTerms []string  `json:"matched_terms"`
}

// Validate checks if the result carries the fields a renderer requires.
func (r *ScoredResult) Validate() error {
	if r.File == "" {
		return ErrMissingFileInfo
	}
	if r.StartLine < 1 || r.EndLine < r.StartLine {
		return ErrInvalidLineRange
	}
	return nil
}

// Less orders results by (score desc, file asc, start line asc) so that
// equal-score hits always come back in the same order.
func (r *ScoredResult) Less(other *ScoredResult) bool {
	if r.Score != other.Score {
		return r.Score > other.Score
	}
	if r.File != other.File {
		return r.File < other.File
	}
	return r.StartLine < other.StartLine
}

// SortResults sorts results in the canonical total order.
func SortResults(results []ScoredResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Less(&results[j])
	})
}

// Response is the format-agnostic outcome of one search, consumed by renderers.
type Response struct {
	Results      []ScoredResult `json:"results"`
	TotalMatches int            `json:"total_matches"` // before truncation
	Plan         string         `json:"plan,omitempty"` // realized query plan echo
	Elapsed      time.Duration  `json:"elapsed"`

	// Diagnostics
	SessionID      string `json:"session_id,omitempty"`
	CacheHit       bool   `json:"cache_hit,omitempty"`
	NeuralFallback bool   `json:"neural_fallback,omitempty"` // cross-encoder failed, lexical scores used
	Truncated      bool   `json:"truncated,omitempty"`
	FilesSearched  int    `json:"files_searched"`
}
