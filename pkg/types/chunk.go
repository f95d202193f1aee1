package types

import "errors"

// ChunkKind labels the syntactic construct a chunk was cut along.
type ChunkKind string

const (
	ChunkFunction  ChunkKind = "function"
	ChunkMethod    ChunkKind = "method"
	ChunkStruct    ChunkKind = "struct"
	ChunkInterface ChunkKind = "interface"
	ChunkType      ChunkKind = "type"
	ChunkImpl      ChunkKind = "impl"
	ChunkEnum      ChunkKind = "enum"
	ChunkClass     ChunkKind = "class"
	ChunkConst     ChunkKind = "const"
	ChunkVar       ChunkKind = "var"
	ChunkFile      ChunkKind = "file" // whole-file fallback
)

// Chunk is a contiguous, syntactically meaningful region of one source file.
// It owns a copy of its text; the matcher fills in MatchedTerms and TermCounts.
type Chunk struct {
	// Location
	File      string // path relative to the search root
	StartLine int    // 1-based, inclusive
	EndLine   int    // 1-based, inclusive

	// Content
	Content string
	Symbol  string // declaration identifier, empty for file-level chunks

	// Metadata
	Kind ChunkKind

	// Populated during matching
	MatchedTerms map[string]struct{}
	TermCounts   map[string]int
	TokenCount   int
}

// RecordMatch notes that term matched in this chunk count times.
func (c *Chunk) RecordMatch(term string, count int) {
	if c.MatchedTerms == nil {
		c.MatchedTerms = make(map[string]struct{})
	}
	if c.TermCounts == nil {
		c.TermCounts = make(map[string]int)
	}
	c.MatchedTerms[term] = struct{}{}
	c.TermCounts[term] += count
}

// Matched reports whether term matched in this chunk.
func (c *Chunk) Matched(term string) bool {
	_, ok := c.MatchedTerms[term]
	return ok
}

// Lines returns the number of lines the chunk spans.
func (c *Chunk) Lines() int {
	return c.EndLine - c.StartLine + 1
}

// Validate checks structural invariants of the chunk.
func (c *Chunk) Validate() error {
	if c.File == "" {
		return errors.New("chunk file is required")
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	return nil
}

// ValidateKind checks if the chunk kind is one of the known labels.
func (c *Chunk) ValidateKind() error {
	switch c.Kind {
	case ChunkFunction, ChunkMethod, ChunkStruct, ChunkInterface, ChunkType,
		ChunkImpl, ChunkEnum, ChunkClass, ChunkConst, ChunkVar, ChunkFile:
		return nil
	default:
		return errors.New("invalid chunk kind")
	}
}
