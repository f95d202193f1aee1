package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/codesift/codesift/internal/lang"
	"github.com/codesift/codesift/pkg/types"
)

// Target is a direct extraction request: a file, optionally narrowed to a
// named symbol, a single line, or an explicit line range.
type Target struct {
	Path      string
	Symbol    string // "path#Symbol"
	Line      int    // "path:line", 0 when unset
	StartLine int    // "path:start-end", 0 when unset
	EndLine   int
}

// ParseTarget parses the "path", "path:line", "path:start-end" and
// "path#Symbol" target notations.
func ParseTarget(spec string) (Target, error) {
	if spec == "" {
		return Target{}, fmt.Errorf("empty extraction target")
	}

	if idx := strings.LastIndexByte(spec, '#'); idx >= 0 {
		symbol := spec[idx+1:]
		if symbol == "" {
			return Target{}, fmt.Errorf("extraction target %q has an empty symbol", spec)
		}
		return Target{Path: spec[:idx], Symbol: symbol}, nil
	}

	idx := strings.LastIndexByte(spec, ':')
	if idx < 0 {
		return Target{Path: spec}, nil
	}

	path, suffix := spec[:idx], spec[idx+1:]
	if lo, hi, ok := parseRange(suffix); ok {
		return Target{Path: path, StartLine: lo, EndLine: hi}, nil
	}
	if line, err := strconv.Atoi(suffix); err == nil && line > 0 {
		return Target{Path: path, Line: line}, nil
	}

	// A colon that is not a line spec is part of the path (e.g. Windows drives).
	return Target{Path: spec}, nil
}

func parseRange(s string) (lo, hi int, ok bool) {
	dash := strings.IndexByte(s, '-')
	if dash <= 0 || dash == len(s)-1 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(s[:dash])
	hi, err2 := strconv.Atoi(s[dash+1:])
	if err1 != nil || err2 != nil || lo <= 0 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// ExtractTarget resolves a target against file contents.
//
// Symbol lookup is case-sensitive exact match against declaration identifiers;
// a miss returns SymbolNotFoundError carrying prefix-based suggestions. A line
// target maps to the smallest enclosing declaration containing that line, or
// the whole file when no declaration encloses it.
func (e *Extractor) ExtractTarget(t Target, src []byte) (*types.Chunk, error) {
	lines := splitLines(src)

	switch {
	case t.Symbol != "":
		return e.extractSymbol(t, lines, src)

	case t.StartLine > 0:
		if t.EndLine > len(lines) {
			return nil, &types.LineOutOfRangeError{File: t.Path, Line: t.EndLine, MaxLine: len(lines)}
		}
		return &types.Chunk{
			File:      t.Path,
			StartLine: t.StartLine,
			EndLine:   t.EndLine,
			Content:   sliceLines(lines, t.StartLine, t.EndLine),
			Kind:      types.ChunkFile,
		}, nil

	case t.Line > 0:
		if t.Line > len(lines) {
			return nil, &types.LineOutOfRangeError{File: t.Path, Line: t.Line, MaxLine: len(lines)}
		}
		return e.extractEnclosing(t, lines, src), nil

	default:
		return fileChunk(t.Path, lines), nil
	}
}

// extractSymbol finds the declaration with the exact identifier.
func (e *Extractor) extractSymbol(t Target, lines []string, src []byte) (*types.Chunk, error) {
	root, err := e.parse(t.Path, src)
	if err != nil {
		return nil, &types.SymbolNotFoundError{Symbol: t.Symbol, File: t.Path}
	}

	var candidates []string
	var found lang.Node
	walk(root, func(n lang.Node) {
		if _, ok := acceptableKinds[n.Kind()]; !ok {
			return
		}
		if n.Name() == t.Symbol {
			found = n
		} else if n.Name() != "" && strings.HasPrefix(n.Name(), prefixOf(t.Symbol)) {
			candidates = append(candidates, n.Name())
		}
	})

	if found == nil {
		sort.Strings(candidates)
		if len(candidates) > 5 {
			candidates = candidates[:5]
		}
		return nil, &types.SymbolNotFoundError{Symbol: t.Symbol, File: t.Path, Suggestions: candidates}
	}
	return declChunk(t.Path, found, lines), nil
}

// extractEnclosing finds the smallest acceptable declaration containing the
// target line.
func (e *Extractor) extractEnclosing(t Target, lines []string, src []byte) *types.Chunk {
	root, err := e.parse(t.Path, src)
	if err != nil {
		return fileChunk(t.Path, lines)
	}

	var best lang.Node
	walk(root, func(n lang.Node) {
		if _, ok := acceptableKinds[n.Kind()]; !ok {
			return
		}
		if n.StartLine() > t.Line || n.EndLine() < t.Line {
			return
		}
		if best == nil || span(n) < span(best) {
			best = n
		}
	})

	if best == nil {
		return fileChunk(t.Path, lines)
	}
	return declChunk(t.Path, best, lines)
}

func walk(n lang.Node, fn func(lang.Node)) {
	fn(n)
	for _, child := range n.Children() {
		walk(child, fn)
	}
}

func span(n lang.Node) int {
	return n.EndLine() - n.StartLine()
}

// prefixOf returns the prefix used for suggestion matching: the first few
// characters of the missing symbol.
func prefixOf(symbol string) string {
	if len(symbol) <= 3 {
		return symbol
	}
	return symbol[:3]
}
