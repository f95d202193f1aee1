package match

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/codesift/codesift/internal/query"
)

// fileTypes maps type/lang filter values to extension sets, ripgrep style.
// Language names and common aliases share entries.
var fileTypes = map[string][]string{
	"go":         {"go"},
	"golang":     {"go"},
	"rust":       {"rs"},
	"python":     {"py", "pyi"},
	"py":         {"py", "pyi"},
	"javascript": {"js", "jsx", "mjs", "cjs"},
	"js":         {"js", "jsx", "mjs", "cjs"},
	"typescript": {"ts", "tsx"},
	"ts":         {"ts", "tsx"},
	"java":       {"java"},
	"kotlin":     {"kt", "kts"},
	"c":          {"c", "h"},
	"cpp":        {"cc", "cpp", "cxx", "hpp", "hh"},
	"csharp":     {"cs"},
	"ruby":       {"rb"},
	"php":        {"php"},
	"swift":      {"swift"},
	"scala":      {"scala"},
	"shell":      {"sh", "bash", "zsh"},
	"sh":         {"sh", "bash", "zsh"},
	"markdown":   {"md", "markdown"},
	"md":         {"md", "markdown"},
	"yaml":       {"yml", "yaml"},
	"json":       {"json"},
	"toml":       {"toml"},
	"html":       {"html", "htm"},
	"css":        {"css", "scss", "less"},
	"sql":        {"sql"},
	"proto":      {"proto"},
}

// FileMatches reports whether a path passes every plan filter. It runs once
// per file, before any per-chunk tokenization, so a failing file is rejected
// cheaply.
func FileMatches(p string, filters []query.Filter) bool {
	for _, f := range filters {
		if !fileMatchesOne(p, f) {
			return false
		}
	}
	return true
}

func fileMatchesOne(p string, f query.Filter) bool {
	p = filepath.ToSlash(p)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))

	switch f.Kind {
	case query.FilterExt:
		return ext == strings.ToLower(strings.TrimPrefix(f.Pattern, "."))

	case query.FilterFile:
		return pathPatternMatches(p, f.Pattern)

	case query.FilterDir:
		dir := path.Dir(p)
		if dir == "." {
			return false
		}
		for _, component := range strings.Split(dir, "/") {
			if ok, _ := path.Match(f.Pattern, component); ok || component == f.Pattern {
				return true
			}
		}
		return false

	case query.FilterType, query.FilterLang:
		exts, known := fileTypes[strings.ToLower(f.Pattern)]
		if !known {
			// An unknown type name constrains to nothing rather than silently
			// dropping the filter.
			return false
		}
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
	return false
}

// pathPatternMatches matches a file pattern against the path. Glob patterns
// match against the full path and the basename; "**" crosses directories.
// A pattern without glob characters matches as a path substring.
func pathPatternMatches(p, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	if !strings.ContainsAny(pattern, "*?[") {
		return strings.Contains(p, pattern)
	}
	if strings.Contains(pattern, "**") {
		return doubleStarMatch(p, pattern)
	}
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	ok, _ := path.Match(pattern, path.Base(p))
	return ok
}

// doubleStarMatch handles patterns with a single "**" segment by anchoring
// the literal prefix and glob-matching the suffix against the basename side.
func doubleStarMatch(p, pattern string) bool {
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" && !strings.HasPrefix(p, prefix) {
		return false
	}
	if suffix == "" {
		return true
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(p, prefix), "/")
	// The suffix may match the tail of any depth.
	segments := strings.Split(rest, "/")
	for i := range segments {
		candidate := strings.Join(segments[i:], "/")
		if ok, _ := path.Match(suffix, candidate); ok {
			return true
		}
	}
	return false
}
