// Package walker supplies candidate file paths for a search, honoring ignore
// patterns, gitignore, and the test-file inclusion policy.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxFileSize skips files unlikely to be source code.
const DefaultMaxFileSize = 2 << 20 // 2 MiB

// commonIgnoredDirs are skipped regardless of gitignore.
var commonIgnoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"target":       {},
	"dist":         {},
	"build":        {},
	"__pycache__":  {},
}

// binaryExtensions are never source code.
var binaryExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "ico": {}, "pdf": {},
	"zip": {}, "gz": {}, "tar": {}, "jar": {}, "exe": {}, "dll": {},
	"so": {}, "dylib": {}, "bin": {}, "o": {}, "a": {}, "wasm": {},
	"woff": {}, "woff2": {}, "ttf": {}, "mp3": {}, "mp4": {}, "lock": {},
}

// Options control a walk.
type Options struct {
	// IncludeTests keeps test files (excluded by default).
	IncludeTests bool

	// RespectGitignore applies the root .gitignore (on by default in the
	// engine; the flag here is explicit).
	RespectGitignore bool

	// IgnorePatterns are custom patterns matched against base names and
	// root-relative paths, in addition to gitignore and common patterns.
	IgnorePatterns []string

	// MaxFileSize in bytes; non-positive selects DefaultMaxFileSize.
	MaxFileSize int64
}

// Walker lists candidate files under a root.
type Walker struct {
	logger *zap.Logger
}

// New creates a Walker.
func New(logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{logger: logger}
}

// Walk returns root-relative, slash-separated candidate paths.
func (w *Walker) Walk(root string, opts Options) ([]string, error) {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var gitignore []string
	if opts.RespectGitignore {
		gitignore = loadGitignore(filepath.Join(root, ".gitignore"))
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("walk error, skipping", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, ignored := commonIgnoredDirs[name]; ignored {
				return filepath.SkipDir
			}
			if matchesAny(rel, name, opts.IgnorePatterns) || matchesAny(rel, name, gitignore) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !opts.IncludeTests && isTestFile(name) {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if _, binary := binaryExtensions[ext]; binary {
			return nil
		}
		if matchesAny(rel, name, opts.IgnorePatterns) || matchesAny(rel, name, gitignore) {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > maxSize {
			return nil
		}

		files = append(files, rel)
		return nil
	})

	return files, err
}

// isTestFile applies the default test-file exclusion policy across the
// common per-language conventions.
func isTestFile(name string) bool {
	switch {
	case strings.HasSuffix(name, "_test.go"),
		strings.HasPrefix(name, "test_"),
		strings.HasSuffix(name, "_test.py"),
		strings.HasSuffix(name, "_test.rb"),
		strings.Contains(name, ".spec."),
		strings.Contains(name, ".test."):
		return true
	}
	return false
}

// loadGitignore reads simple patterns from a .gitignore file. Comments and
// negations are skipped; directory patterns lose their trailing slash since
// matching happens against both names and relative paths.
func loadGitignore(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		line = strings.TrimPrefix(line, "/")
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesAny matches a pattern list against the base name and the relative
// path, with glob support.
func matchesAny(rel, base string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if pattern == base || pattern == rel {
			return true
		}
		// Directory pattern anywhere in the path.
		if strings.HasPrefix(rel, pattern+"/") || strings.Contains(rel, "/"+pattern+"/") {
			return true
		}
	}
	return false
}
