package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across components.
var (
	ErrMissingFileInfo  = errors.New("file info is required")
	ErrInvalidLineRange = errors.New("invalid line range")

	// ErrUnsupportedLanguage is returned by the tree provider registry when no
	// provider exists for a file; callers recover by whole-file chunking.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTimeout is fatal for the in-flight search. No partial results are
	// returned and no session state is committed.
	ErrTimeout = errors.New("search timed out")

	// ErrSessionMismatch signals that a session entry existed but was built
	// from a different query; the cache replaces the entry transparently.
	ErrSessionMismatch = errors.New("session fingerprint mismatch")
)

// QuerySyntaxError reports a malformed query: unbalanced quotes, an
// unsupported operator, or an unknown filter key in strict mode.
// Always surfaced to the caller, never recovered.
type QuerySyntaxError struct {
	Query  string
	Reason string
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("query syntax error: %s in %q", e.Reason, e.Query)
}

// SymbolNotFoundError reports a failed symbol lookup with best-effort
// suggestions drawn from declarations sharing a prefix.
type SymbolNotFoundError struct {
	Symbol      string
	File        string
	Suggestions []string
}

func (e *SymbolNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("symbol %q not found in %s", e.Symbol, e.File)
	}
	return fmt.Sprintf("symbol %q not found in %s (did you mean: %s)",
		e.Symbol, e.File, strings.Join(e.Suggestions, ", "))
}

// LineOutOfRangeError reports a line target beyond the end of the file.
type LineOutOfRangeError struct {
	File    string
	Line    int
	MaxLine int
}

func (e *LineOutOfRangeError) Error() string {
	return fmt.Sprintf("line %d out of range in %s (file has %d lines)", e.Line, e.File, e.MaxLine)
}
