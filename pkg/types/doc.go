// Package types provides the shared domain types for codesift.
//
// It defines the Chunk produced by extraction and consumed by matching,
// merging and ranking, the ScoredResult sequence handed to renderers, and
// the error taxonomy shared by every component:
//
//   - QuerySyntaxError: malformed query, always surfaced
//   - SymbolNotFoundError / LineOutOfRangeError: bad extraction targets,
//     surfaced with suggestions where possible
//   - ErrUnsupportedLanguage: recovered locally by coarse chunking
//   - ErrTimeout: fatal for the request, no partial results
//
// Keeping these in pkg/types lets internal components depend on a common
// vocabulary without importing each other.
package types
