package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codesift/codesift/internal/extract"
	"github.com/codesift/codesift/pkg/types"
)

// ExtractOptions control direct extraction.
type ExtractOptions struct {
	Root    string
	Targets []string // "path", "path:line", "path:start-end", "path#Symbol"
	Timeout time.Duration
}

// Extract resolves direct extraction targets against the tree and returns
// them in the same format-agnostic response shape searches use. Target
// errors (missing symbol, line out of range) fail the request; they carry
// their own suggestions.
func (e *Engine) Extract(ctx context.Context, opts ExtractOptions) (*types.Response, error) {
	start := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var results []types.ScoredResult
	for _, spec := range opts.Targets {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w during extraction", types.ErrTimeout)
		}

		target, err := extract.ParseTarget(spec)
		if err != nil {
			return nil, err
		}

		src, err := os.ReadFile(filepath.Join(opts.Root, filepath.FromSlash(target.Path)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target.Path, err)
		}

		chunk, err := e.extractor.ExtractTarget(target, src)
		if err != nil {
			return nil, err
		}

		results = append(results, types.ScoredResult{
			File:      chunk.File,
			StartLine: chunk.StartLine,
			EndLine:   chunk.EndLine,
			Kind:      chunk.Kind,
			Content:   chunk.Content,
		})
	}

	return &types.Response{
		Results:       results,
		TotalMatches:  len(results),
		Elapsed:       time.Since(start),
		FilesSearched: len(opts.Targets),
	}, nil
}
