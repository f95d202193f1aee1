// Package search orchestrates the query-to-ranked-results pipeline: parse,
// walk, extract, match, merge, rank, cache, truncate.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codesift/codesift/internal/extract"
	"github.com/codesift/codesift/internal/lang"
	"github.com/codesift/codesift/internal/match"
	"github.com/codesift/codesift/internal/merge"
	"github.com/codesift/codesift/internal/query"
	"github.com/codesift/codesift/internal/rank"
	"github.com/codesift/codesift/internal/session"
	"github.com/codesift/codesift/internal/walker"
	"github.com/codesift/codesift/pkg/types"
)

// DefaultTimeout bounds one search operation and doubles as the session idle
// timeout default.
const DefaultTimeout = 30 * time.Second

// Options are the per-request knobs of one search.
type Options struct {
	Query string
	Root  string

	// Query interpretation
	Exact  bool // literal matching, tokenization disabled
	Strict bool // unknown filter keys are errors

	// Candidate selection
	AllowTests     bool
	NoGitignore    bool
	IgnorePatterns []string
	FilesOnly      bool

	// Merging
	NoMerge        bool
	MergeThreshold int // negative selects the default; 0 merges overlapping chunks only

	// Ranking
	Algorithm string
	Question  string // natural-language question enabling neural rerank

	// Budgets
	MaxResults int
	MaxBytes   int
	MaxTokens  int

	// Pagination
	SessionID string

	// Timeout for the whole operation; non-positive selects DefaultTimeout.
	Timeout time.Duration
}

// Config wires an Engine.
type Config struct {
	Workers         int
	SessionCapacity int
	SessionTTL      time.Duration
	Encoder         rank.CrossEncoder // optional neural rerank capability
	Logger          *zap.Logger
}

// Engine runs searches over a live source tree.
type Engine struct {
	walker    *walker.Walker
	extractor *extract.Extractor
	sessions  *session.Cache
	encoder   rank.CrossEncoder
	logger    *zap.Logger
	workers   int
}

// NewEngine builds an Engine from config; zero values select defaults.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultTimeout
	}
	return &Engine{
		walker:    walker.New(logger),
		extractor: extract.New(lang.NewRegistry(), logger),
		sessions:  session.NewCache(cfg.SessionCapacity, ttl),
		encoder:   cfg.Encoder,
		logger:    logger,
		workers:   workers,
	}
}

// Sessions exposes the session cache for surfaces that manage ids.
func (e *Engine) Sessions() *session.Cache { return e.sessions }

// Search runs the full pipeline, or serves the next page when the session id
// already holds a matching ranked sequence.
func (e *Engine) Search(ctx context.Context, opts Options) (*types.Response, error) {
	start := time.Now()

	algo, err := rank.ParseAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	plan, err := query.Parse(opts.Query, opts.Strict)
	if err != nil {
		return nil, err
	}

	budget := Budget{MaxResults: opts.MaxResults, MaxBytes: opts.MaxBytes, MaxTokens: opts.MaxTokens}
	fingerprint := e.fingerprint(opts, algo)

	// Session fast path: matching entry serves the next page with no
	// re-computation.
	if opts.SessionID != "" {
		var page []types.ScoredResult
		var truncated bool
		hit := e.sessions.Advance(opts.SessionID, fingerprint, func(remaining []types.ScoredResult) int {
			page, truncated = Truncate(remaining, budget)
			return len(page)
		})
		if hit {
			return &types.Response{
				Results:   page,
				Plan:      plan.String(),
				Elapsed:   time.Since(start),
				SessionID: opts.SessionID,
				CacheHit:  true,
				Truncated: truncated,
			}, nil
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chunks, filesSearched, err := e.collect(ctx, plan, opts)
	if err != nil {
		return nil, err
	}

	terms := plan.Terms()
	stats := rank.ComputeStats(chunks, terms)
	results := rank.Rank(chunks, terms, stats, algo)

	neuralFallback := false
	if opts.Question != "" && e.encoder != nil {
		results, neuralFallback = rank.BlendNeural(ctx, e.encoder, opts.Question, results, e.logger)
	}

	// A timed-out search fails outright: no partial results, no session state.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w after %s", types.ErrTimeout, timeout)
	}

	totalMatches := len(results)
	var page []types.ScoredResult
	var truncated bool
	if opts.SessionID != "" {
		e.sessions.Store(opts.SessionID, fingerprint, results)
		e.sessions.Advance(opts.SessionID, fingerprint, func(remaining []types.ScoredResult) int {
			page, truncated = Truncate(remaining, budget)
			return len(page)
		})
	} else {
		page, truncated = Truncate(results, budget)
	}

	return &types.Response{
		Results:        page,
		TotalMatches:   totalMatches,
		Plan:           plan.String(),
		Elapsed:        time.Since(start),
		SessionID:      opts.SessionID,
		NeuralFallback: neuralFallback,
		Truncated:      truncated,
		FilesSearched:  filesSearched,
	}, nil
}

// collect fans extraction + matching + per-file merging out across files.
// Workers share nothing mutable but the guarded result slice; the join here
// is required because ranking needs corpus-wide statistics.
func (e *Engine) collect(ctx context.Context, plan *query.Plan, opts Options) ([]*types.Chunk, int, error) {
	files, err := e.walker.Walk(opts.Root, walker.Options{
		IncludeTests:     opts.AllowTests,
		RespectGitignore: !opts.NoGitignore,
		IgnorePatterns:   opts.IgnorePatterns,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk %s: %w", opts.Root, err)
	}

	// Plan filters reject whole files before any tokenization.
	candidates := files[:0]
	for _, f := range files {
		if match.FileMatches(f, plan.Filters) {
			candidates = append(candidates, f)
		}
	}

	matcher := match.NewMatcher(plan, opts.Exact)
	merger := merge.New(opts.MergeThreshold, opts.NoMerge)

	var mu sync.Mutex
	var matched []*types.Chunk

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, rel := range candidates {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			src, err := os.ReadFile(filepath.Join(opts.Root, filepath.FromSlash(rel)))
			if err != nil {
				e.logger.Debug("unreadable file skipped", zap.String("file", rel), zap.Error(err))
				return nil
			}

			fileChunks := e.fileChunks(rel, src, opts)
			var hits []*types.Chunk
			for _, c := range fileChunks {
				if matcher.MatchChunk(c) {
					hits = append(hits, c)
				}
			}
			if len(hits) == 0 {
				return nil
			}

			if opts.FilesOnly {
				// Only the file identity is reported; drop the text.
				for _, c := range hits {
					c.Content = ""
				}
			} else {
				hits = merger.MergeFile(hits, fileLines(src))
			}

			mu.Lock()
			matched = append(matched, hits...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w while scanning %d files", types.ErrTimeout, len(candidates))
		}
		return nil, 0, err
	}

	return matched, len(candidates), nil
}

// fileChunks extracts candidates for one file. files-only short-circuits
// syntax-aware extraction to a single whole-file chunk whose content is
// dropped after matching.
func (e *Engine) fileChunks(rel string, src []byte, opts Options) []*types.Chunk {
	if opts.FilesOnly {
		c := &types.Chunk{
			File:      rel,
			StartLine: 1,
			EndLine:   countLines(src),
			Content:   string(src),
			Kind:      types.ChunkFile,
		}
		return []*types.Chunk{c}
	}
	return e.extractor.ChunksForFile(rel, src, extract.Options{AllowTests: opts.AllowTests})
}

// fingerprint covers the query and every option that shapes the ranked
// sequence, so a session id re-used with different settings is invalidated.
func (e *Engine) fingerprint(opts Options, algo rank.Algorithm) [32]byte {
	return session.Fingerprint(opts.Query,
		opts.Root,
		string(algo),
		strconv.FormatBool(opts.Exact),
		strconv.FormatBool(opts.AllowTests),
		strconv.FormatBool(opts.NoGitignore),
		strconv.FormatBool(opts.NoMerge),
		strconv.FormatBool(opts.FilesOnly),
		strconv.Itoa(opts.MergeThreshold),
		opts.Question,
	)
}

func fileLines(src []byte) []string {
	s := strings.TrimSuffix(string(src), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func countLines(src []byte) int {
	n := len(fileLines(src))
	if n == 0 {
		return 1
	}
	return n
}
