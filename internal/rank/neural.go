package rank

import (
	"context"

	"go.uber.org/zap"

	"github.com/codesift/codesift/pkg/types"
)

// CrossEncoder is the capability interface for natural-language reranking.
// The engine treats the model as an opaque scoring function: it takes
// (question, chunk text) pairs and returns one relevance score per text.
type CrossEncoder interface {
	Score(ctx context.Context, question string, texts []string) ([]float64, error)
	Close() error
}

// neuralAlpha is the blend weight of the cross-encoder score against the
// lexical score.
const neuralAlpha = 0.7

// BlendNeural re-scores ranked results with the cross encoder and re-sorts.
// Failure is non-fatal: the lexical ordering is returned unchanged and the
// second return value reports the fallback, surfaced to callers as a
// diagnostic flag only.
func BlendNeural(ctx context.Context, enc CrossEncoder, question string, results []types.ScoredResult, logger *zap.Logger) ([]types.ScoredResult, bool) {
	if enc == nil || question == "" || len(results) == 0 {
		return results, false
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	texts := make([]string, len(results))
	for i := range results {
		texts[i] = results[i].Content
	}

	scores, err := enc.Score(ctx, question, texts)
	if err != nil || len(scores) != len(results) {
		logger.Warn("cross-encoder rerank failed, keeping lexical scores", zap.Error(err))
		return results, true
	}

	for i := range results {
		results[i].Score = neuralAlpha*scores[i] + (1-neuralAlpha)*results[i].Score
	}
	types.SortResults(results)
	return results, false
}
