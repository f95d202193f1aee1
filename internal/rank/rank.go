// Package rank scores merged chunks under a selectable algorithm. Corpus
// statistics are computed once per search and passed explicitly; nothing in
// this package holds state between searches.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/codesift/codesift/pkg/types"
)

// Algorithm selects the scoring formula. Exactly one algorithm runs per
// query, so scales need not match across algorithms.
type Algorithm string

const (
	AlgoTFIDF   Algorithm = "tfidf"
	AlgoBM25    Algorithm = "bm25" // default
	AlgoHybrid  Algorithm = "hybrid"
	AlgoHybrid2 Algorithm = "hybrid2"
)

// BM25 free parameters, conventional defaults.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Hybrid blend weights between the BM25 score and the raw matched-term
// frequency.
const (
	hybridBM25Weight = 0.7
	hybridFreqWeight = 0.3
)

// ParseAlgorithm validates an algorithm name; empty selects the default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "":
		return AlgoBM25, nil
	case AlgoTFIDF, AlgoBM25, AlgoHybrid, AlgoHybrid2:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unknown reranker algorithm %q", name)
	}
}

// Stats holds the corpus-wide statistics every algorithm needs. They depend
// on the full candidate population, which is why reranking runs after the
// per-file join.
type Stats struct {
	TotalChunks int
	MeanLength  float64        // mean token count across candidates
	DocFreq     map[string]int // chunks containing each query term
}

// ComputeStats derives corpus statistics from the merged candidate set.
func ComputeStats(chunks []*types.Chunk, terms []string) *Stats {
	stats := &Stats{
		TotalChunks: len(chunks),
		DocFreq:     make(map[string]int, len(terms)),
	}

	var totalTokens int
	for _, c := range chunks {
		totalTokens += c.TokenCount
		for _, term := range terms {
			if c.Matched(term) {
				stats.DocFreq[term]++
			}
		}
	}
	if len(chunks) > 0 {
		stats.MeanLength = float64(totalTokens) / float64(len(chunks))
	}
	return stats
}

// Rank annotates every chunk with a score under the selected algorithm and
// returns the results in the canonical total order (score desc, file asc,
// start line asc). No filtering happens here; truncation is a separate stage.
func Rank(chunks []*types.Chunk, terms []string, stats *Stats, algo Algorithm) []types.ScoredResult {
	results := make([]types.ScoredResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, types.ScoredResult{
			File:         c.File,
			StartLine:    c.StartLine,
			EndLine:      c.EndLine,
			Kind:         c.Kind,
			Content:      c.Content,
			Score:        Score(c, terms, stats, algo),
			MatchedTerms: sortedTerms(c),
		})
	}
	types.SortResults(results)
	return results
}

// Score computes one chunk's score.
func Score(c *types.Chunk, terms []string, stats *Stats, algo Algorithm) float64 {
	switch algo {
	case AlgoTFIDF:
		return scoreTFIDF(c, terms, stats)
	case AlgoHybrid:
		return scoreHybrid(c, terms, stats)
	case AlgoHybrid2:
		return scoreHybrid2(c, terms, stats)
	default:
		return scoreBM25(c, terms, stats)
	}
}

// scoreTFIDF sums tf*idf over the query terms, with tf normalized by chunk
// token count and idf = log(1 + total/containing).
func scoreTFIDF(c *types.Chunk, terms []string, stats *Stats) float64 {
	if c.TokenCount == 0 {
		return 0
	}
	var score float64
	for _, term := range terms {
		count := c.TermCounts[term]
		if count == 0 {
			continue
		}
		tf := float64(count) / float64(c.TokenCount)
		idf := math.Log(1 + float64(stats.TotalChunks)/float64(stats.DocFreq[term]))
		score += tf * idf
	}
	return score
}

// scoreBM25 is the standard saturating formula with length normalization
// against the mean chunk length of the candidate set.
func scoreBM25(c *types.Chunk, terms []string, stats *Stats) float64 {
	if stats.MeanLength == 0 {
		return 0
	}
	norm := bm25K1 * (1 - bm25B + bm25B*float64(c.TokenCount)/stats.MeanLength)

	var score float64
	for _, term := range terms {
		count := float64(c.TermCounts[term])
		if count == 0 {
			continue
		}
		df := float64(stats.DocFreq[term])
		idf := math.Log(1 + (float64(stats.TotalChunks)-df+0.5)/(df+0.5))
		score += idf * (count * (bm25K1 + 1)) / (count + norm)
	}
	return score
}

// scoreHybrid blends BM25 with the unnormalized matched-term frequency so
// that chunks with many literal repeats are not fully discounted by BM25's
// saturation.
func scoreHybrid(c *types.Chunk, terms []string, stats *Stats) float64 {
	var rawFreq float64
	for _, term := range terms {
		rawFreq += float64(c.TermCounts[term])
	}
	return hybridBM25Weight*scoreBM25(c, terms, stats) + hybridFreqWeight*rawFreq
}

// scoreHybrid2 additionally weights by matched-term diversity: the fraction
// of distinct query terms the chunk satisfies.
func scoreHybrid2(c *types.Chunk, terms []string, stats *Stats) float64 {
	if len(terms) == 0 {
		return 0
	}
	distinct := 0
	for _, term := range terms {
		if c.Matched(term) {
			distinct++
		}
	}
	diversity := float64(distinct) / float64(len(terms))
	return scoreHybrid(c, terms, stats) * diversity
}

func sortedTerms(c *types.Chunk) []string {
	terms := make([]string, 0, len(c.MatchedTerms))
	for term := range c.MatchedTerms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
