package services

import (
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// DefaultGroundingThreshold is the similarity score below which local
// evidence is considered weak. Score scales differ per retrieval source
// and are not normalized before this comparison; the threshold is tuned
// against the vector index's dot-product scores.
const DefaultGroundingThreshold = 0.18

// ShouldGround decides whether local evidence is too weak and external
// web search should supplement it. It returns true iff the searcher is
// actually available AND either the best local score falls below the
// threshold or fewer than k/2 results were obtained.
//
// The availability check comes first so a structurally unusable
// grounding setup never triggers a wasted decision path, regardless of
// how weak the local evidence is.
func ShouldGround(searcher driven.WebSearcher, bestScore float64, numResults, k int, threshold float64) bool {
	if searcher == nil || !searcher.Available() {
		return false
	}

	weakSimilarity := bestScore < threshold
	insufficientResults := numResults < k/2

	if weakSimilarity || insufficientResults {
		logger.Debug("grounding triggered: best_score=%.3f (threshold=%.3f), results=%d/%d",
			bestScore, threshold, numResults, k)
		return true
	}
	return false
}
