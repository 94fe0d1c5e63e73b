package services

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// RerankChain tries each provider in priority order and returns the
// first successful reordering together with the provider's name. When
// every provider fails (or none is configured) the input is returned
// unchanged in its original order with an empty provider name - the
// identity fallback. Reranking failure never aborts a query.
func RerankChain(ctx context.Context, providers []driven.Reranker, query string, snippets []domain.Snippet) ([]domain.Snippet, string) {
	if len(snippets) == 0 {
		return snippets, ""
	}

	for _, p := range providers {
		ranked, err := p.Rerank(ctx, query, snippets)
		if err != nil {
			logger.Warn("reranker %q failed: %v (trying next provider)", p.Name(), err)
			continue
		}
		logger.Info("reranked %d snippets with %s", len(ranked), p.Name())
		return ranked, p.Name()
	}

	if len(providers) > 0 {
		logger.Info("all rerank providers failed, keeping original order")
	}
	return snippets, ""
}
