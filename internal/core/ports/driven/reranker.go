package driven

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// Reranker re-scores an already-hydrated snippet set against the query
// using a cross-encoder model. Providers are tried in priority order;
// any failure falls through to the next provider, and finally to
// identity order.
type Reranker interface {
	// Rerank returns the same snippet set reordered by descending
	// relevance, each snippet annotated with RerankScore and the
	// provider name.
	Rerank(ctx context.Context, query string, snippets []domain.Snippet) ([]domain.Snippet, error)

	// Name identifies the provider, e.g. "voyage" or "cohere".
	Name() string
}
