package driving

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// QueryService answers natural-language questions against the indexed
// corpus.
type QueryService interface {
	// Ask runs the full retrieval-and-generation pipeline for a
	// question and returns the answer with observability fields.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AskResult, error)

	// Search runs retrieval only (no generation) and returns the
	// hydrated, expanded result set.
	Search(ctx context.Context, query string, opts domain.AskOptions) ([]domain.SearchResult, error)
}
