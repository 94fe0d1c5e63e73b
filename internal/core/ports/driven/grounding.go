package driven

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// WebSearcher fetches supplementary evidence from an external web
// search API when local retrieval is weak. Grounding is optional
// enhancement: implementations swallow failures and return an empty
// list rather than an error.
type WebSearcher interface {
	// Search returns up to maxResults external results for the query.
	// Results missing a title or snippet are dropped.
	Search(ctx context.Context, query string, maxResults int) ([]domain.ExternalResult, error)

	// Available reports whether the search API is configured.
	Available() bool
}
