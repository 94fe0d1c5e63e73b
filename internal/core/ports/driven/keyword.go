package driven

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// KeywordIndex provides lexical full-text search. This is an optional
// capability: callers must check Available before searching, and treat
// failures as "no keyword results" rather than fatal errors.
type KeywordIndex interface {
	// Index adds or replaces chunks in the keyword index.
	Index(ctx context.Context, chunks []domain.Chunk) (int, error)

	// Search returns up to limit matches ordered by descending lexical
	// relevance. Scores are normalized to a 0-1-ish range for display
	// only; they are not comparable to vector scores.
	Search(ctx context.Context, query string, limit int) ([]domain.Match, error)

	// Recreate drops and recreates the underlying collection, for a
	// clean reindex.
	Recreate(ctx context.Context) error

	// Available reports whether the engine is configured and reachable.
	Available(ctx context.Context) bool
}
