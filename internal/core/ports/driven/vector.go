package driven

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// VectorIndex provides dense-vector storage and nearest-neighbour
// search against an external vector database.
type VectorIndex interface {
	// Query returns up to k matches for the query vector within the
	// namespace, ordered by descending similarity. The vector dimension
	// must match the index dimension.
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.Match, error)

	// Upsert writes vectors for the given chunk IDs. Metadata travels
	// alongside each vector as an opaque blob.
	Upsert(ctx context.Context, namespace string, items []VectorItem) error

	// Delete removes vectors by chunk ID.
	Delete(ctx context.Context, namespace string, ids []string) error
}

// VectorItem is one vector to upsert.
type VectorItem struct {
	// ID is the chunk identifier.
	ID string

	// Values is the embedding vector.
	Values []float32

	// Metadata is stored alongside the vector and returned on query.
	Metadata map[string]any
}
