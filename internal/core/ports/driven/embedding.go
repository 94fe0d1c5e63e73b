package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations must filter empty strings before calling the backend
// and short-circuit an empty input list to an empty output list without
// a network call. Implementations must be safe for concurrent use; the
// composition root constructs one service and shares it across queries.
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result has one vector per non-empty input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
