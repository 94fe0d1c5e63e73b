package driven

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// ChunkStore persists documents and chunks. It is the source of truth
// for chunk text; retrieval backends only hold identifiers and vectors.
type ChunkStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByPath retrieves a document by its source path.
	// Returns domain.ErrNotFound when no document exists for the path.
	GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error)

	// DeleteDocument removes a document and all its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// SaveChunks stores chunks, replacing any existing chunks for the
	// same document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a single chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunksByIDs retrieves chunks in one batched lookup. Missing
	// IDs are simply absent from the result; the caller decides how to
	// handle them.
	GetChunksByIDs(ctx context.Context, ids []string) (map[string]domain.Chunk, error)

	// GetChunkRange retrieves the chunks of a document whose sequence
	// numbers fall in [fromSeq, toSeq], ordered by sequence.
	GetChunkRange(ctx context.Context, documentID string, fromSeq, toSeq int) ([]domain.Chunk, error)

	// ListChunks returns all chunks of a document ordered by sequence.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
