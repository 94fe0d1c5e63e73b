// Package memory provides an in-memory implementation of the chunk
// store, used by tests and fully-local deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk   // by chunk ID
	byDoc     map[string][]string       // document ID -> chunk IDs in seq order
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
		byDoc:     make(map[string][]string),
	}
}

// SaveDocument stores or updates a document.
func (s *ChunkStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByPath retrieves a document by its source path.
func (s *ChunkStore) GetDocumentByPath(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.Path == path {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document and all its chunks.
func (s *ChunkStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	for _, chunkID := range s.byDoc[id] {
		delete(s.chunks, chunkID)
	}
	delete(s.byDoc, id)
	return nil
}

// ListDocuments returns all documents.
func (s *ChunkStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// SaveChunks stores chunks, replacing any existing chunks for the same
// document.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docID := chunks[0].DocumentID
	for _, chunkID := range s.byDoc[docID] {
		delete(s.chunks, chunkID)
	}

	ids := make([]string, 0, len(chunks))
	ordered := append([]domain.Chunk(nil), chunks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })
	for _, c := range ordered {
		s.chunks[c.ID] = c
		ids = append(ids, c.ID)
	}
	s.byDoc[docID] = ids
	return nil
}

// GetChunk retrieves a single chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetChunksByIDs retrieves chunks in one batched lookup. Missing IDs
// are absent from the result.
func (s *ChunkStore) GetChunksByIDs(_ context.Context, ids []string) (map[string]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Chunk, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// GetChunkRange retrieves the chunks of a document with sequence
// numbers in [fromSeq, toSeq], ordered by sequence.
func (s *ChunkStore) GetChunkRange(_ context.Context, documentID string, fromSeq, toSeq int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, chunkID := range s.byDoc[documentID] {
		c := s.chunks[chunkID]
		if c.Seq >= fromSeq && c.Seq <= toSeq {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListChunks returns all chunks of a document ordered by sequence.
func (s *ChunkStore) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(s.byDoc[documentID]))
	for _, chunkID := range s.byDoc[documentID] {
		out = append(out, s.chunks[chunkID])
	}
	return out, nil
}

// CountChunks returns the total number of stored chunks.
func (s *ChunkStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}
