package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Ensure Service implements the interface.
var _ driving.IngestService = (*Service)(nil)

// DefaultUpsertBatch is the number of vectors sent per upsert call.
const DefaultUpsertBatch = 100

// Service ingests documents and builds the retrieval indexes. The
// chunk store is the source of truth; index builds read everything
// back from it rather than from the filesystem.
type Service struct {
	store     driven.ChunkStore
	embedder  driven.EmbeddingService
	vectorIdx driven.VectorIndex
	keyword   driven.KeywordIndex // optional
	chunker   *Chunker
	namespace string
	batch     int
}

// ServiceOption configures the ingest service.
type ServiceOption func(*Service)

// WithChunker replaces the default chunker.
func WithChunker(c *Chunker) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.chunker = c
		}
	}
}

// WithNamespace sets the vector namespace for index builds.
func WithNamespace(ns string) ServiceOption {
	return func(s *Service) { s.namespace = ns }
}

// WithUpsertBatch sets the vector upsert batch size.
func WithUpsertBatch(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.batch = n
		}
	}
}

// NewService creates the ingest service. keyword is optional; when nil
// BuildIndexes only writes the vector index.
func NewService(
	store driven.ChunkStore,
	embedder driven.EmbeddingService,
	vectorIdx driven.VectorIndex,
	keyword driven.KeywordIndex,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		store:     store,
		embedder:  embedder,
		vectorIdx: vectorIdx,
		keyword:   keyword,
		chunker:   NewChunker(),
		batch:     DefaultUpsertBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest loads every supported file under path, chunks it, and
// persists documents and chunks. Files whose content hash matches the
// stored document are skipped; changed files supersede their previous
// chunks entirely.
func (s *Service) Ingest(ctx context.Context, path string) (*driving.IngestStats, error) {
	files, err := LoadPath(path)
	if err != nil {
		return nil, err
	}

	logger.Section("Ingest")
	logger.Info("loaded %d files from %s", len(files), path)

	stats := &driving.IngestStats{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, n, err := s.ingestFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", f.Path, err)
		}
		if !changed {
			stats.Skipped++
			continue
		}
		stats.Documents++
		stats.Chunks += n
	}

	logger.Info("ingested %d documents (%d chunks, %d unchanged)",
		stats.Documents, stats.Chunks, stats.Skipped)
	return stats, nil
}

// ingestFile writes one file's document and chunks. Returns false when
// the stored content hash already matches.
func (s *Service) ingestFile(ctx context.Context, f File) (bool, int, error) {
	now := time.Now()
	doc := &domain.Document{
		ID:          f.Path,
		Path:        f.Path,
		Title:       f.Title,
		ContentHash: f.Hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	prev, err := s.store.GetDocumentByPath(ctx, f.Path)
	switch {
	case err == nil:
		if prev.ContentHash == f.Hash {
			logger.Debug("unchanged: %s", f.Path)
			return false, 0, nil
		}
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
	case errors.Is(err, domain.ErrNotFound):
		// First ingestion of this path.
	default:
		return false, 0, err
	}

	chunks := s.chunker.Chunk(doc.ID, f.Text)

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return false, 0, err
	}
	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return false, 0, err
	}

	logger.Debug("ingested %s: %d chunks", f.Path, len(chunks))
	return true, len(chunks), nil
}

// BuildIndexes reads all stored chunks, writes them to the keyword
// index when one is configured, and embeds and upserts them to the
// vector index in batches.
func (s *Service) BuildIndexes(ctx context.Context) (*driving.IndexStats, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIdx == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		dc, err := s.store.ListChunks(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("list chunks for %s: %w", doc.ID, err)
		}
		chunks = append(chunks, dc...)
	}

	logger.Section("Build Indexes")
	stats := &driving.IndexStats{Namespace: s.namespace}
	if len(chunks) == 0 {
		logger.Info("no chunks stored, nothing to index")
		return stats, nil
	}

	if s.keyword != nil && s.keyword.Available(ctx) {
		if err := s.keyword.Recreate(ctx); err != nil {
			logger.Warn("keyword index recreate failed: %v (skipping keyword build)", err)
		} else {
			n, err := s.keyword.Index(ctx, chunks)
			if err != nil {
				logger.Warn("keyword indexing failed: %v", err)
			} else {
				stats.Keyword = n
				logger.Info("keyword index: %d chunks", n)
			}
		}
	}

	for start := 0; start < len(chunks); start += s.batch {
		end := start + s.batch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(batch), len(vecs))
		}

		items := make([]driven.VectorItem, len(batch))
		for i, c := range batch {
			items[i] = driven.VectorItem{
				ID:     c.ID,
				Values: vecs[i],
				Metadata: map[string]any{
					"document_id": c.DocumentID,
					"seq":         c.Seq,
				},
			}
		}

		if err := s.vectorIdx.Upsert(ctx, s.namespace, items); err != nil {
			return nil, err
		}
		stats.Upserts += len(items)
	}

	logger.Info("vector index: %d upserts (namespace=%q)", stats.Upserts, s.namespace)
	return stats, nil
}
