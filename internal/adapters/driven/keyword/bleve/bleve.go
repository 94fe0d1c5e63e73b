// Package bleve provides a local, embedded keyword index. It needs no
// server, making keyword search available out of the box; a Typesense
// deployment can replace it without touching the pipeline.
package bleve

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.KeywordIndex = (*Engine)(nil)

// indexBatchSize is the number of documents per indexing batch.
const indexBatchSize = 100

// chunkDoc is the indexed document shape.
type chunkDoc struct {
	DocumentID string `json:"document_id"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`
}

// Engine is a bleve-backed keyword index. An empty path keeps the
// index in memory only.
type Engine struct {
	mu    sync.RWMutex
	index bleve.Index
	path  string
}

// NewEngine opens or creates a bleve index at path. An empty path
// creates a memory-only index.
func NewEngine(path string) (*Engine, error) {
	index, err := openIndex(path)
	if err != nil {
		return nil, fmt.Errorf("bleve: opening index: %w", err)
	}
	return &Engine{index: index, path: path}, nil
}

func openIndex(path string) (bleve.Index, error) {
	if path == "" {
		return bleve.NewMemOnly(bleve.NewIndexMapping())
	}

	index, err := bleve.Open(path)
	if err == nil {
		return index, nil
	}
	return bleve.New(path, bleve.NewIndexMapping())
}

// Close releases the underlying index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Close()
}

// Available always reports true; the engine is in-process.
func (e *Engine) Available(_ context.Context) bool {
	return true
}

// Recreate drops all indexed documents and starts fresh.
func (e *Engine) Recreate(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Close(); err != nil {
		return domain.KeywordSearchError("recreate", err)
	}
	if e.path != "" {
		if err := os.RemoveAll(e.path); err != nil {
			return domain.KeywordSearchError("recreate", err)
		}
	}

	index, err := openIndex(e.path)
	if err != nil {
		return domain.KeywordSearchError("recreate", err)
	}
	e.index = index
	return nil
}

// Index writes chunks in batches and returns the number indexed.
func (e *Engine) Index(_ context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	batch := e.index.NewBatch()
	total := 0
	for i, chunk := range chunks {
		doc := chunkDoc{
			DocumentID: chunk.DocumentID,
			Seq:        chunk.Seq,
			Text:       chunk.Text,
		}
		if err := batch.Index(chunk.ID, doc); err != nil {
			return total, domain.KeywordSearchError("index", err)
		}

		if (i+1)%indexBatchSize == 0 {
			if err := e.index.Batch(batch); err != nil {
				return total, domain.KeywordSearchError("index", err)
			}
			total += batch.Size()
			batch = e.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := e.index.Batch(batch); err != nil {
			return total, domain.KeywordSearchError("index", err)
		}
		total += batch.Size()
	}

	logger.Debug("bleve indexed %d chunks", total)
	return total, nil
}

// Search runs a match query against the chunk text, returning matches
// ordered by descending relevance.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	if query == "" || limit <= 0 {
		return nil, domain.ErrInvalidInput
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	match := bleve.NewMatchQuery(query)
	match.SetField("text")
	req := bleve.NewSearchRequest(match)
	req.Size = limit

	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, domain.KeywordSearchError("search", err)
	}

	matches := make([]domain.Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		matches = append(matches, domain.Match{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: domain.SourceKeyword,
		})
	}
	return matches, nil
}
