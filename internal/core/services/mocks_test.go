package services

import (
	"context"
	"errors"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	vector   []float32
	embedErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return len(m.vector) }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	matches   []domain.Match
	queryErr  error
	gotK      int
	gotNS     string
	upserted  []driven.VectorItem
	upsertErr error
}

func (m *mockVectorIndex) Query(_ context.Context, ns string, _ []float32, k int) ([]domain.Match, error) {
	m.gotK = k
	m.gotNS = ns
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k < len(m.matches) {
		return m.matches[:k], nil
	}
	return m.matches, nil
}

func (m *mockVectorIndex) Upsert(_ context.Context, _ string, items []driven.VectorItem) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, items...)
	return nil
}

func (m *mockVectorIndex) Delete(_ context.Context, _ string, _ []string) error { return nil }

// mockKeywordIndex implements driven.KeywordIndex for testing.
type mockKeywordIndex struct {
	matches     []domain.Match
	searchErr   error
	unavailable bool
	indexed     int
}

func (m *mockKeywordIndex) Index(_ context.Context, chunks []domain.Chunk) (int, error) {
	m.indexed += len(chunks)
	return len(chunks), nil
}

func (m *mockKeywordIndex) Search(_ context.Context, _ string, limit int) ([]domain.Match, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.matches) {
		return m.matches[:limit], nil
	}
	return m.matches, nil
}

func (m *mockKeywordIndex) Recreate(_ context.Context) error { return nil }

func (m *mockKeywordIndex) Available(_ context.Context) bool { return !m.unavailable }

// mockReranker implements driven.Reranker for testing.
type mockReranker struct {
	name    string
	err     error
	reverse bool
	calls   int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, snippets []domain.Snippet) ([]domain.Snippet, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Snippet, len(snippets))
	copy(out, snippets)
	if m.reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	for i := range out {
		score := 1.0 - float64(i)*0.01
		out[i].RerankScore = &score
		out[i].Reranker = m.name
	}
	return out, nil
}

func (m *mockReranker) Name() string { return m.name }

// mockSearcher implements driven.WebSearcher for testing.
type mockSearcher struct {
	results     []domain.ExternalResult
	err         error
	unavailable bool
	calls       int
}

func (m *mockSearcher) Search(_ context.Context, _ string, maxResults int) ([]domain.ExternalResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if maxResults < len(m.results) {
		return m.results[:maxResults], nil
	}
	return m.results, nil
}

func (m *mockSearcher) Available() bool { return !m.unavailable }

// mockChat implements driven.ChatService for testing.
type mockChat struct {
	name    string
	answer  string
	err     error
	gotPack string
	calls   int
}

func (m *mockChat) Answer(_ context.Context, _ string, pack string) (string, error) {
	m.calls++
	m.gotPack = pack
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockChat) ModelName() string { return m.name }

// failingStore wraps a ChunkStore and fails GetChunkRange, for
// exercising the expansion fallback path.
type failingStore struct {
	driven.ChunkStore
}

func (f *failingStore) GetChunkRange(_ context.Context, _ string, _, _ int) ([]domain.Chunk, error) {
	return nil, errors.New("store down")
}
