package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/storage/memory"
	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

type fixture struct {
	store    *memory.ChunkStore
	embedder *mockEmbedder
	vector   *mockVectorIndex
	keyword  *mockKeywordIndex
	reranker *mockReranker
	searcher *mockSearcher
	chat     *mockChat
}

func newFixture() *fixture {
	return &fixture{
		store:    memory.NewChunkStore(),
		embedder: &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}},
		vector:   &mockVectorIndex{},
		keyword:  &mockKeywordIndex{},
		reranker: &mockReranker{name: "voyage"},
		searcher: &mockSearcher{},
		chat:     &mockChat{name: "gpt-4o-mini", answer: "the answer"},
	}
}

func (f *fixture) service(cfg PipelineConfig) *QueryService {
	return NewQueryService(
		f.store, f.embedder, f.vector, f.keyword,
		[]driven.Reranker{f.reranker}, f.searcher,
		[]driven.ChatService{f.chat}, cfg,
	)
}

func TestAskSingleChunkEndToEnd(t *testing.T) {
	f := newFixture()
	text := "Vectorpenter is a local AI fabric for document processing."
	seedDoc(t, f.store, "intro.md", text)
	f.vector.matches = []domain.Match{
		{ID: "intro.md::0", Score: 0.92, Source: domain.SourceVector},
	}

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "What is Vectorpenter?",
		domain.AskOptions{K: 5, Hybrid: false, Rerank: false})

	require.NoError(t, err)
	assert.Equal(t, "the answer", res.Answer)
	assert.Equal(t, "What is Vectorpenter?", res.Question)
	assert.Equal(t, 5, res.K)
	assert.Equal(t, "vector", res.SearchType)
	assert.Equal(t, 1, res.Sources)

	// The generation call received exactly the assembled pack.
	wantPack := "[#1] intro.md::0\n" + text + "\n\n"
	assert.Equal(t, wantPack, f.chat.gotPack)
}

func TestAskValidation(t *testing.T) {
	f := newFixture()
	svc := f.service(PipelineConfig{})

	_, err := svc.Ask(context.Background(), "   ", domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.embedder.calls, "validation rejects before any backend call")
}

func TestAskClampsK(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "text")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}

	svc := f.service(PipelineConfig{MaxK: 20})

	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 500})
	require.NoError(t, err)
	assert.Equal(t, 20, res.K)
	assert.Equal(t, 20, f.vector.gotK)

	res, err = svc.Ask(context.Background(), "q", domain.AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultK, res.K, "zero k falls back to the default")
}

func TestAskEmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.embedder.embedErr = domain.EmbeddingError("embed", errors.New("api down"))

	svc := f.service(PipelineConfig{})
	_, err := svc.Ask(context.Background(), "q", domain.AskOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsService(err, domain.ServiceEmbedding))
}

func TestAskVectorFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.vector.queryErr = domain.VectorDBError("query", errors.New("timeout"))

	svc := f.service(PipelineConfig{})
	_, err := svc.Ask(context.Background(), "q", domain.AskOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsService(err, domain.ServiceVectorDB))
}

func TestAskHybridMergesBothSources(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "t0", "t1", "t2")
	f.vector.matches = []domain.Match{
		{ID: "d::0", Score: 0.9, Source: domain.SourceVector},
		{ID: "d::1", Score: 0.8, Source: domain.SourceVector},
	}
	f.keyword.matches = []domain.Match{
		{ID: "d::2", Score: 0.7, Source: domain.SourceTypesense},
	}

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 3, Hybrid: true})

	require.NoError(t, err)
	assert.Equal(t, "hybrid", res.SearchType)
	assert.Equal(t, 3, res.Sources)
	// Oversampled fetch for the merge.
	assert.Equal(t, 6, f.vector.gotK)
}

func TestAskHybridFallsBackWhenKeywordUnavailable(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "t0")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}
	f.keyword.unavailable = true

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 5, Hybrid: true})

	require.NoError(t, err)
	assert.NotContains(t, res.SearchType, "hybrid",
		"label must not claim hybrid when keyword engine is unavailable")
	assert.Equal(t, "vector", res.SearchType)
}

func TestAskHybridDegradesOnKeywordError(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "t0")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}
	f.keyword.searchErr = errors.New("typesense down")

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 5, Hybrid: true})

	require.NoError(t, err, "keyword failure is a degradation, not an error")
	assert.Equal(t, "vector", res.SearchType)
}

func TestAskRerankContributesToLabel(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "t0", "t1")
	f.vector.matches = []domain.Match{
		{ID: "d::0", Score: 0.9, Source: domain.SourceVector},
		{ID: "d::1", Score: 0.8, Source: domain.SourceVector},
	}

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 2, Rerank: true})

	require.NoError(t, err)
	assert.Equal(t, "vector+rerank", res.SearchType)
}

func TestAskRerankFailureKeepsLabelClean(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "t0")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}
	f.reranker.err = errors.New("voyage down")

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 1, Rerank: true})

	require.NoError(t, err)
	assert.Equal(t, "vector", res.SearchType,
		"identity fallback did not contribute a stage")
}

func TestAskGroundingEndToEnd(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "weak local evidence")
	// Best score 0.1 below the 0.18 threshold, 1 result with k=10.
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.1, Source: domain.SourceVector}}
	f.searcher.results = []domain.ExternalResult{
		{Title: "Web One", Link: "https://one.example", Snippet: "first external"},
		{Title: "Web Two", Link: "https://two.example", Snippet: "second external"},
	}

	svc := f.service(PipelineConfig{GroundingThreshold: 0.18})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 10, Grounding: true})

	require.NoError(t, err)
	assert.Equal(t, 1, f.searcher.calls, "grounder invoked once")
	assert.Equal(t, "vector+grounding", res.SearchType)
	assert.Equal(t, 3, res.Sources)

	assert.Contains(t, f.chat.gotPack, "[G#1] Web One")
	assert.Contains(t, f.chat.gotPack, "[G#2] Web Two")
	assert.Less(t, strings.Index(f.chat.gotPack, "[#1]"), strings.Index(f.chat.gotPack, "[G#1]"),
		"local evidence renders before external")
}

func TestAskGroundingSkippedWhenEvidenceStrong(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "strong", "evidence", "here", "really", "solid", "stuff")
	f.vector.matches = []domain.Match{
		{ID: "d::0", Score: 0.95, Source: domain.SourceVector},
		{ID: "d::1", Score: 0.94, Source: domain.SourceVector},
		{ID: "d::2", Score: 0.93, Source: domain.SourceVector},
	}

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 3, Grounding: true})

	require.NoError(t, err)
	assert.Equal(t, 0, f.searcher.calls, "no wasted web search on strong evidence")
	assert.NotContains(t, res.SearchType, "grounding")
}

func TestAskGroundingFailureSwallowed(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "weak")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.05, Source: domain.SourceVector}}
	f.searcher.err = errors.New("cse quota")

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 10, Grounding: true})

	require.NoError(t, err)
	assert.NotContains(t, res.SearchType, "grounding")
	assert.Equal(t, "the answer", res.Answer)
}

func TestAskNoEvidenceSkipsGeneration(t *testing.T) {
	f := newFixture()
	// Vector index returns nothing; store is empty.

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 5})

	require.NoError(t, err)
	assert.Equal(t, noEvidenceAnswer, res.Answer)
	assert.Zero(t, res.Sources)
	assert.Equal(t, 0, f.chat.calls, "no LLM call on an empty context pack")
}

func TestAskGenerationChainFallsThrough(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "text")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}

	primary := &mockChat{name: "gemini", err: errors.New("vertex down")}
	fallback := &mockChat{name: "gpt-4o-mini", answer: "fallback answer"}
	svc := NewQueryService(f.store, f.embedder, f.vector, nil, nil, nil,
		[]driven.ChatService{primary, fallback}, PipelineConfig{})

	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 1})

	require.NoError(t, err)
	assert.Equal(t, "fallback answer", res.Answer)
	assert.Equal(t, 1, primary.calls)
}

func TestAskGenerationFailureReturnsApology(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "text")
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}
	f.chat.err = errors.New("all models down")

	svc := f.service(PipelineConfig{})
	res, err := svc.Ask(context.Background(), "q", domain.AskOptions{K: 1})

	require.NoError(t, err, "generation failure is reported in the answer, not as an error")
	assert.Equal(t, generationFailedAnswer, res.Answer)
}

func TestAskMissingRequiredBackends(t *testing.T) {
	f := newFixture()

	svc := NewQueryService(f.store, nil, f.vector, nil, nil, nil, nil, PipelineConfig{})
	_, err := svc.Ask(context.Background(), "q", domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	svc = NewQueryService(f.store, f.embedder, nil, nil, nil, nil, nil, PipelineConfig{})
	_, err = svc.Ask(context.Background(), "q", domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestSearchReturnsHydratedResults(t *testing.T) {
	f := newFixture()
	seedDoc(t, f.store, "d", "first chunk", "second chunk")
	f.vector.matches = []domain.Match{
		{ID: "d::1", Score: 0.9, Source: domain.SourceVector},
	}

	svc := f.service(PipelineConfig{NeighborLeft: 1, NeighborRight: 1})
	results, err := svc.Search(context.Background(), "q", domain.AskOptions{K: 5})

	require.NoError(t, err)
	// The hit plus its left neighbor, in reading order.
	require.Len(t, results, 2)
	assert.Equal(t, "d::0", results[0].ID)
	assert.Equal(t, "first chunk", results[0].Text)
	assert.Equal(t, "d::1", results[1].ID)
	assert.Equal(t, 0.9, results[1].Score)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture()
	svc := f.service(PipelineConfig{})

	results, err := svc.Search(context.Background(), "  ", domain.AskOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, f.embedder.calls)
}

func TestSearchTruncatesLongText(t *testing.T) {
	f := newFixture()
	long := strings.Repeat("x", 600)
	seedDoc(t, f.store, "d", long)
	f.vector.matches = []domain.Match{{ID: "d::0", Score: 0.9, Source: domain.SourceVector}}

	svc := f.service(PipelineConfig{})
	results, err := svc.Search(context.Background(), "q", domain.AskOptions{K: 1})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Text, 500+len("..."))
	assert.True(t, strings.HasSuffix(results[0].Text, "..."))
}
