package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/storage/memory"
	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

type stubEmbedder struct {
	dims     int
	embedErr error
	batches  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return make([]float32, s.dims), nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.batches++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, s.dims)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int   { return s.dims }
func (s *stubEmbedder) ModelName() string { return "stub-embed" }

type stubVectorIndex struct {
	upserted  []driven.VectorItem
	calls     int
	gotNS     string
	upsertErr error
}

func (s *stubVectorIndex) Query(_ context.Context, _ string, _ []float32, _ int) ([]domain.Match, error) {
	return nil, nil
}

func (s *stubVectorIndex) Upsert(_ context.Context, ns string, items []driven.VectorItem) error {
	s.calls++
	s.gotNS = ns
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, items...)
	return nil
}

func (s *stubVectorIndex) Delete(_ context.Context, _ string, _ []string) error { return nil }

type stubKeywordIndex struct {
	indexed     int
	recreated   int
	recreateErr error
	unavailable bool
}

func (s *stubKeywordIndex) Index(_ context.Context, chunks []domain.Chunk) (int, error) {
	s.indexed += len(chunks)
	return len(chunks), nil
}

func (s *stubKeywordIndex) Search(_ context.Context, _ string, _ int) ([]domain.Match, error) {
	return nil, nil
}

func (s *stubKeywordIndex) Recreate(_ context.Context) error {
	s.recreated++
	return s.recreateErr
}

func (s *stubKeywordIndex) Available(_ context.Context) bool { return !s.unavailable }

func TestIngestFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha document text")
	writeFile(t, dir, "b.md", "beta document text")

	store := memory.NewChunkStore()
	svc := NewService(store, &stubEmbedder{dims: 3}, &stubVectorIndex{}, nil)

	stats, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)
	assert.Zero(t, stats.Skipped)

	n, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIngestSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "stable content")

	store := memory.NewChunkStore()
	svc := NewService(store, &stubEmbedder{dims: 3}, &stubVectorIndex{}, nil)

	_, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)

	stats, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
	assert.Equal(t, 1, stats.Skipped)
}

func TestIngestSupersedesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", words(20))

	store := memory.NewChunkStore()
	svc := NewService(store, &stubEmbedder{dims: 3}, &stubVectorIndex{}, nil,
		WithChunker(NewChunker(WithChunkWords(10), WithOverlapWords(0))))

	_, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)

	first, err := store.GetDocumentByPath(context.Background(), path)
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "short now")

	stats, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)

	// Old chunks are gone, new set replaces them entirely.
	chunks, err := store.ListChunks(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short now", chunks[0].Text)

	// Document identity and creation time survive the supersede.
	second, err := store.GetDocumentByPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
}

func TestBuildIndexesUpsertsAllChunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", words(25))

	store := memory.NewChunkStore()
	embedder := &stubEmbedder{dims: 3}
	vector := &stubVectorIndex{}
	keyword := &stubKeywordIndex{}
	svc := NewService(store, embedder, vector, keyword,
		WithChunker(NewChunker(WithChunkWords(10), WithOverlapWords(0))),
		WithNamespace("docs"),
		WithUpsertBatch(2))

	_, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)

	stats, err := svc.BuildIndexes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Upserts)
	assert.Equal(t, 3, stats.Keyword)
	assert.Equal(t, "docs", stats.Namespace)
	assert.Equal(t, 1, keyword.recreated)
	assert.Equal(t, "docs", vector.gotNS)
	assert.Equal(t, 2, vector.calls, "3 chunks in batches of 2")

	require.Len(t, vector.upserted, 3)
	assert.Contains(t, vector.upserted[0].Metadata, "document_id")
	assert.Contains(t, vector.upserted[0].Metadata, "seq")
}

func TestBuildIndexesEmptyStore(t *testing.T) {
	store := memory.NewChunkStore()
	vector := &stubVectorIndex{}
	svc := NewService(store, &stubEmbedder{dims: 3}, vector, nil)

	stats, err := svc.BuildIndexes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Upserts)
	assert.Zero(t, vector.calls)
}

func TestBuildIndexesKeywordFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "some text")

	store := memory.NewChunkStore()
	keyword := &stubKeywordIndex{recreateErr: errors.New("typesense down")}
	svc := NewService(store, &stubEmbedder{dims: 3}, &stubVectorIndex{}, keyword)

	_, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)

	stats, err := svc.BuildIndexes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Keyword)
	assert.Equal(t, 1, stats.Upserts, "vector build proceeds without keyword")
}

func TestBuildIndexesEmbedFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "some text")

	store := memory.NewChunkStore()
	svc := NewService(store, &stubEmbedder{dims: 3, embedErr: errors.New("api down")}, &stubVectorIndex{}, nil)

	_, err := svc.Ingest(context.Background(), dir)
	require.NoError(t, err)

	_, err = svc.BuildIndexes(context.Background())
	assert.Error(t, err)
}

func TestBuildIndexesMissingBackends(t *testing.T) {
	store := memory.NewChunkStore()

	svc := NewService(store, nil, &stubVectorIndex{}, nil)
	_, err := svc.BuildIndexes(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	svc = NewService(store, &stubEmbedder{dims: 3}, nil, nil)
	_, err = svc.BuildIndexes(context.Background())
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}
