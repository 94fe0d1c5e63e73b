package cli

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	askResult *domain.AskResult
	askErr    error
	results   []domain.SearchResult
	searchErr error
	gotQuery  string
	gotOpts   domain.AskOptions
}

func (m *mockQueryService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.AskResult, error) {
	m.gotQuery = question
	m.gotOpts = opts
	if m.askResult != nil || m.askErr != nil {
		return m.askResult, m.askErr
	}
	return &domain.AskResult{
		Question:   question,
		Answer:     "mock answer [#1]",
		K:          opts.K,
		SearchType: "vector",
		Sources:    1,
	}, nil
}

func (m *mockQueryService) Search(_ context.Context, query string, opts domain.AskOptions) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.searchErr
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	ingestStats *driving.IngestStats
	indexStats  *driving.IndexStats
	err         error
	gotPath     string
}

func (m *mockIngestService) Ingest(_ context.Context, path string) (*driving.IngestStats, error) {
	m.gotPath = path
	if m.ingestStats != nil || m.err != nil {
		return m.ingestStats, m.err
	}
	return &driving.IngestStats{Documents: 1, Chunks: 2}, nil
}

func (m *mockIngestService) BuildIndexes(_ context.Context) (*driving.IndexStats, error) {
	if m.indexStats != nil || m.err != nil {
		return m.indexStats, m.err
	}
	return &driving.IndexStats{Upserts: 2, Keyword: 2, Namespace: "default"}, nil
}

// setupTestServices swaps the package services for mocks and returns
// the mocks plus a cleanup that restores the previous values.
func setupTestServices() (*mockQueryService, *mockIngestService, func()) {
	oldQuery := queryService
	oldIngest := ingestService

	query := &mockQueryService{}
	ing := &mockIngestService{}
	queryService = query
	ingestService = ing

	return query, ing, func() {
		queryService = oldQuery
		ingestService = oldIngest
	}
}
