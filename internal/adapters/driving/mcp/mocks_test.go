package mcp

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	askResult *domain.AskResult
	results   []domain.SearchResult
	err       error
	gotOpts   domain.AskOptions
}

func (m *mockQueryService) Ask(
	_ context.Context,
	question string,
	opts domain.AskOptions,
) (*domain.AskResult, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.askResult != nil {
		return m.askResult, nil
	}
	return &domain.AskResult{Question: question}, nil
}

func (m *mockQueryService) Search(
	_ context.Context,
	_ string,
	opts domain.AskOptions,
) ([]domain.SearchResult, error) {
	m.gotOpts = opts
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	ingestStats *driving.IngestStats
	indexStats  *driving.IndexStats
	err         error
}

func (m *mockIngestService) Ingest(_ context.Context, _ string) (*driving.IngestStats, error) {
	return m.ingestStats, m.err
}

func (m *mockIngestService) BuildIndexes(_ context.Context) (*driving.IndexStats, error) {
	return m.indexStats, m.err
}
