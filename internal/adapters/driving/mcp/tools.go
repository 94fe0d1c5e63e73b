package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the search query to find relevant chunks"`
	K      int    `json:"k,omitempty" jsonschema:"maximum number of results to return (default 12)"`
	Hybrid bool   `json:"hybrid,omitempty" jsonschema:"combine keyword and vector retrieval"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Seq        int     `json:"seq"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	Text       string  `json:"text,omitempty"`
}

// AnswerInput is the input schema for the generate_answer tool.
type AnswerInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed corpus"`
	K         int    `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default 12)"`
	Hybrid    bool   `json:"hybrid,omitempty" jsonschema:"combine keyword and vector retrieval"`
	Rerank    bool   `json:"rerank,omitempty" jsonschema:"rerank results with a cross-encoder"`
	Grounding bool   `json:"grounding,omitempty" jsonschema:"allow web search when local evidence is weak"`
}

// AnswerOutput is the output schema for the generate_answer tool.
type AnswerOutput struct {
	Answer     string `json:"answer"`
	SearchType string `json:"search_type"`
	Sources    int    `json:"sources"`
}

// HealthInput is the input schema for the health_check tool.
type HealthInput struct{}

// HealthOutput is the output schema for the health_check tool.
type HealthOutput struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.impl, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the indexed corpus for chunks relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.impl, &mcp.Tool{
		Name:        "generate_answer",
		Description: "Answer a question with citations from the indexed corpus",
	}, s.handleAnswer)

	mcp.AddTool(s.impl, &mcp.Tool{
		Name:        "health_check",
		Description: "Check that the server is up",
	}, s.handleHealth)
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.AskOptions{K: input.K, Hybrid: input.Hybrid}
	results, err := s.ports.Query.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ID:         results[i].ID,
			DocumentID: results[i].DocumentID,
			Seq:        results[i].Seq,
			Score:      results[i].Score,
			Source:     results[i].Source,
			Text:       results[i].Text,
		}
	}

	return nil, output, nil
}

// handleAnswer handles the generate_answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	result, err := s.ports.Query.Ask(ctx, input.Question, domain.AskOptions{
		K:         input.K,
		Hybrid:    input.Hybrid,
		Rerank:    input.Rerank,
		Grounding: input.Grounding,
	})
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	return nil, AnswerOutput{
		Answer:     result.Answer,
		SearchType: result.SearchType,
		Sources:    result.Sources,
	}, nil
}

// handleHealth handles the health_check tool invocation.
func (s *Server) handleHealth(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ HealthInput,
) (*mcp.CallToolResult, HealthOutput, error) {
	return nil, HealthOutput{OK: true, Version: Version}, nil
}
