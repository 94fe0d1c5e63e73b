// Package cohere provides a reranker adapter backed by the Cohere
// rerank API. It serves as the fallback when Voyage is not configured.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com/v1"
	DefaultModel   = "rerank-english-v3.0"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Cohere reranker.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com/v1).
	BaseURL string

	// Model is the rerank model (default: rerank-english-v3.0).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Reranker reorders snippets by relevance using Cohere.
type Reranker struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewReranker creates a new Cohere reranker.
func NewReranker(cfg Config) (*Reranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// rerankRequest is the Cohere /rerank request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponse is the Cohere /rerank response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Name returns the provider name recorded on reranked snippets.
func (r *Reranker) Name() string {
	return "cohere"
}

// Rerank reorders snippets by descending relevance to the query.
func (r *Reranker) Rerank(ctx context.Context, query string, snippets []domain.Snippet) ([]domain.Snippet, error) {
	if len(snippets) == 0 {
		return snippets, nil
	}

	documents := make([]string, len(snippets))
	for i, s := range snippets {
		documents[i] = s.Text
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      len(snippets),
	})
	if err != nil {
		return nil, domain.RerankError("rerank", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, domain.RerankError("rerank", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, domain.RerankError("rerank", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.RerankError("rerank", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.RerankError("rerank",
			fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var rr rerankResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return nil, domain.RerankError("rerank", err)
	}

	out := make([]domain.Snippet, 0, len(rr.Results))
	for _, result := range rr.Results {
		if result.Index < 0 || result.Index >= len(snippets) {
			return nil, domain.RerankError("rerank",
				fmt.Errorf("result index %d out of range", result.Index))
		}
		s := snippets[result.Index]
		score := result.RelevanceScore
		s.RerankScore = &score
		s.Reranker = r.Name()
		out = append(out, s)
	}
	return out, nil
}
