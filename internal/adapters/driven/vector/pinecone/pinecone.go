// Package pinecone provides a vector index adapter backed by the
// Pinecone data-plane REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/resilience"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index host, e.g. my-index-abc123.svc.us-east-1-aws.pinecone.io
	// (required). A scheme prefix is optional.
	Host string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to one Pinecone index over its data-plane API.
type Index struct {
	client  *http.Client
	baseURL string
	apiKey  string
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// NewIndex creates a new Pinecone index adapter.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	baseURL := cfg.Host
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Index{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		retry:   resilience.VectorDBRetry,
		breaker: resilience.NewBreaker("pinecone", 5, 30*time.Second),
	}, nil
}

// queryRequest is the Pinecone /query request format.
type queryRequest struct {
	Namespace       string    `json:"namespace,omitempty"`
	TopK            int       `json:"topK"`
	Vector          []float32 `json:"vector"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// queryResponse is the Pinecone /query response format.
type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// upsertRequest is the Pinecone /vectors/upsert request format.
type upsertRequest struct {
	Namespace string         `json:"namespace,omitempty"`
	Vectors   []upsertVector `json:"vectors"`
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// deleteRequest is the Pinecone /vectors/delete request format.
type deleteRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	IDs       []string `json:"ids"`
}

// Query returns the k nearest matches for the given vector, ordered by
// descending score.
func (x *Index) Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, domain.ErrInvalidInput
	}

	var resp queryResponse
	err := x.call(ctx, "/query", queryRequest{
		Namespace:       namespace,
		TopK:            k,
		Vector:          vector,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, domain.VectorDBError("query", err)
	}

	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{
			ID:     m.ID,
			Score:  m.Score,
			Source: domain.SourceVector,
			Meta:   m.Metadata,
		})
	}
	return matches, nil
}

// Upsert writes vectors to the index.
func (x *Index) Upsert(ctx context.Context, namespace string, items []driven.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	vectors := make([]upsertVector, len(items))
	for i, item := range items {
		vectors[i] = upsertVector{
			ID:       item.ID,
			Values:   item.Values,
			Metadata: item.Metadata,
		}
	}

	err := x.call(ctx, "/vectors/upsert", upsertRequest{
		Namespace: namespace,
		Vectors:   vectors,
	}, nil)
	if err != nil {
		return domain.VectorDBError("upsert", err)
	}
	return nil
}

// Delete removes vectors by ID.
func (x *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := x.call(ctx, "/vectors/delete", deleteRequest{
		Namespace: namespace,
		IDs:       ids,
	}, nil)
	if err != nil {
		return domain.VectorDBError("delete", err)
	}
	return nil
}

// call posts a JSON body to path with retries and the circuit breaker,
// decoding the response into out when out is non-nil.
func (x *Index) call(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return x.retry.Do(ctx, path, func() error {
		return x.breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(
				ctx,
				http.MethodPost,
				x.baseURL+path,
				bytes.NewReader(jsonBody),
			)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Api-Key", x.apiKey)

			resp, err := x.client.Do(req)
			if err != nil {
				return fmt.Errorf("send request: %w", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, string(respBody))
			}

			if out != nil {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		})
	})
}
