// Package typesense provides a keyword index adapter backed by a
// Typesense server.
package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
	"github.com/machinecraft-tech/vectorpenter/internal/resilience"
)

// Ensure Index implements the interface.
var _ driven.KeywordIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultCollection = "vectorpenter_chunks"
	DefaultTimeout    = 10 * time.Second
	importBatchSize   = 100
)

// Config holds configuration for the Typesense index.
type Config struct {
	// URL is the server base URL, e.g. http://localhost:8108 (required).
	URL string

	// APIKey is the Typesense API key (required).
	APIKey string

	// Collection is the collection name (default: vectorpenter_chunks).
	Collection string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration
}

// Index talks to one Typesense collection.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	retry      resilience.RetryPolicy
}

// NewIndex creates a new Typesense index adapter.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("typesense: server URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("typesense: API key is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		retry:      resilience.KeywordRetry,
	}, nil
}

// collectionSchema is the collection create request.
type collectionSchema struct {
	Name   string            `json:"name"`
	Fields []collectionField `json:"fields"`
}

type collectionField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// chunkDocument is the indexed document format.
type chunkDocument struct {
	ID        string `json:"id"`
	Doc       string `json:"doc"`
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// searchResponse is the documents/search response format.
type searchResponse struct {
	Hits []struct {
		TextMatch float64       `json:"text_match"`
		Document  chunkDocument `json:"document"`
	} `json:"hits"`
}

// Available reports whether the server responds to a health check.
func (x *Index) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("X-TYPESENSE-API-KEY", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Recreate drops and recreates the collection for a clean reindex.
func (x *Index) Recreate(ctx context.Context) error {
	// Delete is best-effort; a missing collection is fine.
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		x.baseURL+"/collections/"+url.PathEscape(x.collection), http.NoBody)
	if err != nil {
		return domain.KeywordSearchError("recreate", err)
	}
	req.Header.Set("X-TYPESENSE-API-KEY", x.apiKey)
	if resp, err := x.client.Do(req); err == nil {
		resp.Body.Close()
	}

	schema := collectionSchema{
		Name: x.collection,
		Fields: []collectionField{
			{Name: "id", Type: "string"},
			{Name: "doc", Type: "string"},
			{Name: "seq", Type: "int32"},
			{Name: "text", Type: "string"},
			{Name: "created_at", Type: "int64", Optional: true},
		},
	}
	body, err := json.Marshal(schema)
	if err != nil {
		return domain.KeywordSearchError("recreate", err)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost,
		x.baseURL+"/collections", bytes.NewReader(body))
	if err != nil {
		return domain.KeywordSearchError("recreate", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TYPESENSE-API-KEY", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return domain.KeywordSearchError("recreate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.KeywordSearchError("recreate",
			fmt.Errorf("create collection (status %d): %s", resp.StatusCode, string(respBody)))
	}
	return nil
}

// Index bulk-imports chunks in batches. Returns the number of chunks
// accepted by the server; failed batches are logged and skipped.
func (x *Index) Index(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(chunks); start += importBatchSize {
		end := start + importBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		n, err := x.importBatch(ctx, chunks[start:end])
		if err != nil {
			logger.Warn("typesense batch import failed: %v", err)
			continue
		}
		total += n
	}

	return total, nil
}

// importBatch posts one JSONL import request.
func (x *Index) importBatch(ctx context.Context, chunks []domain.Chunk) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range chunks {
		doc := chunkDocument{
			ID:        c.ID,
			Doc:       filepath.Base(c.DocumentID),
			Seq:       c.Seq,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.Unix(),
		}
		if err := enc.Encode(doc); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		x.baseURL+"/collections/"+url.PathEscape(x.collection)+"/documents/import?action=upsert",
		&buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-TYPESENSE-API-KEY", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("import (status %d): %s", resp.StatusCode, string(body))
	}

	// The import response is one JSON result per line.
	count := 0
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		var result struct {
			Success bool `json:"success"`
		}
		if err := json.Unmarshal([]byte(line), &result); err == nil && result.Success {
			count++
		}
	}
	return count, nil
}

// Search runs a keyword query against the text field, returning
// matches with text_match scores normalized to roughly 0-1.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, domain.ErrInvalidInput
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("query_by", "text")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_by", "_text_match:desc")

	searchURL := x.baseURL + "/collections/" + url.PathEscape(x.collection) +
		"/documents/search?" + params.Encode()

	var sr searchResponse
	err := x.retry.Do(ctx, "search", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("X-TYPESENSE-API-KEY", x.apiKey)

		resp, err := x.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search (status %d): %s", resp.StatusCode, string(body))
		}
		return json.Unmarshal(body, &sr)
	})
	if err != nil {
		return nil, domain.KeywordSearchError("search", err)
	}

	matches := make([]domain.Match, 0, len(sr.Hits))
	for _, hit := range sr.Hits {
		matches = append(matches, domain.Match{
			ID:     hit.Document.ID,
			Score:  hit.TextMatch / 100.0,
			Source: domain.SourceTypesense,
			Meta: map[string]any{
				"doc": hit.Document.Doc,
				"seq": hit.Document.Seq,
			},
		})
	}
	return matches, nil
}
