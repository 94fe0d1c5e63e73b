// Package googlecse provides a web searcher adapter backed by the
// Google Programmable Search (Custom Search) API.
package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driven.WebSearcher = (*Searcher)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	DefaultTimeout = 10 * time.Second

	// maxPerQuery is the CSE API ceiling for the num parameter.
	maxPerQuery = 10
)

// Config holds configuration for the Google CSE searcher.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// CX is the Programmable Search Engine ID (required).
	CX string

	// BaseURL is the API endpoint (default: googleapis customsearch v1).
	BaseURL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration

	// QueriesPerSecond rate-limits outgoing searches. The free tier is
	// 100 queries/day, so the default of 1 qps is generous already.
	QueriesPerSecond float64
}

// Searcher fetches external web evidence for grounding.
type Searcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cx      string
	limiter *rate.Limiter
}

// NewSearcher creates a new Google CSE searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("googlecse: API key is required")
	}
	if cfg.CX == "" {
		return nil, fmt.Errorf("googlecse: search engine ID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QueriesPerSecond <= 0 {
		cfg.QueriesPerSecond = 1
	}

	return &Searcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cx:      cfg.CX,
		limiter: rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), 1),
	}, nil
}

// searchResponse is the CSE response format, reduced to the fields
// requested via the fields parameter.
type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Available always reports true once the searcher is constructed; the
// required credentials are validated at construction.
func (s *Searcher) Available() bool {
	return true
}

// Search returns up to maxResults web results for the query. Results
// missing a title or snippet are filtered out.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]domain.ExternalResult, error) {
	if query == "" || maxResults <= 0 {
		return nil, domain.ErrInvalidInput
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	num := maxResults
	if num > maxPerQuery {
		num = maxPerQuery
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.cx)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("safe", "off")
	params.Set("fields", "items(title,link,snippet)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search error (status %d): %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]domain.ExternalResult, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.Title == "" || item.Snippet == "" {
			continue
		}
		results = append(results, domain.ExternalResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
		if len(results) == maxResults {
			break
		}
	}

	logger.Debug("google search: %d results for %q", len(results), query)
	return results, nil
}
