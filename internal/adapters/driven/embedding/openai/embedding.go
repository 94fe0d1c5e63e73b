// Package openai provides an embedding service adapter backed by the
// OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/machinecraft-tech/vectorpenter/internal/cache"
	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
	"github.com/machinecraft-tech/vectorpenter/internal/resilience"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel     = "text-embedding-3-small"
	DefaultCacheSize = 2048
	DefaultCacheTTL  = time.Hour
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// CacheSize is the number of embeddings kept in the in-process
	// cache (default: 2048).
	CacheSize int

	// CacheTTL is how long cached embeddings stay valid (default: 1h).
	CacheTTL time.Duration

	// BaseURL overrides the API endpoint; used in tests.
	BaseURL string
}

// EmbeddingService generates embeddings via the OpenAI API with an
// in-process cache, retries, and a circuit breaker in front of it.
type EmbeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	cache      *cache.Cache
	retry      resilience.RetryPolicy
	breaker    *resilience.Breaker
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1536
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dimensions,
		cache:      cache.New(cfg.CacheSize, cfg.CacheTTL),
		retry:      resilience.EmbeddingRetry,
		breaker:    resilience.NewBreaker("openai-embeddings", 5, 30*time.Second),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, domain.EmbeddingError("embed", fmt.Errorf("no embedding returned"))
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts. Results align
// one-to-one with the input; empty texts get zero vectors without an
// API call. Cached texts are served locally.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))

	// Resolve what we can from the cache; collect the rest.
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = make([]float32, s.dimensions)
			continue
		}
		if v, ok := s.cache.Get(cache.Key(s.model, text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	logger.Debug("embedding %d texts (%d cached)", len(missing), len(texts)-len(missing))

	var resp openai.EmbeddingResponse
	err := s.retry.Do(ctx, "embed", func() error {
		return s.breaker.Execute(func() error {
			var apiErr error
			resp, apiErr = s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Model: openai.EmbeddingModel(s.model),
				Input: missing,
			})
			return apiErr
		})
	})
	if err != nil {
		return nil, domain.EmbeddingError("embed", err)
	}

	if len(resp.Data) != len(missing) {
		return nil, domain.EmbeddingError("embed",
			fmt.Errorf("expected %d embeddings, got %d", len(missing), len(resp.Data)))
	}

	for j, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		copy(vec, data.Embedding)
		out[missingIdx[j]] = vec
		s.cache.Put(cache.Key(s.model, missing[j]), vec)
	}

	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}
