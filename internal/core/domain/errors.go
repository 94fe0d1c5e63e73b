package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Queries cannot run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Queries cannot run without it.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrKeywordUnavailable indicates no keyword engine is configured.
	// Hybrid search degrades to vector-only.
	ErrKeywordUnavailable = errors.New("keyword engine unavailable")
)

// ServiceError wraps a backend failure with enough context to diagnose
// it without re-triggering the call.
type ServiceError struct {
	// Service names the backend: "embedding", "vector-database",
	// "reranker", "keyword-search", or "generation".
	Service string

	// Op is the operation that failed, e.g. "query" or "upsert".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Service names used by the ServiceError constructors.
const (
	ServiceEmbedding  = "embedding"
	ServiceVectorDB   = "vector-database"
	ServiceReranker   = "reranker"
	ServiceKeyword    = "keyword-search"
	ServiceGeneration = "generation"
)

// EmbeddingError wraps an embedding backend failure.
func EmbeddingError(op string, err error) error {
	return &ServiceError{Service: ServiceEmbedding, Op: op, Err: err}
}

// VectorDBError wraps a vector database failure.
func VectorDBError(op string, err error) error {
	return &ServiceError{Service: ServiceVectorDB, Op: op, Err: err}
}

// RerankError wraps a reranking provider failure.
func RerankError(op string, err error) error {
	return &ServiceError{Service: ServiceReranker, Op: op, Err: err}
}

// KeywordSearchError wraps a keyword engine failure.
func KeywordSearchError(op string, err error) error {
	return &ServiceError{Service: ServiceKeyword, Op: op, Err: err}
}

// GenerationError wraps an LLM generation failure.
func GenerationError(op string, err error) error {
	return &ServiceError{Service: ServiceGeneration, Op: op, Err: err}
}

// IsService reports whether err is a ServiceError for the named
// service.
func IsService(err error, service string) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Service == service
}
