package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document represents an ingested source document.
// Content is hashed so re-ingestion of an unchanged file is a no-op;
// a changed file supersedes the previous version and all its chunks.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Path is the original location of the source file.
	Path string

	// Title is the human-readable title (defaults to the file name).
	Title string

	// ContentHash is the SHA-256 hex digest of the extracted text.
	ContentHash string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk is a contiguous slice of a document's text and the unit of
// retrieval. Chunks are immutable once written; re-ingestion replaces
// the whole set for a document rather than mutating individual chunks.
type Chunk struct {
	// ID is the chunk identifier, always DocumentID::Seq.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Seq is the zero-based position within the document.
	// Within one document sequence numbers are unique and contiguous.
	Seq int

	// Text is the chunk content.
	Text string

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}

// ChunkID builds the canonical chunk identifier for a document and
// sequence number.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s::%d", documentID, seq)
}

// ParseChunkID splits a chunk identifier into document ID and sequence
// number. Returns ErrInvalidInput for malformed identifiers.
func ParseChunkID(id string) (string, int, error) {
	idx := strings.LastIndex(id, "::")
	if idx <= 0 {
		return "", 0, fmt.Errorf("%w: malformed chunk id %q", ErrInvalidInput, id)
	}
	seq, err := strconv.Atoi(id[idx+2:])
	if err != nil || seq < 0 {
		return "", 0, fmt.Errorf("%w: malformed chunk id %q", ErrInvalidInput, id)
	}
	return id[:idx], seq, nil
}
