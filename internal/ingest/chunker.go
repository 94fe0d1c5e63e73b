package ingest

import (
	"strings"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// DefaultChunkWords is the default number of words per chunk, a crude
// token approximation that keeps chunks inside embedding model limits.
const DefaultChunkWords = 700

// DefaultOverlapWords is the default number of words shared between
// consecutive chunks.
const DefaultOverlapWords = 120

// Chunker splits document text into fixed-size word windows with
// overlap.
type Chunker struct {
	chunkWords int
	overlap    int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkWords sets the chunk size in words.
func WithChunkWords(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.chunkWords = n
		}
	}
}

// WithOverlapWords sets the overlap between chunks in words.
func WithOverlapWords(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		chunkWords: DefaultChunkWords,
		overlap:    DefaultOverlapWords,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure the window always advances.
	if c.overlap >= c.chunkWords {
		c.overlap = c.chunkWords / 4
	}

	return c
}

// Chunk splits text into chunks for the given document. Sequence
// numbers are zero-based and contiguous; chunk IDs are documentID::seq.
// Empty or whitespace-only text produces no chunks.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkWords - c.overlap
	if step < 1 {
		step = 1
	}

	now := time.Now()
	chunks := make([]domain.Chunk, 0, len(words)/step+1)

	seq := 0
	for i := 0; i < len(words); i += step {
		end := i + c.chunkWords
		if end > len(words) {
			end = len(words)
		}
		block := words[i:end]

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, seq),
			DocumentID: documentID,
			Seq:        seq,
			Text:       strings.Join(block, " "),
			WordCount:  len(block),
			CreatedAt:  now,
		})
		seq++

		if end == len(words) {
			break
		}
	}

	return chunks
}
