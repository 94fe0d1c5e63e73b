package domain

// DefaultK is the number of results requested when the caller does not
// specify one.
const DefaultK = 12

// AskOptions configures a question-answering query.
type AskOptions struct {
	// K is the number of chunks to retrieve (default DefaultK).
	K int

	// Hybrid enables combined keyword + vector retrieval. Silently
	// degrades to vector-only when no keyword engine is available.
	Hybrid bool

	// Rerank enables the cross-encoder rerank pass.
	Rerank bool

	// Grounding enables external web-search supplementation when local
	// evidence is weak.
	Grounding bool

	// Namespace overrides the configured vector namespace.
	Namespace string
}

// AskResult is the answer to a question plus the observability fields
// the serving surfaces echo back.
type AskResult struct {
	// Question is the original question text.
	Question string `json:"question"`

	// Answer is the generated answer.
	Answer string `json:"answer"`

	// K is the effective result count used.
	K int `json:"k"`

	// SearchType labels the stages that actually fired, concatenated in
	// execution order, e.g. "hybrid+rerank+grounding".
	SearchType string `json:"search_type"`

	// Sources is the number of snippets that made it into the context
	// pack, external results included.
	Sources int `json:"sources"`
}

// SearchResult is one hit returned by the search (no generation)
// surface.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string `json:"id"`

	// DocumentID is the parent document.
	DocumentID string `json:"document_id"`

	// Seq is the chunk position within the document.
	Seq int `json:"seq"`

	// Text is the chunk content, truncated for display.
	Text string `json:"text"`

	// Score is the retrieval score.
	Score float64 `json:"score"`

	// Source is the provenance tag.
	Source string `json:"source"`
}
