package domain

// Provenance tags record which retrieval source contributed a match.
// Score scales differ per source (dot-product for vector, normalized
// lexical score for keyword, 0-1 relevance for rerank) and are never
// comparable across sources.
const (
	// SourceVector marks a match from the vector index.
	SourceVector = "vector"

	// SourceKeyword marks a match from the local keyword engine.
	SourceKeyword = "keyword"

	// SourceTypesense marks a match from the Typesense keyword engine.
	SourceTypesense = "typesense"
)

// Match is a transient retrieval hit: an identifier with a score but no
// text. Matches live only for the duration of one query and are never
// persisted.
type Match struct {
	// ID is the chunk identifier.
	ID string

	// Score is the similarity or relevance score. Only meaningful for
	// ordering within the same Source.
	Score float64

	// Source is the provenance tag (SourceVector, SourceKeyword, ...).
	Source string

	// Meta is the opaque metadata blob returned by the backend.
	Meta map[string]any
}

// Snippet is a Match hydrated with text and positional metadata. It is
// the unit the reranker, neighbor expander, and context assembler
// operate on.
type Snippet struct {
	// ID is the chunk identifier.
	ID string

	// DocumentID is the parent document. Empty when hydration could not
	// resolve the identifier.
	DocumentID string

	// Seq is the chunk position within the document.
	Seq int

	// Text is the chunk content. Empty when hydration could not resolve
	// the identifier.
	Text string

	// Score is carried forward from the originating Match. Neighbor
	// snippets inherit the score of the snippet that pulled them in.
	Score float64

	// Source is the provenance tag carried forward from the Match.
	Source string

	// RerankScore is the cross-encoder relevance score, set only after
	// a successful rerank pass.
	RerankScore *float64

	// Reranker names the provider that produced RerankScore.
	Reranker string

	// NeighborOf is the identifier of the snippet that triggered this
	// one during neighbor expansion. Empty for originals.
	NeighborOf string
}

// ExternalResult is a web-search hit used for grounding. External
// results share no identifier space with local chunks and always render
// after local evidence.
type ExternalResult struct {
	// Title is the page title.
	Title string

	// Link is the page URL.
	Link string

	// Snippet is the search-engine summary text.
	Snippet string
}
