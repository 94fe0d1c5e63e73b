package driving

import "context"

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	// Documents is the number of documents written or updated.
	Documents int `json:"documents"`

	// Chunks is the number of chunks written.
	Chunks int `json:"chunks"`

	// Skipped is the number of unchanged documents left alone.
	Skipped int `json:"skipped"`
}

// IndexStats summarizes one index build.
type IndexStats struct {
	// Upserts is the number of vectors written to the vector index.
	Upserts int `json:"upserts"`

	// Keyword is the number of chunks written to the keyword index.
	Keyword int `json:"keyword"`

	// Namespace is the vector namespace written to.
	Namespace string `json:"namespace"`
}

// IngestService loads documents from disk, chunks them, and builds the
// retrieval indexes.
type IngestService interface {
	// Ingest walks path, parses and chunks every supported file, and
	// persists documents and chunks. Unchanged files (same content
	// hash) are skipped.
	Ingest(ctx context.Context, path string) (*IngestStats, error)

	// BuildIndexes embeds all chunks and upserts them to the vector
	// index, and rebuilds the keyword index when one is configured.
	BuildIndexes(ctx context.Context) (*IndexStats, error)
}
