// Package ingest loads documents from disk, splits them into chunks,
// and builds the retrieval indexes.
package ingest
