// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for queries to function:
//
//   - ChunkStore: Document and chunk persistence. Source of truth for text.
//   - EmbeddingService: Turns text into dense vectors.
//   - VectorIndex: Vector storage and nearest-neighbour search.
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - KeywordIndex: Lexical search. Without it, hybrid search falls back
//     to vector-only.
//   - Reranker: Cross-encoder rerank pass. Without it (or on failure),
//     results keep their retrieval order.
//   - WebSearcher: External grounding. Without it, weak local evidence
//     is served as-is.
//   - ChatService: Answer generation. Without it, only search works.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
