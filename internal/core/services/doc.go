// Package services implements the core retrieval-and-generation
// pipeline: hybrid merging, hydration, reranking, neighbor expansion,
// grounding, context assembly, and query orchestration.
//
// Services depend only on domain types and driven ports; adapters are
// injected by the composition root. Every stage past retrieval degrades
// rather than fails: a query only errors when embedding or vector
// search is exhausted.
package services
