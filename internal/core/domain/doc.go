// Package domain contains the core business types for Vectorpenter:
// documents and their chunks, transient retrieval matches, hydrated
// snippets, and the query/answer types exchanged with the serving
// surfaces. Types here have no dependencies on adapters or external
// services.
package domain
