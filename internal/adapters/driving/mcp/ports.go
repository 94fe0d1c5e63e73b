package mcp

import (
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. A single injection point keeps wiring in one place.
type Ports struct {
	// Query answers questions and searches the corpus.
	Query driving.QueryService

	// Ingest reports corpus statistics for the health tool. Optional.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
