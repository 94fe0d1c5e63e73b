// Package mcp provides a Model Context Protocol server adapter so AI
// assistants can search the corpus and generate grounded answers.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
