// Package mcp exposes the question-answering core over the Model Context
// Protocol so assistants can ask questions, ingest files and run tools.
package mcp

import "errors"

var (
	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrServiceUnavailable is returned by a tool whose backing port was not wired.
	ErrServiceUnavailable = errors.New("mcp: service not configured")
)
