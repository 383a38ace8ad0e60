package mcp

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates the services the MCP server drives.
type Ports struct {
	// Query answers questions and records feedback.
	Query driving.QueryService

	// Documents ingests files. Optional.
	Documents driving.DocumentService

	// Analytics reports telemetry insights. Optional.
	Analytics driving.AnalyticsService

	// Tools runs the deterministic helper tools. Optional.
	Tools driven.ToolExecutor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
