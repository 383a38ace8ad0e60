package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ResponseGenerator answers a question from retrieved context.
// Both variants share this contract; the active one is chosen once at start-up.
type ResponseGenerator interface {
	// ProcessQuestion produces an answer. It never returns an error: failures
	// are reported in-band through the Generation status and text.
	// Variants that cannot stream ignore stream.
	ProcessQuestion(
		ctx context.Context,
		question, context string,
		results []domain.SearchResult,
		stream domain.StreamFunc,
	) domain.Generation

	// Kind identifies the variant.
	Kind() domain.GeneratorKind

	// Features lists capabilities for stats output.
	Features() []string

	// Close releases resources.
	Close() error
}

// ToolExecutor runs the fixed registry of deterministic tools.
type ToolExecutor interface {
	// Execute runs a tool by name. Unknown tools and bad arguments produce a
	// failed ToolResult, never a panic.
	Execute(ctx context.Context, name string, args map[string]any) domain.ToolResult

	// Definitions describes the tools for remote function calling.
	Definitions() []domain.ToolDefinition
}

// EntityRecognizer extracts named entities from text.
type EntityRecognizer interface {
	Entities(text string) []string
}
