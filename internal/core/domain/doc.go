// Package domain defines the core entities of the ragdesk question-answering core.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a processed input file and its ordered chunks
//   - Chunk: a unit of retrievable text with a content-addressed identity
//   - SearchResult: a retrieved chunk and its cosine distance
//   - QueryRecord: per-query telemetry
//   - Generation and ToolResult: tagged outcomes of fallible generation paths
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
