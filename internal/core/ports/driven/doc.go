// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorIndex: persistent chunk vectors (chromem, sqlite or memory)
//   - EmbeddingService: text to vector conversion, loaded lazily
//   - ResponseGenerator: remote (Gemini) or local NLP answer generation
//   - ToolExecutor: deterministic tools callable during generation
//   - TelemetryStore: query and document metrics
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MemoryProbe: without it, the resource budget never reports pressure.
//   - EntityRecognizer: without it, the local generator uses its built-in tagger.
//   - DocumentLoader: only needed for file ingestion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
