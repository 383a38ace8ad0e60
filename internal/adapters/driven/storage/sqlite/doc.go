// Package sqlite provides SQLite-backed implementations of driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database file holds:
//
//   - TelemetryStore: query metrics, document metrics and performance trends
//   - VectorIndex: chunk embeddings scored by brute-force cosine distance
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.ragdesk/ragdesk.db
package sqlite
