// Package migrations embeds SQL migration files for the SQLite store.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS

// ChunksFile is the migration that creates the vector table. The sqlite
// vector index replays it after dropping the table.
const ChunksFile = "004_chunks.up.sql"
