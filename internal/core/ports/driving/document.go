package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// IngestResult reports the outcome for one file.
type IngestResult struct {
	Path     string
	Document *domain.Document
	Report   domain.AddReport
	Err      error
}

// DocumentService turns files into indexed documents.
type DocumentService interface {
	// Process loads and chunks a file without indexing it.
	Process(ctx context.Context, path string) (*domain.Document, error)

	// Ingest processes and indexes each path. Per-file errors are reported in
	// the results rather than aborting the batch.
	Ingest(ctx context.Context, paths []string) []IngestResult

	// List returns the ingested documents.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Remove deletes a document's chunks. Its usage record is kept.
	Remove(ctx context.Context, fileHash string) error
}
