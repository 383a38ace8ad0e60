package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ChunkStore is durable nearest-neighbour retrieval over document chunks.
type ChunkStore interface {
	// AddDocuments indexes every chunk whose identity is not yet stored.
	// Batch failures are logged, not returned.
	AddDocuments(ctx context.Context, docs []domain.Document) domain.AddReport

	// Search returns up to n results ordered by ascending distance.
	Search(ctx context.Context, text string, n int) ([]domain.SearchResult, error)

	// Clear drops and recreates the whole index.
	Clear(ctx context.Context) error

	// RemoveDocument deletes every chunk of the document with fileHash.
	RemoveDocument(ctx context.Context, fileHash string) error

	// DocumentCount returns the total stored chunk count.
	DocumentCount(ctx context.Context) (int, error)
}
