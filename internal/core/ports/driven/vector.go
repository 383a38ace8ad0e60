package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// VectorIndex persists chunk embeddings and answers nearest-neighbour queries
// under cosine distance. Chunk identity is the content-addressed chunk ID.
type VectorIndex interface {
	// Add inserts chunks with their embeddings. Existing IDs are not overwritten
	// by callers; the chunk store filters them first.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// ExistingIDs returns the subset of ids already stored.
	// Callers make one call per ingestion batch.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// Query returns up to n results ordered by ascending cosine distance.
	// An empty index returns an empty slice.
	Query(ctx context.Context, embedding []float32, n int) ([]domain.SearchResult, error)

	// Reset drops and recreates the whole index.
	Reset(ctx context.Context) error

	// DeleteByFileHash removes every chunk derived from the given file hash.
	DeleteByFileHash(ctx context.Context, fileHash string) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
