package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// QueryService answers questions over the indexed documents.
type QueryService interface {
	// Query runs retrieval and generation for a question. When docs is non-empty
	// they are indexed before searching. stream may be nil.
	Query(
		ctx context.Context,
		question string,
		docs []domain.Document,
		stream domain.StreamFunc,
	) (domain.QueryResult, error)

	// Stats returns a read-only snapshot of the core.
	Stats(ctx context.Context) (domain.Stats, error)

	// ClearDocuments empties the chunk store. Telemetry is kept.
	ClearDocuments(ctx context.Context) error

	// RecordFeedback attaches a 1-5 rating and optional text to a query.
	RecordFeedback(ctx context.Context, queryID string, rating int, feedback string) error
}
