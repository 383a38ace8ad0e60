package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// TelemetryStore persists per-query and per-document metrics.
type TelemetryStore interface {
	// LogQuery appends a query record. A duplicate ID returns domain.ErrAlreadyExists.
	LogQuery(ctx context.Context, rec domain.QueryRecord) error

	// GetQuery returns a query record by ID.
	GetQuery(ctx context.Context, queryID string) (*domain.QueryRecord, error)

	// LogDocument upserts document metrics. An existing usage count is kept.
	LogDocument(ctx context.Context, doc domain.DocumentRecord) error

	// ListDocuments returns all document metric rows, newest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// UpdateUserFeedback attaches a rating and feedback to a query.
	// Returns domain.ErrNotFound for an unknown query ID.
	UpdateUserFeedback(ctx context.Context, queryID string, rating int, feedback string) error

	// IncrementDocumentUsage bumps the usage counter of each filename.
	IncrementDocumentUsage(ctx context.Context, filenames []string) error

	// GetPerformanceInsights aggregates the trailing window of days.
	GetPerformanceInsights(ctx context.Context, days int) (*domain.PerformanceInsights, error)

	// RecordTrend appends a performance trend sample for today.
	RecordTrend(ctx context.Context, metric string, value float64) error

	// Trends returns samples of a metric over the trailing window of days.
	Trends(ctx context.Context, metric string, days int) ([]domain.TrendPoint, error)

	// Close releases resources.
	Close() error
}
