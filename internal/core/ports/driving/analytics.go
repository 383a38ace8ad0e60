package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// AnalyticsService reads aggregate telemetry.
type AnalyticsService interface {
	// Insights aggregates query telemetry over the trailing days.
	Insights(ctx context.Context, days int) (*domain.PerformanceInsights, error)

	// Recommendations derives optimisation hints from the insights.
	Recommendations(ctx context.Context, days int) ([]domain.Recommendation, error)

	// Trends returns samples of a metric.
	Trends(ctx context.Context, metric string, days int) ([]domain.TrendPoint, error)
}
