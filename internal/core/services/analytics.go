package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// DefaultInsightDays is the trailing window used when none is given.
const DefaultInsightDays = 7

// TrendTotalTime is the metric recorded after every logged query.
const TrendTotalTime = "total_time"

// Recommendation thresholds.
const (
	slowResponseSeconds = 5.0
	longContextChars    = 8000.0
	slowSearchSeconds   = 2.0
	lowRating           = 3.5
	lowSuccessRate      = 0.8
)

// AnalyticsService reads aggregate query telemetry.
type AnalyticsService struct {
	telemetry driven.TelemetryStore
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(telemetry driven.TelemetryStore) *AnalyticsService {
	return &AnalyticsService{telemetry: telemetry}
}

var errNoTelemetry = errors.New("telemetry store not configured")

// Insights aggregates telemetry over the trailing days.
func (s *AnalyticsService) Insights(ctx context.Context, days int) (*domain.PerformanceInsights, error) {
	if s.telemetry == nil {
		return nil, errNoTelemetry
	}
	if days <= 0 {
		days = DefaultInsightDays
	}
	return s.telemetry.GetPerformanceInsights(ctx, days)
}

// Recommendations turns the insights into optimisation hints.
// A window without queries yields no hints.
func (s *AnalyticsService) Recommendations(ctx context.Context, days int) ([]domain.Recommendation, error) {
	insights, err := s.Insights(ctx, days)
	if err != nil {
		return nil, err
	}
	return Recommend(insights), nil
}

// Trends returns samples of a metric.
func (s *AnalyticsService) Trends(ctx context.Context, metric string, days int) ([]domain.TrendPoint, error) {
	if s.telemetry == nil {
		return nil, errNoTelemetry
	}
	if days <= 0 {
		days = DefaultInsightDays
	}
	return s.telemetry.Trends(ctx, metric, days)
}

// Recommend derives hints from insights.
func Recommend(in *domain.PerformanceInsights) []domain.Recommendation {
	recs := []domain.Recommendation{}
	if in == nil || in.TotalQueries == 0 {
		return recs
	}

	if in.AvgResponseTime > slowResponseSeconds {
		recs = append(recs, domain.Recommendation{
			Area:    "response_time",
			Message: "Consider reducing chunk size or context length for faster responses",
		})
	}
	if in.AvgContextLength > longContextChars {
		recs = append(recs, domain.Recommendation{
			Area:    "context_length",
			Message: "Context length is high - consider better chunk filtering",
		})
	}
	if in.AvgSearchTime > slowSearchSeconds {
		recs = append(recs, domain.Recommendation{
			Area:    "search_time",
			Message: "Search time is slow - consider optimizing embeddings",
		})
	}
	if in.AvgRating != nil && *in.AvgRating < lowRating {
		recs = append(recs, domain.Recommendation{
			Area:    "rating",
			Message: "Low user ratings - review prompt engineering",
		})
	}
	if in.SuccessRate < lowSuccessRate {
		recs = append(recs, domain.Recommendation{
			Area:    "success_rate",
			Message: "Low success rate - improve document chunking strategy",
		})
	}
	return recs
}
