package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func areas(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Area
	}
	return out
}

func TestRecommend(t *testing.T) {
	low := 2.0
	high := 4.5

	tests := []struct {
		name string
		in   *domain.PerformanceInsights
		want []string
	}{
		{"nil", nil, []string{}},
		{"no queries", &domain.PerformanceInsights{AvgResponseTime: 10}, []string{}},
		{
			"healthy",
			&domain.PerformanceInsights{TotalQueries: 3, AvgResponseTime: 1, SuccessRate: 1, AvgRating: &high},
			[]string{},
		},
		{
			"everything slow",
			&domain.PerformanceInsights{
				TotalQueries:     3,
				AvgResponseTime:  6,
				AvgContextLength: 9000,
				AvgSearchTime:    3,
				AvgRating:        &low,
				SuccessRate:      0.5,
			},
			[]string{"response_time", "context_length", "search_time", "rating", "success_rate"},
		},
		{
			"unrated low success",
			&domain.PerformanceInsights{TotalQueries: 1, SuccessRate: 0},
			[]string{"success_rate"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, areas(Recommend(tt.in)))
		})
	}
}

func TestAnalyticsService_WithoutTelemetry(t *testing.T) {
	svc := NewAnalyticsService(nil)

	_, err := svc.Insights(context.Background(), 7)
	assert.Error(t, err)
	_, err = svc.Recommendations(context.Background(), 7)
	assert.Error(t, err)
	_, err = svc.Trends(context.Background(), TrendTotalTime, 7)
	assert.Error(t, err)
}

func TestAnalyticsService_Insights(t *testing.T) {
	ctx := context.Background()
	telemetry := memory.NewTelemetryStore()
	require.NoError(t, telemetry.LogQuery(ctx, domain.QueryRecord{
		QueryID:   "q1",
		Timestamp: time.Now(),
		Question:  "What was revenue?",
		Response:  "short",
		TotalTime: 8 * time.Second,
	}))
	require.NoError(t, telemetry.RecordTrend(ctx, TrendTotalTime, 8))
	svc := NewAnalyticsService(telemetry)

	insights, err := svc.Insights(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultInsightDays, insights.Days)
	assert.Equal(t, 1, insights.TotalQueries)

	recs, err := svc.Recommendations(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"response_time", "success_rate"}, areas(recs))

	points, err := svc.Trends(ctx, TrendTotalTime, 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 8.0, points[0].Value)
}
