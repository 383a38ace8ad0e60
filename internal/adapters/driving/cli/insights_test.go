package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestInsightsCmd_DaysFlagDefault(t *testing.T) {
	flag := insightsCmd.Flags().Lookup("days")
	require.NotNil(t, flag)
	assert.Equal(t, "d", flag.Shorthand)
	assert.Equal(t, "7", flag.DefValue)
}

func TestInsightsCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("", "insights", "--days", "30")

	require.NoError(t, err)
	assert.Contains(t, out, "Last 30 days")
	assert.Contains(t, out, "Queries:          4")
	assert.Contains(t, out, "Avg rating:       (no ratings)")
	assert.Contains(t, out, "Success rate:     75%")
	assert.Contains(t, out, "Recommendations")
	assert.Contains(t, out, "Consider reducing chunk size")
}

func TestInsightsCmd_NoRecommendations(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.analytics.recs = nil

	out, err := runCommand("", "insights")

	require.NoError(t, err)
	assert.Contains(t, out, "No recommendations")
}

func TestInsightsCmd_Trends(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.analytics.trend = []domain.TrendPoint{
		{Date: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), Metric: "total_time", Value: 1.25},
	}

	out, err := runCommand("", "insights", "--trends")

	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-15 10:00  1.25s")
}

func TestInsightsCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("", "insights", "--json")

	require.NoError(t, err)
	var got struct {
		Insights        domain.PerformanceInsights `json:"insights"`
		Recommendations []domain.Recommendation    `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 7, got.Insights.Days)
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "response_time", got.Recommendations[0].Area)
}

func TestInsightsCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.analytics.err = errors.New("no telemetry")

	_, err := runCommand("", "insights")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no telemetry")
}
