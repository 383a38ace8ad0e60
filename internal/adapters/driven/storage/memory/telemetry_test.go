package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var memNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newMemTelemetry() *TelemetryStore {
	s := NewTelemetryStore()
	s.now = func() time.Time { return memNow }
	return s
}

func TestTelemetry_LogAndFeedback(t *testing.T) {
	ctx := context.Background()
	s := newMemTelemetry()
	rec := domain.QueryRecord{QueryID: "q1", Timestamp: memNow, Question: "Q", Response: "R", Sources: []string{"a.txt"}}
	require.NoError(t, s.LogQuery(ctx, rec))

	require.NoError(t, s.UpdateUserFeedback(ctx, "q1", 4, "good"))

	got, err := s.GetQuery(ctx, "q1")
	require.NoError(t, err)
	require.NotNil(t, got.UserRating)
	assert.Equal(t, 4, *got.UserRating)
	assert.Equal(t, "good", got.Feedback)
	assert.Equal(t, rec.Question, got.Question)
	assert.Equal(t, 1, s.QueryCount())

	dup := rec
	dup.Response = "other"
	assert.ErrorIs(t, s.LogQuery(ctx, dup), domain.ErrAlreadyExists)
	got, err = s.GetQuery(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "R", got.Response)

	assert.ErrorIs(t, s.UpdateUserFeedback(ctx, "missing", 1, ""), domain.ErrNotFound)
	_, err = s.GetQuery(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTelemetry_DocumentsAndUsage(t *testing.T) {
	ctx := context.Background()
	s := newMemTelemetry()

	require.NoError(t, s.IncrementDocumentUsage(ctx, []string{"a.txt"}))
	require.NoError(t, s.LogDocument(ctx, domain.DocumentRecord{DocID: "h1", Filename: "a.txt", ChunkCount: 2}))
	require.NoError(t, s.IncrementDocumentUsage(ctx, []string{"a.txt"}))
	require.NoError(t, s.LogDocument(ctx, domain.DocumentRecord{DocID: "h1", Filename: "a.txt", ChunkCount: 3}))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h1", docs[0].DocID)
	assert.Equal(t, 2, docs[0].UsageCount)
	assert.Equal(t, 3, docs[0].ChunkCount)

	assert.ErrorIs(t, s.LogDocument(ctx, domain.DocumentRecord{}), domain.ErrInvalidInput)
}

func TestTelemetry_Insights(t *testing.T) {
	ctx := context.Background()
	s := newMemTelemetry()
	long := strings.Repeat("y", 51)

	require.NoError(t, s.LogQuery(ctx, domain.QueryRecord{
		QueryID: "q1", Timestamp: memNow.Add(-time.Hour), Question: "A", Response: long,
		TotalTime: 4 * time.Second, ContextLength: 100,
	}))
	require.NoError(t, s.LogQuery(ctx, domain.QueryRecord{
		QueryID: "q2", Timestamp: memNow.Add(-time.Hour), Question: "B", Response: "no",
		TotalTime: 2 * time.Second, ContextLength: 300,
	}))
	require.NoError(t, s.LogQuery(ctx, domain.QueryRecord{
		QueryID: "old", Timestamp: memNow.Add(-10 * 24 * time.Hour), Question: "C", Response: long,
	}))
	require.NoError(t, s.UpdateUserFeedback(ctx, "q2", 1, ""))
	require.NoError(t, s.UpdateUserFeedback(ctx, "q1", 5, ""))

	in, err := s.GetPerformanceInsights(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, in.TotalQueries)
	assert.InDelta(t, 3.0, in.AvgResponseTime, 1e-9)
	assert.InDelta(t, 200.0, in.AvgContextLength, 1e-9)
	assert.InDelta(t, 0.5, in.SuccessRate, 1e-9)
	require.NotNil(t, in.AvgRating)
	assert.InDelta(t, 3.0, *in.AvgRating, 1e-9)
	require.Len(t, in.FailingQueries, 2)
	assert.Equal(t, "B", in.FailingQueries[0].Question)
}

func TestTelemetry_Trends(t *testing.T) {
	ctx := context.Background()
	s := newMemTelemetry()

	require.NoError(t, s.RecordTrend(ctx, "total_time", 1))
	require.NoError(t, s.RecordTrend(ctx, "other", 2))

	points, err := s.Trends(ctx, "total_time", 7)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 1.0, points[0].Value, 1e-9)
	assert.NoError(t, s.Close())
}
