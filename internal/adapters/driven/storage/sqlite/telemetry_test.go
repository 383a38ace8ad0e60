package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTelemetryStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	s.now = func() time.Time { return testNow }
	return s
}

func sampleQuery(id string, at time.Time, response string) domain.QueryRecord {
	return domain.QueryRecord{
		QueryID:         id,
		Timestamp:       at,
		Question:        "What is " + id + "?",
		Response:        response,
		ContextLength:   1200,
		ChunkCount:      3,
		SearchTime:      200 * time.Millisecond,
		GenerationTime:  1500 * time.Millisecond,
		TotalTime:       2 * time.Second,
		Sources:         []string{"a.txt", "b.txt"},
		SearchDistances: []float64{0.1, 0.2, 0.3},
	}
}

func TestLogQuery_GetQuery(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)
	rec := sampleQuery("q1", testNow.Add(-time.Hour), "An answer")

	require.NoError(t, s.LogQuery(ctx, rec))

	got, err := s.GetQuery(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, rec.Question, got.Question)
	assert.Equal(t, rec.Response, got.Response)
	assert.Equal(t, rec.Sources, got.Sources)
	assert.Equal(t, rec.SearchDistances, got.SearchDistances)
	assert.Equal(t, rec.TotalTime, got.TotalTime)
	assert.Equal(t, rec.Timestamp, got.Timestamp)
	assert.Nil(t, got.UserRating)
	assert.Empty(t, got.Feedback)
}

func TestLogQuery_DuplicateIDKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)
	require.NoError(t, s.LogQuery(ctx, sampleQuery("q1", testNow.Add(-time.Hour), "First")))

	err := s.LogQuery(ctx, sampleQuery("q1", testNow, "Second"))

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	got, err := s.GetQuery(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Response)
}

func TestGetQuery_NotFound(t *testing.T) {
	_, err := newTelemetryStore(t).GetQuery(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateUserFeedback_ChangesOnlyRating(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)
	rec := sampleQuery("q1", testNow.Add(-time.Hour), "An answer")
	require.NoError(t, s.LogQuery(ctx, rec))

	require.NoError(t, s.UpdateUserFeedback(ctx, "q1", 4, ""))

	got, err := s.GetQuery(ctx, "q1")
	require.NoError(t, err)
	require.NotNil(t, got.UserRating)
	assert.Equal(t, 4, *got.UserRating)

	got.UserRating = nil
	assert.Equal(t, rec, *got)
}

func TestUpdateUserFeedback_UnknownQuery(t *testing.T) {
	err := newTelemetryStore(t).UpdateUserFeedback(context.Background(), "nope", 3, "meh")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogDocument_PreservesUsage(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)
	doc := domain.DocumentRecord{DocID: "h1", Filename: "a.txt", FileSize: 100, ChunkCount: 2, AvgChunkSize: 50}

	require.NoError(t, s.LogDocument(ctx, doc))
	require.NoError(t, s.IncrementDocumentUsage(ctx, []string{"a.txt", "a.txt"}))
	doc.ChunkCount = 3
	require.NoError(t, s.LogDocument(ctx, doc))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].UsageCount)
	assert.Equal(t, 3, docs[0].ChunkCount)
	assert.Equal(t, testNow, docs[0].UploadTime)
}

func TestIncrementDocumentUsage_CreatesPlaceholderThenMerges(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)

	require.NoError(t, s.IncrementDocumentUsage(ctx, []string{"new.txt"}))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].UsageCount)

	require.NoError(t, s.LogDocument(ctx, domain.DocumentRecord{DocID: "h2", Filename: "new.txt", ChunkCount: 4}))

	docs, err = s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h2", docs[0].DocID)
	assert.Equal(t, 1, docs[0].UsageCount)
}

func TestGetPerformanceInsights(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)

	long := strings.Repeat("x", 60)
	require.NoError(t, s.LogQuery(ctx, sampleQuery("q1", testNow.Add(-time.Hour), long)))
	require.NoError(t, s.LogQuery(ctx, sampleQuery("q2", testNow.Add(-2*time.Hour), "short")))
	require.NoError(t, s.LogQuery(ctx, sampleQuery("old", testNow.Add(-30*24*time.Hour), long)))
	require.NoError(t, s.UpdateUserFeedback(ctx, "q2", 2, "not helpful"))
	require.NoError(t, s.LogDocument(ctx, domain.DocumentRecord{DocID: "h1", Filename: "a.txt", ChunkCount: 2}))
	require.NoError(t, s.IncrementDocumentUsage(ctx, []string{"a.txt"}))

	in, err := s.GetPerformanceInsights(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, in.Days)
	assert.Equal(t, 2, in.TotalQueries)
	assert.InDelta(t, 2.0, in.AvgResponseTime, 1e-9)
	assert.InDelta(t, 1200.0, in.AvgContextLength, 1e-9)
	assert.InDelta(t, 0.2, in.AvgSearchTime, 1e-9)
	assert.InDelta(t, 1.5, in.AvgGenerationTime, 1e-9)
	assert.InDelta(t, 0.5, in.SuccessRate, 1e-9)
	require.NotNil(t, in.AvgRating)
	assert.InDelta(t, 2.0, *in.AvgRating, 1e-9)
	require.Len(t, in.FailingQueries, 1)
	assert.Equal(t, "What is q2?", in.FailingQueries[0].Question)
	require.Len(t, in.TopDocuments, 1)
	assert.Equal(t, domain.DocumentUsage{Filename: "a.txt", UsageCount: 1, ChunkCount: 2}, in.TopDocuments[0])
}

func TestGetPerformanceInsights_Empty(t *testing.T) {
	in, err := newTelemetryStore(t).GetPerformanceInsights(context.Background(), 7)

	require.NoError(t, err)
	assert.Zero(t, in.TotalQueries)
	assert.Nil(t, in.AvgRating)
	assert.Empty(t, in.FailingQueries)
	assert.Empty(t, in.TopDocuments)
}

func TestTrends(t *testing.T) {
	ctx := context.Background()
	s := newTelemetryStore(t)

	require.NoError(t, s.RecordTrend(ctx, "total_time", 1.5))
	require.NoError(t, s.RecordTrend(ctx, "total_time", 2.5))
	require.NoError(t, s.RecordTrend(ctx, "search_time", 0.1))

	points, err := s.Trends(ctx, "total_time", 7)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.InDelta(t, 1.5, points[0].Value, 1e-9)
	assert.InDelta(t, 2.5, points[1].Value, 1e-9)
	assert.Equal(t, "total_time", points[0].Metric)
	assert.Equal(t, testNow, points[0].Date)
}
