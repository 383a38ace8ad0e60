package mcp

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

type mockQueryService struct {
	result   domain.QueryResult
	stats    domain.Stats
	err      error
	question string

	feedbackID     string
	feedbackRating int
}

func (m *mockQueryService) Query(
	_ context.Context,
	question string,
	_ []domain.Document,
	_ domain.StreamFunc,
) (domain.QueryResult, error) {
	m.question = question
	return m.result, m.err
}

func (m *mockQueryService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockQueryService) ClearDocuments(_ context.Context) error {
	return m.err
}

func (m *mockQueryService) RecordFeedback(_ context.Context, queryID string, rating int, _ string) error {
	m.feedbackID = queryID
	m.feedbackRating = rating
	return m.err
}

type mockDocumentService struct {
	results []driving.IngestResult
	paths   []string
}

func (m *mockDocumentService) Process(_ context.Context, _ string) (*domain.Document, error) {
	return nil, nil
}

func (m *mockDocumentService) Ingest(_ context.Context, paths []string) []driving.IngestResult {
	m.paths = paths
	return m.results
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return nil, nil
}

func (m *mockDocumentService) Remove(_ context.Context, _ string) error {
	return nil
}

type mockAnalyticsService struct {
	insights *domain.PerformanceInsights
	recs     []domain.Recommendation
	err      error
}

func (m *mockAnalyticsService) Insights(_ context.Context, _ int) (*domain.PerformanceInsights, error) {
	return m.insights, m.err
}

func (m *mockAnalyticsService) Recommendations(_ context.Context, _ int) ([]domain.Recommendation, error) {
	return m.recs, m.err
}

func (m *mockAnalyticsService) Trends(_ context.Context, _ string, _ int) ([]domain.TrendPoint, error) {
	return nil, m.err
}

type mockToolExecutor struct {
	name string
	args map[string]any
}

func (m *mockToolExecutor) Execute(_ context.Context, name string, args map[string]any) domain.ToolResult {
	m.name = name
	m.args = args
	return domain.ToolResult{Tool: name, Text: "42", OK: true}
}

func (m *mockToolExecutor) Definitions() []domain.ToolDefinition {
	return nil
}
