package cli

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

type mockQueryService struct {
	result domain.QueryResult
	stats  domain.Stats
	err    error

	fragments []string
	question  string
	streamed  bool
	cleared   bool

	feedbackID      string
	feedbackRating  int
	feedbackComment string
}

func (m *mockQueryService) Query(
	_ context.Context,
	question string,
	_ []domain.Document,
	stream domain.StreamFunc,
) (domain.QueryResult, error) {
	m.question = question
	if stream != nil {
		m.streamed = true
		for _, f := range m.fragments {
			stream(f)
		}
	}
	return m.result, m.err
}

func (m *mockQueryService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockQueryService) ClearDocuments(_ context.Context) error {
	m.cleared = true
	return m.err
}

func (m *mockQueryService) RecordFeedback(_ context.Context, queryID string, rating int, feedback string) error {
	m.feedbackID = queryID
	m.feedbackRating = rating
	m.feedbackComment = feedback
	return m.err
}

type mockDocumentService struct {
	docs    []domain.DocumentRecord
	results map[string]driving.IngestResult
	err     error

	ingested []string
	removed  string
}

func (m *mockDocumentService) Process(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Ingest(_ context.Context, paths []string) []driving.IngestResult {
	m.ingested = append(m.ingested, paths...)
	out := make([]driving.IngestResult, 0, len(paths))
	for _, p := range paths {
		if r, ok := m.results[p]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, driving.IngestResult{
			Path:     p,
			Document: &domain.Document{Filename: p, FileHash: "hash-" + p, Chunks: []string{"chunk"}},
			Report:   domain.AddReport{Added: 1},
		})
	}
	return out
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, fileHash string) error {
	m.removed = fileHash
	return m.err
}

type mockAnalyticsService struct {
	insights *domain.PerformanceInsights
	recs     []domain.Recommendation
	trend    []domain.TrendPoint
	err      error
}

func (m *mockAnalyticsService) Insights(_ context.Context, days int) (*domain.PerformanceInsights, error) {
	if m.err != nil {
		return nil, m.err
	}
	in := *m.insights
	in.Days = days
	return &in, nil
}

func (m *mockAnalyticsService) Recommendations(_ context.Context, _ int) ([]domain.Recommendation, error) {
	return m.recs, m.err
}

func (m *mockAnalyticsService) Trends(_ context.Context, _ string, _ int) ([]domain.TrendPoint, error) {
	return m.trend, m.err
}

type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
	apiKey   string
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetAPIKey(key string) error {
	if m.err != nil {
		return m.err
	}
	m.apiKey = key
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) ConfigPath() string {
	return "/tmp/ragdesk/config.toml"
}

type mockToolExecutor struct {
	name string
	args map[string]any
}

func (m *mockToolExecutor) Execute(_ context.Context, name string, args map[string]any) domain.ToolResult {
	m.name = name
	m.args = args
	if name == "calculator" {
		return domain.ToolResult{Tool: name, Text: "Result: 4", OK: true}
	}
	return domain.ToolResult{Tool: name, Text: "Unknown tool: " + name}
}

func (m *mockToolExecutor) Definitions() []domain.ToolDefinition {
	return []domain.ToolDefinition{{
		Name:        "calculator",
		Description: "Perform mathematical calculations",
		Parameters: []domain.ToolParameter{
			{Name: "expression", Type: "string", Description: "Expression to evaluate", Required: true},
		},
	}}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	query     *mockQueryService
	documents *mockDocumentService
	analytics *mockAnalyticsService
	settings  *mockSettingsService
	tools     *mockToolExecutor
}

func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		query: &mockQueryService{
			result: domain.QueryResult{
				Response: "Revenue grew 12% in 2023.",
				Sources:  []string{"report.txt"},
				QueryID:  "q-123",
			},
			stats: domain.Stats{
				DocumentChunks: 42,
				ModelType:      domain.GeneratorLocal,
				Features:       []string{"tools"},
				Memory:         domain.MemoryUsage{RSSMB: 120.5, VMSMB: 800, Percent: 1.5},
				LoadedModels:   []domain.LoadedModel{{Name: "embedding:hashing", SizeMB: 1, InUse: 0}},
			},
		},
		documents: &mockDocumentService{
			docs: []domain.DocumentRecord{{
				DocID:        "abc123",
				Filename:     "report.txt",
				FileSize:     2048,
				ChunkCount:   3,
				AvgChunkSize: 640,
				UploadTime:   time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
				UsageCount:   5,
			}},
		},
		analytics: &mockAnalyticsService{
			insights: &domain.PerformanceInsights{TotalQueries: 4, AvgResponseTime: 6.2, SuccessRate: 0.75},
			recs: []domain.Recommendation{
				{Area: "response_time", Message: "Consider reducing chunk size or context length for faster responses"},
			},
		},
		settings: &mockSettingsService{
			settings: domain.DefaultAppSettings(),
			values:   map[string]string{"generator.provider": "auto", "store.backend": "chromem"},
		},
		tools: &mockToolExecutor{},
	}

	origQuery := queryService
	origDocs := documentService
	origAnalytics := analyticsService
	origSettings := settingsService
	origTools := toolExecutor
	origReady := servicesReady

	queryService = ts.query
	documentService = ts.documents
	analyticsService = ts.analytics
	settingsService = ts.settings
	toolExecutor = ts.tools
	servicesReady = true

	return ts, func() {
		queryService = origQuery
		documentService = origDocs
		analyticsService = origAnalytics
		settingsService = origSettings
		toolExecutor = origTools
		servicesReady = origReady
	}
}
