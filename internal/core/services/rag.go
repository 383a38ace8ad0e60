package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.QueryService = (*RAGService)(nil)

// RAGService answers questions by retrieving chunks and handing them to the
// active response generator. A query runs search, generation and telemetry
// strictly in that order and is not safe to overlap with ingestion.
type RAGService struct {
	chunks    driving.ChunkStore
	generator driven.ResponseGenerator
	telemetry driven.TelemetryStore
	budget    *ResourceBudget
	retrieval domain.RetrievalSettings
	log       *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewRAGService creates the query orchestrator. telemetry and budget may be nil.
func NewRAGService(
	chunks driving.ChunkStore,
	generator driven.ResponseGenerator,
	telemetry driven.TelemetryStore,
	budget *ResourceBudget,
	retrieval domain.RetrievalSettings,
	log *logger.Logger,
) *RAGService {
	defaults := domain.DefaultAppSettings().Retrieval
	if retrieval.DefaultResults <= 0 {
		retrieval.DefaultResults = defaults.DefaultResults
	}
	if retrieval.AggregateResults <= 0 {
		retrieval.AggregateResults = defaults.AggregateResults
	}
	return &RAGService{
		chunks:    chunks,
		generator: generator,
		telemetry: telemetry,
		budget:    budget,
		retrieval: retrieval,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Generator returns the active response generator.
func (s *RAGService) Generator() driven.ResponseGenerator {
	return s.generator
}

// Query answers question. Retrieval errors are returned; generation failures
// come back as in-band text in the result.
func (s *RAGService) Query(
	ctx context.Context,
	question string,
	docs []domain.Document,
	stream domain.StreamFunc,
) (domain.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return domain.QueryResult{}, domain.ErrEmptyQuestion
	}

	queryID := s.newID()
	start := s.now()
	s.log.QueryStart(queryID, question)

	if len(docs) > 0 {
		s.log.Section("Ingestion")
		s.chunks.AddDocuments(ctx, docs)
	}

	s.log.Section("Retrieval")
	n := domain.RetrievalWidth(question, s.retrieval.DefaultResults, s.retrieval.AggregateResults)
	searchStart := s.now()
	results, err := s.chunks.Search(ctx, question, n)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("search: %w", err)
	}
	searchTime := s.now().Sub(searchStart)
	s.log.Debug("Retrieved %d of %d requested chunks in %s", len(results), n, searchTime)

	if len(results) == 0 {
		s.log.Info("No relevant chunks for query %s", queryID)
		return domain.QueryResult{
			Response: domain.NoInformationMessage,
			Sources:  []string{},
			QueryID:  queryID,
		}, nil
	}

	contextText := domain.BuildContext(results)
	sources := domain.Sources(results)

	s.log.Section("Generation")
	genStart := s.now()
	gen := s.generator.ProcessQuestion(ctx, question, contextText, results, stream)
	genTime := s.now().Sub(genStart)
	totalTime := s.now().Sub(start)

	if gen.Status == domain.GenerationFailed {
		s.log.Warn("Generation failed for query %s: %v", queryID, gen.Err)
	}

	contextLength := len([]rune(contextText))
	record := domain.QueryRecord{
		QueryID:         queryID,
		Timestamp:       start,
		Question:        question,
		Response:        gen.Text,
		ContextLength:   contextLength,
		ChunkCount:      len(results),
		SearchTime:      searchTime,
		GenerationTime:  genTime,
		TotalTime:       totalTime,
		Sources:         sources,
		SearchDistances: domain.Distances(results),
	}
	s.logTelemetry(ctx, record)

	s.log.Metric("search_time", searchTime.Seconds(), map[string]any{"n_results": len(results)})
	s.log.Metric("generation_time", genTime.Seconds(), map[string]any{"context_length": contextLength})
	s.log.Metric("total_response_time", totalTime.Seconds(), map[string]any{"query_id": queryID})
	s.log.Metric("context_efficiency", float64(contextLength)/float64(len(results)),
		map[string]any{"chunks": len(results)})
	s.log.QueryComplete(queryID, totalTime, len(results))

	return domain.QueryResult{
		Response: gen.Text,
		Sources:  sources,
		QueryID:  queryID,
	}, nil
}

// logTelemetry writes the query record and usage counters. Failures are logged
// so a telemetry outage never costs the caller an answer.
func (s *RAGService) logTelemetry(ctx context.Context, record domain.QueryRecord) {
	if s.telemetry == nil {
		return
	}
	if err := s.telemetry.LogQuery(ctx, record); err != nil {
		s.log.Error("Logging query %s: %v", record.QueryID, err)
	}
	if err := s.telemetry.IncrementDocumentUsage(ctx, record.Sources); err != nil {
		s.log.Error("Updating document usage: %v", err)
	}
	if err := s.telemetry.RecordTrend(ctx, TrendTotalTime, record.TotalTime.Seconds()); err != nil {
		s.log.Warn("Recording trend: %v", err)
	}
}

// Stats returns a read-only snapshot.
func (s *RAGService) Stats(ctx context.Context) (domain.Stats, error) {
	count, err := s.chunks.DocumentCount(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count chunks: %w", err)
	}

	stats := domain.Stats{
		DocumentChunks: count,
		ModelType:      s.generator.Kind(),
		Features:       s.generator.Features(),
	}
	if s.budget != nil {
		usage, err := s.budget.MemoryUsage()
		if err != nil {
			s.log.Warn("Reading memory usage: %v", err)
		}
		stats.Memory = usage
		stats.LoadedModels = s.budget.Models()
	}
	return stats, nil
}

// ClearDocuments empties the chunk store. Query history is kept.
func (s *RAGService) ClearDocuments(ctx context.Context) error {
	return s.chunks.Clear(ctx)
}

// RecordFeedback attaches a rating between 1 and 5 to a query.
func (s *RAGService) RecordFeedback(ctx context.Context, queryID string, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", domain.ErrInvalidInput, rating)
	}
	if s.telemetry == nil {
		return fmt.Errorf("feedback for %s: %w", queryID, domain.ErrNotFound)
	}
	return s.telemetry.UpdateUserFeedback(ctx, queryID, rating, feedback)
}

// Close evicts loaded models and releases the generator.
func (s *RAGService) Close() error {
	if s.budget != nil {
		s.budget.ForceCleanup()
	}
	return s.generator.Close()
}
