package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure TelemetryStore implements the interface.
var _ driven.TelemetryStore = (*TelemetryStore)(nil)

// TelemetryStore is an in-memory implementation of driven.TelemetryStore
// for tests and ephemeral runs.
type TelemetryStore struct {
	mu        sync.RWMutex
	queries   map[string]domain.QueryRecord
	documents map[string]domain.DocumentRecord
	trends    []domain.TrendPoint
	now       func() time.Time
}

// NewTelemetryStore creates an empty telemetry store.
func NewTelemetryStore() *TelemetryStore {
	return &TelemetryStore{
		queries:   make(map[string]domain.QueryRecord),
		documents: make(map[string]domain.DocumentRecord),
		now:       time.Now,
	}
}

// LogQuery stores a copy of the record.
func (s *TelemetryStore) LogQuery(_ context.Context, rec domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[rec.QueryID]; ok {
		return fmt.Errorf("query %s: %w", rec.QueryID, domain.ErrAlreadyExists)
	}
	s.queries[rec.QueryID] = copyQuery(rec)
	return nil
}

// GetQuery returns a query by ID.
func (s *TelemetryStore) GetQuery(_ context.Context, queryID string) (*domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.queries[queryID]
	if !ok {
		return nil, fmt.Errorf("query %s: %w", queryID, domain.ErrNotFound)
	}
	out := copyQuery(rec)
	return &out, nil
}

// QueryCount returns the number of stored query records.
func (s *TelemetryStore) QueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queries)
}

// UpdateUserFeedback sets rating and feedback on one query.
func (s *TelemetryStore) UpdateUserFeedback(_ context.Context, queryID string, rating int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.queries[queryID]
	if !ok {
		return fmt.Errorf("query %s: %w", queryID, domain.ErrNotFound)
	}
	rec.UserRating = &rating
	rec.Feedback = feedback
	s.queries[queryID] = rec
	return nil
}

// LogDocument upserts a document, keeping its usage count.
func (s *TelemetryStore) LogDocument(_ context.Context, doc domain.DocumentRecord) error {
	if doc.DocID == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := 0
	if existing, ok := s.documents[doc.DocID]; ok {
		usage = existing.UsageCount
	}
	for id, d := range s.documents {
		if id != doc.DocID && d.Filename == doc.Filename && d.ChunkCount == 0 {
			usage += d.UsageCount
			delete(s.documents, id)
		}
	}
	if doc.UploadTime.IsZero() {
		doc.UploadTime = s.now()
	}
	doc.UsageCount = usage
	s.documents[doc.DocID] = doc
	return nil
}

// ListDocuments returns documents, newest upload first.
func (s *TelemetryStore) ListDocuments(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.DocumentRecord, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadTime.Equal(docs[j].UploadTime) {
			return docs[i].UploadTime.After(docs[j].UploadTime)
		}
		return docs[i].Filename < docs[j].Filename
	})
	return docs, nil
}

// IncrementDocumentUsage bumps usage per filename, creating rows as needed.
func (s *TelemetryStore) IncrementDocumentUsage(_ context.Context, filenames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range filenames {
		matched := false
		for id, d := range s.documents {
			if d.Filename == name {
				d.UsageCount++
				s.documents[id] = d
				matched = true
			}
		}
		if !matched {
			id := uuid.NewString()
			s.documents[id] = domain.DocumentRecord{
				DocID:      id,
				Filename:   name,
				UploadTime: s.now(),
				UsageCount: 1,
			}
		}
	}
	return nil
}

// GetPerformanceInsights aggregates the queries inside the trailing window.
func (s *TelemetryStore) GetPerformanceInsights(_ context.Context, days int) (*domain.PerformanceInsights, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	in := &domain.PerformanceInsights{
		Days:           days,
		FailingQueries: []domain.FailingQuery{},
		TopDocuments:   []domain.DocumentUsage{},
	}

	type ratingAgg struct {
		sum   float64
		count int
	}
	ratings := map[string]*ratingAgg{}
	var ratingSum float64
	var rated, succeeded int

	for _, q := range s.queries {
		if !q.Timestamp.After(since) {
			continue
		}
		in.TotalQueries++
		in.AvgResponseTime += q.TotalTime.Seconds()
		in.AvgContextLength += float64(q.ContextLength)
		in.AvgSearchTime += q.SearchTime.Seconds()
		in.AvgGenerationTime += q.GenerationTime.Seconds()
		if len([]rune(q.Response)) > 50 {
			succeeded++
		}
		if q.UserRating != nil {
			rated++
			ratingSum += float64(*q.UserRating)
			agg, ok := ratings[q.Question]
			if !ok {
				agg = &ratingAgg{}
				ratings[q.Question] = agg
			}
			agg.sum += float64(*q.UserRating)
			agg.count++
		}
	}

	if n := float64(in.TotalQueries); n > 0 {
		in.AvgResponseTime /= n
		in.AvgContextLength /= n
		in.AvgSearchTime /= n
		in.AvgGenerationTime /= n
		in.SuccessRate = float64(succeeded) / n
	}
	if rated > 0 {
		avg := ratingSum / float64(rated)
		in.AvgRating = &avg
	}

	for question, agg := range ratings {
		in.FailingQueries = append(in.FailingQueries, domain.FailingQuery{
			Question:  question,
			AvgRating: agg.sum / float64(agg.count),
			Count:     agg.count,
		})
	}
	sort.Slice(in.FailingQueries, func(i, j int) bool {
		a, b := in.FailingQueries[i], in.FailingQueries[j]
		if a.AvgRating != b.AvgRating {
			return a.AvgRating < b.AvgRating
		}
		return a.Question < b.Question
	})
	if len(in.FailingQueries) > 5 {
		in.FailingQueries = in.FailingQueries[:5]
	}

	for _, d := range s.documents {
		in.TopDocuments = append(in.TopDocuments, domain.DocumentUsage{
			Filename:   d.Filename,
			UsageCount: d.UsageCount,
			ChunkCount: d.ChunkCount,
		})
	}
	sort.Slice(in.TopDocuments, func(i, j int) bool {
		a, b := in.TopDocuments[i], in.TopDocuments[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return a.Filename < b.Filename
	})
	if len(in.TopDocuments) > 10 {
		in.TopDocuments = in.TopDocuments[:10]
	}
	return in, nil
}

// RecordTrend appends a sample.
func (s *TelemetryStore) RecordTrend(_ context.Context, metric string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trends = append(s.trends, domain.TrendPoint{Date: s.now(), Metric: metric, Value: value})
	return nil
}

// Trends returns samples of metric inside the window, oldest first.
func (s *TelemetryStore) Trends(_ context.Context, metric string, days int) ([]domain.TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	out := []domain.TrendPoint{}
	for _, p := range s.trends {
		if p.Metric == metric && p.Date.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close is a no-op for the memory store.
func (s *TelemetryStore) Close() error {
	return nil
}

func copyQuery(rec domain.QueryRecord) domain.QueryRecord {
	rec.Sources = append([]string(nil), rec.Sources...)
	rec.SearchDistances = append([]float64(nil), rec.SearchDistances...)
	if rec.UserRating != nil {
		r := *rec.UserRating
		rec.UserRating = &r
	}
	return rec
}
