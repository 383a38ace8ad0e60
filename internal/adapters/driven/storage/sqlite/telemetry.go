package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TelemetryStore = (*Store)(nil)

// successMinLength is the response length above which a query counts as answered.
const successMinLength = 50

const (
	failingQueryLimit = 5
	topDocumentLimit  = 10
)

// LogQuery stores a query record. A repeated query ID fails with
// domain.ErrAlreadyExists and leaves the stored row unchanged.
func (s *Store) LogQuery(ctx context.Context, rec domain.QueryRecord) error {
	sources, err := json.Marshal(nonNil(rec.Sources))
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}
	distances, err := json.Marshal(nonNilFloats(rec.SearchDistances))
	if err != nil {
		return fmt.Errorf("marshalling distances: %w", err)
	}

	var rating sql.NullInt64
	if rec.UserRating != nil {
		rating = sql.NullInt64{Int64: int64(*rec.UserRating), Valid: true}
	}
	feedback := sql.NullString{String: rec.Feedback, Valid: rec.Feedback != ""}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO query_metrics (
			query_id, timestamp, question, response, context_length, chunk_count,
			search_time, generation_time, total_time, sources, search_distances,
			user_rating, feedback
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_id) DO NOTHING
	`,
		rec.QueryID, formatTime(rec.Timestamp), rec.Question, rec.Response,
		rec.ContextLength, rec.ChunkCount,
		rec.SearchTime.Seconds(), rec.GenerationTime.Seconds(), rec.TotalTime.Seconds(),
		string(sources), string(distances), rating, feedback,
	)
	if err != nil {
		return fmt.Errorf("inserting query %s: %w", rec.QueryID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("query %s: %w", rec.QueryID, domain.ErrAlreadyExists)
	}
	return nil
}

// GetQuery returns a query record by ID.
func (s *Store) GetQuery(ctx context.Context, queryID string) (*domain.QueryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT query_id, timestamp, question, response, context_length, chunk_count,
			search_time, generation_time, total_time, sources, search_distances,
			user_rating, feedback
		FROM query_metrics WHERE query_id = ?
	`, queryID)

	var (
		rec                    domain.QueryRecord
		ts, sources, distances string
		searchT, genT, totalT  float64
		rating                 sql.NullInt64
		feedback               sql.NullString
	)
	err := row.Scan(&rec.QueryID, &ts, &rec.Question, &rec.Response, &rec.ContextLength,
		&rec.ChunkCount, &searchT, &genT, &totalT, &sources, &distances, &rating, &feedback)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query %s: %w", queryID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning query: %w", err)
	}

	rec.Timestamp = parseTime(ts)
	rec.SearchTime = seconds(searchT)
	rec.GenerationTime = seconds(genT)
	rec.TotalTime = seconds(totalT)
	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("unmarshalling sources: %w", err)
	}
	if err := json.Unmarshal([]byte(distances), &rec.SearchDistances); err != nil {
		return nil, fmt.Errorf("unmarshalling distances: %w", err)
	}
	if rating.Valid {
		r := int(rating.Int64)
		rec.UserRating = &r
	}
	rec.Feedback = feedback.String
	return &rec, nil
}

// UpdateUserFeedback sets the rating and feedback of one query.
func (s *Store) UpdateUserFeedback(ctx context.Context, queryID string, rating int, feedback string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE query_metrics SET user_rating = ?, feedback = ? WHERE query_id = ?",
		rating, sql.NullString{String: feedback, Valid: feedback != ""}, queryID)
	if err != nil {
		return fmt.Errorf("updating feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking feedback update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("query %s: %w", queryID, domain.ErrNotFound)
	}
	return nil
}

// LogDocument upserts a document row. The usage counter survives re-ingestion,
// including usage recorded before the document was first logged.
func (s *Store) LogDocument(ctx context.Context, doc domain.DocumentRecord) error {
	if doc.DocID == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	uploaded := doc.UploadTime
	if uploaded.IsZero() {
		uploaded = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Fold usage-only placeholder rows for the same filename into this one.
	var carried int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(usage_count), 0) FROM document_metrics
		WHERE filename = ? AND chunk_count = 0 AND doc_id <> ?
	`, doc.Filename, doc.DocID).Scan(&carried)
	if err != nil {
		return fmt.Errorf("reading placeholder usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_metrics WHERE filename = ? AND chunk_count = 0 AND doc_id <> ?",
		doc.Filename, doc.DocID); err != nil {
		return fmt.Errorf("removing placeholders: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_metrics (doc_id, filename, file_size, chunk_count, avg_chunk_size, upload_time, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			file_size = excluded.file_size,
			chunk_count = excluded.chunk_count,
			avg_chunk_size = excluded.avg_chunk_size,
			upload_time = excluded.upload_time,
			usage_count = document_metrics.usage_count + excluded.usage_count
	`, doc.DocID, doc.Filename, doc.FileSize, doc.ChunkCount, doc.AvgChunkSize, formatTime(uploaded), carried)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.DocID, err)
	}
	return tx.Commit()
}

// ListDocuments returns every document row, newest upload first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, filename, file_size, chunk_count, avg_chunk_size, upload_time, usage_count
		FROM document_metrics ORDER BY upload_time DESC, filename
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.DocumentRecord{}
	for rows.Next() {
		var (
			d        domain.DocumentRecord
			uploaded string
		)
		if err := rows.Scan(&d.DocID, &d.Filename, &d.FileSize, &d.ChunkCount,
			&d.AvgChunkSize, &uploaded, &d.UsageCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.UploadTime = parseTime(uploaded)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// IncrementDocumentUsage bumps the counter of every row with a matching
// filename. Unknown filenames get a placeholder row.
func (s *Store) IncrementDocumentUsage(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range filenames {
		res, err := tx.ExecContext(ctx,
			"UPDATE document_metrics SET usage_count = usage_count + 1 WHERE filename = ?", name)
		if err != nil {
			return fmt.Errorf("incrementing usage of %s: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_metrics (doc_id, filename, upload_time, usage_count)
			VALUES (?, ?, ?, 1)
		`, uuid.NewString(), name, formatTime(s.now())); err != nil {
			return fmt.Errorf("creating usage row for %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// GetPerformanceInsights aggregates queries newer than the trailing window.
func (s *Store) GetPerformanceInsights(ctx context.Context, days int) (*domain.PerformanceInsights, error) {
	since := formatTime(s.now().Add(-time.Duration(days) * 24 * time.Hour))

	var (
		avgResp, avgCtx, success, avgSearch, avgGen sql.NullFloat64
		avgRating                                   sql.NullFloat64
		total                                       int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			AVG(total_time),
			AVG(context_length),
			COUNT(*),
			AVG(user_rating),
			AVG(CASE WHEN LENGTH(response) > ? THEN 1.0 ELSE 0.0 END),
			AVG(search_time),
			AVG(generation_time)
		FROM query_metrics
		WHERE timestamp > ?
	`, successMinLength, since).Scan(&avgResp, &avgCtx, &total, &avgRating, &success, &avgSearch, &avgGen)
	if err != nil {
		return nil, fmt.Errorf("aggregating queries: %w", err)
	}

	insights := &domain.PerformanceInsights{
		Days:              days,
		TotalQueries:      total,
		AvgResponseTime:   avgResp.Float64,
		AvgContextLength:  avgCtx.Float64,
		AvgSearchTime:     avgSearch.Float64,
		AvgGenerationTime: avgGen.Float64,
		SuccessRate:       success.Float64,
		FailingQueries:    []domain.FailingQuery{},
		TopDocuments:      []domain.DocumentUsage{},
	}
	if avgRating.Valid {
		r := avgRating.Float64
		insights.AvgRating = &r
	}

	if insights.FailingQueries, err = s.failingQueries(ctx, since); err != nil {
		return nil, err
	}
	if insights.TopDocuments, err = s.topDocuments(ctx); err != nil {
		return nil, err
	}
	return insights, nil
}

func (s *Store) failingQueries(ctx context.Context, since string) ([]domain.FailingQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, AVG(user_rating) AS avg_rating, COUNT(*)
		FROM query_metrics
		WHERE timestamp > ? AND user_rating IS NOT NULL
		GROUP BY question
		ORDER BY avg_rating ASC, question
		LIMIT ?
	`, since, failingQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("querying failing queries: %w", err)
	}
	defer rows.Close()

	out := []domain.FailingQuery{}
	for rows.Next() {
		var q domain.FailingQuery
		if err := rows.Scan(&q.Question, &q.AvgRating, &q.Count); err != nil {
			return nil, fmt.Errorf("scanning failing query: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) topDocuments(ctx context.Context) ([]domain.DocumentUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, usage_count, chunk_count
		FROM document_metrics
		ORDER BY usage_count DESC, filename
		LIMIT ?
	`, topDocumentLimit)
	if err != nil {
		return nil, fmt.Errorf("querying document usage: %w", err)
	}
	defer rows.Close()

	out := []domain.DocumentUsage{}
	for rows.Next() {
		var d domain.DocumentUsage
		if err := rows.Scan(&d.Filename, &d.UsageCount, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document usage: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordTrend appends a sample dated today.
func (s *Store) RecordTrend(ctx context.Context, metric string, value float64) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO performance_trends (date, metric_name, value, recorded_at) VALUES (?, ?, ?, ?)",
		now.UTC().Format(time.DateOnly), metric, value, formatTime(now))
	if err != nil {
		return fmt.Errorf("recording trend %s: %w", metric, err)
	}
	return nil
}

// Trends returns the samples of metric in the trailing window, oldest first.
func (s *Store) Trends(ctx context.Context, metric string, days int) ([]domain.TrendPoint, error) {
	since := formatTime(s.now().Add(-time.Duration(days) * 24 * time.Hour))
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, metric_name, value FROM performance_trends
		WHERE metric_name = ? AND recorded_at > ?
		ORDER BY recorded_at, id
	`, metric, since)
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()

	out := []domain.TrendPoint{}
	for rows.Next() {
		var (
			p  domain.TrendPoint
			at string
		)
		if err := rows.Scan(&at, &p.Metric, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning trend: %w", err)
		}
		p.Date = parseTime(at)
		out = append(out, p)
	}
	return out, rows.Err()
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFloats(f []float64) []float64 {
	if f == nil {
		return []float64{}
	}
	return f
}
