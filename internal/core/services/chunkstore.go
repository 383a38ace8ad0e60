package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure ChunkStore implements the interface.
var _ driving.ChunkStore = (*ChunkStore)(nil)

const (
	// DefaultBatchSize is the number of chunks embedded and inserted together.
	DefaultBatchSize = 100

	// A failed batch is retried at half the batch size only when the
	// configured size is above minRetryBatch.
	minRetryBatch = 10
)

// Embedder maps texts to vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore indexes document chunks and retrieves the nearest ones for a query.
// Chunk identity is {file_hash}_{chunk_index}, so re-adding an unchanged document
// is a no-op.
type ChunkStore struct {
	index     driven.VectorIndex
	embedder  Embedder
	batchSize int
	log       *logger.Logger
}

// NewChunkStore creates a chunk store over a vector index.
func NewChunkStore(index driven.VectorIndex, embedder Embedder, batchSize int, log *logger.Logger) *ChunkStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkStore{
		index:     index,
		embedder:  embedder,
		batchSize: batchSize,
		log:       log,
	}
}

// AddDocuments indexes every chunk that is not already stored. The set of
// existing identities is fetched once per call. A failed batch is retried once
// in slices of half the batch size; anything still failing is logged and dropped.
func (s *ChunkStore) AddDocuments(ctx context.Context, docs []domain.Document) domain.AddReport {
	var report domain.AddReport

	var candidates []domain.Chunk
	for i := range docs {
		doc := &docs[i]
		for idx, text := range doc.Chunks {
			if strings.TrimSpace(text) == "" {
				continue
			}
			candidates = append(candidates, domain.Chunk{
				ID:   domain.ChunkID(doc.FileHash, idx),
				Text: text,
				Metadata: domain.ChunkMetadata{
					Filename:   doc.Filename,
					Filepath:   doc.Filepath,
					ChunkIndex: idx,
					FileHash:   doc.FileHash,
				},
			})
		}
	}
	if len(candidates) == 0 {
		return report
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	existing, err := s.index.ExistingIDs(ctx, ids)
	if err != nil {
		s.log.Warn("Could not read existing chunk ids, adding all: %v", err)
		existing = nil
	}

	pending := make([]domain.Chunk, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			report.Skipped++
			continue
		}
		if _, ok := seen[c.ID]; ok {
			report.Skipped++
			continue
		}
		seen[c.ID] = struct{}{}
		pending = append(pending, c)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		err := s.insert(ctx, batch)
		if err == nil {
			report.Added += len(batch)
			continue
		}
		if s.batchSize <= minRetryBatch {
			s.log.Warn("Batch %d-%d failed: %v", start, end, err)
			report.Failed += len(batch)
			continue
		}
		s.log.Warn("Batch %d-%d failed, retrying at half size: %v", start, end, err)

		half := s.batchSize / 2
		for from := 0; from < len(batch); from += half {
			part := batch[from:min(from+half, len(batch))]
			if err := s.insert(ctx, part); err != nil {
				s.log.Warn("Retry of %d chunks failed: %v", len(part), err)
				report.Failed += len(part)
				continue
			}
			report.Added += len(part)
		}
	}

	s.log.Info("Added %d new chunks, skipped %d existing, %d failed", report.Added, report.Skipped, report.Failed)
	return report
}

func (s *ChunkStore) insert(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	chunks := make([]domain.Chunk, len(batch))
	for i := range batch {
		chunks[i] = batch[i]
		chunks[i].Embedding = vectors[i]
	}
	return s.index.Add(ctx, chunks)
}

// Search returns up to n chunks nearest to text, best match first.
// An empty index yields an empty slice.
func (s *ChunkStore) Search(ctx context.Context, text string, n int) ([]domain.SearchResult, error) {
	if n <= 0 {
		return []domain.SearchResult{}, nil
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if count == 0 {
		return []domain.SearchResult{}, nil
	}
	n = min(n, count)

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.index.Query(ctx, vectors[0], n)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	domain.SortByDistance(results)
	return results, nil
}

// Clear drops and recreates the index.
func (s *ChunkStore) Clear(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	s.log.Info("Cleared all documents from the index")
	return nil
}

// RemoveDocument deletes every chunk derived from fileHash.
func (s *ChunkStore) RemoveDocument(ctx context.Context, fileHash string) error {
	if err := s.index.DeleteByFileHash(ctx, fileHash); err != nil {
		return fmt.Errorf("remove document %s: %w", fileHash, err)
	}
	return nil
}

// DocumentCount returns the number of stored chunks.
func (s *ChunkStore) DocumentCount(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}
