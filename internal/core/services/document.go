package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// Splitter cuts text into deterministic chunks.
type Splitter interface {
	Split(text string) []string
}

// DocumentService loads files, chunks them and indexes the result.
type DocumentService struct {
	loader    driven.DocumentLoader
	splitter  Splitter
	chunks    driving.ChunkStore
	telemetry driven.TelemetryStore
	log       *logger.Logger
	now       func() time.Time
}

// NewDocumentService creates a document service. telemetry may be nil.
func NewDocumentService(
	loader driven.DocumentLoader,
	splitter Splitter,
	chunks driving.ChunkStore,
	telemetry driven.TelemetryStore,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		loader:    loader,
		splitter:  splitter,
		chunks:    chunks,
		telemetry: telemetry,
		log:       log,
		now:       time.Now,
	}
}

// Process loads and chunks the file at path. The file hash is the MD5 of the
// raw bytes, so unchanged files keep their chunk identities.
func (s *DocumentService) Process(ctx context.Context, path string) (*domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if !s.loader.Supports(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	text, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	doc := &domain.Document{
		Filename: filepath.Base(path),
		Filepath: abs,
		FileHash: hash,
		Chunks:   chunks,
		FileSize: info.Size(),
	}
	s.log.Debug("Processed %s: %d chunks, avg %.0f chars", doc.Filename, doc.ChunkCount(), doc.AvgChunkSize())
	return doc, nil
}

// Ingest processes and indexes each path in turn.
func (s *DocumentService) Ingest(ctx context.Context, paths []string) []driving.IngestResult {
	s.log.Section("Ingestion")

	results := make([]driving.IngestResult, 0, len(paths))
	for _, path := range paths {
		res := driving.IngestResult{Path: path}

		doc, err := s.Process(ctx, path)
		if err != nil {
			s.log.Warn("Skipping %s: %v", path, err)
			res.Err = err
			results = append(results, res)
			continue
		}

		res.Document = doc
		res.Report = s.chunks.AddDocuments(ctx, []domain.Document{*doc})

		if s.telemetry != nil {
			record := domain.DocumentRecord{
				DocID:        doc.FileHash,
				Filename:     doc.Filename,
				FileSize:     doc.FileSize,
				ChunkCount:   doc.ChunkCount(),
				AvgChunkSize: doc.AvgChunkSize(),
				UploadTime:   s.now(),
			}
			if err := s.telemetry.LogDocument(ctx, record); err != nil {
				s.log.Warn("Logging document %s: %v", doc.Filename, err)
			}
		}
		results = append(results, res)
	}
	return results
}

// List returns the ingested documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	if s.telemetry == nil {
		return []domain.DocumentRecord{}, nil
	}
	return s.telemetry.ListDocuments(ctx)
}

// Remove deletes a document's chunks. Its usage record is kept.
func (s *DocumentService) Remove(ctx context.Context, fileHash string) error {
	return s.chunks.RemoveDocument(ctx, fileHash)
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	sum := md5.Sum(data) //nolint:gosec // content fingerprint
	return hex.EncodeToString(sum[:]), nil
}
