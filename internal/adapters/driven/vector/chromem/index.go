// Package chromem provides a persistent vector index backed by chromem-go.
package chromem

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Defaults.
const (
	DefaultCollection = "documents"
	DirName           = "chroma_db"
)

// Metadata keys stored with every chunk.
const (
	metaFilename   = "filename"
	metaFilepath   = "filepath"
	metaChunkIndex = "chunk_index"
	metaFileHash   = "file_hash"
)

// Config holds configuration for the chromem index.
type Config struct {
	// Dir is the persistence directory. Empty keeps the index in memory.
	Dir string

	// Collection is the collection name (default: documents).
	Collection string

	// Concurrency bounds parallel document inserts (default: 4).
	Concurrency int
}

// Index stores chunk embeddings in a chromem-go collection. Embeddings are
// always computed by the caller.
type Index struct {
	db          *chromemgo.DB
	name        string
	concurrency int
	log         *logger.Logger

	mu  sync.RWMutex
	col *chromemgo.Collection
}

// New opens or creates the index. Failing to open the store is fatal.
func New(cfg Config, log *logger.Logger) (*Index, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	var db *chromemgo.DB
	if cfg.Dir == "" {
		db = chromemgo.NewDB()
	} else {
		var err error
		db, err = chromemgo.NewPersistentDB(cfg.Dir, false)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrVectorIndexUnavailable, cfg.Dir, err)
		}
	}

	idx := &Index{
		db:          db,
		name:        cfg.Collection,
		concurrency: cfg.Concurrency,
		log:         log,
	}
	if err := idx.open(); err != nil {
		return nil, err
	}
	log.Debug("Vector index %s opened with %d chunks", cfg.Collection, idx.collection().Count())
	return idx, nil
}

// DefaultDir returns the chromem directory under dataDir.
func DefaultDir(dataDir string) string {
	return filepath.Join(dataDir, DirName)
}

func (i *Index) open() error {
	col, err := i.db.GetOrCreateCollection(i.name, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("%w: collection %s: %v", domain.ErrVectorIndexUnavailable, i.name, err)
	}
	i.mu.Lock()
	i.col = col
	i.mu.Unlock()
	return nil
}

func (i *Index) collection() *chromemgo.Collection {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.col
}

// noEmbedding guards against chromem embedding text on its own.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: embeddings must be supplied", domain.ErrEmbeddingUnavailable)
}

// Add inserts chunks with their embeddings.
func (i *Index) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromemgo.Document, len(chunks))
	for n, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		docs[n] = chromemgo.Document{
			ID:        c.ID,
			Content:   c.Text,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				metaFilename:   c.Metadata.Filename,
				metaFilepath:   c.Metadata.Filepath,
				metaChunkIndex: strconv.Itoa(c.Metadata.ChunkIndex),
				metaFileHash:   c.Metadata.FileHash,
			},
		}
	}
	if err := i.collection().AddDocuments(ctx, docs, i.concurrency); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// ExistingIDs probes each id. chromem has no id listing, so lookups stay
// inside this one call.
func (i *Index) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	col := i.collection()
	found := make(map[string]struct{})
	if col.Count() == 0 {
		return found, nil
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := col.GetByID(ctx, id); err == nil {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

// Query returns up to n nearest chunks. Distance is 1 - cosine similarity.
func (i *Index) Query(ctx context.Context, embedding []float32, n int) ([]domain.SearchResult, error) {
	col := i.collection()
	n = min(n, col.Count())
	if n <= 0 {
		return []domain.SearchResult{}, nil
	}

	res, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		idx, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		out = append(out, domain.SearchResult{
			Text: r.Content,
			Metadata: domain.ChunkMetadata{
				Filename:   r.Metadata[metaFilename],
				Filepath:   r.Metadata[metaFilepath],
				ChunkIndex: idx,
				FileHash:   r.Metadata[metaFileHash],
			},
			Distance: max(0, 1-float64(r.Similarity)),
		})
	}
	return out, nil
}

// Reset drops and recreates the collection.
func (i *Index) Reset(_ context.Context) error {
	if err := i.db.DeleteCollection(i.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", i.name, err)
	}
	return i.open()
}

// DeleteByFileHash removes every chunk of one file.
func (i *Index) DeleteByFileHash(ctx context.Context, fileHash string) error {
	if fileHash == "" {
		return fmt.Errorf("%w: empty file hash", domain.ErrInvalidInput)
	}
	col := i.collection()
	if col.Count() == 0 {
		return nil
	}
	if err := col.Delete(ctx, map[string]string{metaFileHash: fileHash}, nil); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (i *Index) Count(_ context.Context) (int, error) {
	return i.collection().Count(), nil
}

// Close is a no-op; chromem persists on every write.
func (i *Index) Close() error {
	return nil
}
